// Package node implements the runtime of a glomers node.
//
// A node talks to the rest of the cluster through a line-oriented Transport,
// usually stdin and stdout. The first line it reads must be an init message,
// which tells the node its own NodeID and the NodeIDs of the cluster. The node
// answers with init_ok and only then creates its Handler.
//
// Event loop
//
// After init, every input of the node is turned into an event and consumed by
// a single processing loop, which is the only goroutine touching handler
// state. A reader goroutine decodes lines into inbound events, or malformed
// events when only the routing fields could be recovered. A ControlTimer emits
// tick events for handlers implementing Ticker. Queries from the stats service
// are also events, so handlers never need locks.
//
// Errors
//
// Errors are reported in-band. A line that fails to decode is answered with a
// malformed-request error, and a Handler error with a crash error. The loop
// stops on a line whose routing fields cannot be read, and on errors wrapped
// with Fatal.
//
// MsgIDs are minted by the Outbox, one per request or reply, starting at 1.
// Error replies carry no MsgID.
package node
