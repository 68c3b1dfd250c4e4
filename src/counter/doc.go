// Package counter implements a grow-only counter Handler on top of the
// sequentially consistent key-value service of the cluster.
//
// Increments are acknowledged immediately and accumulated in a local delta.
// On every tick the node reads the shared counter, then tries to add its delta
// with a compare-and-swap. A CAS that loses against a concurrent writer gives
// its delta back, so no increment is lost or counted twice. At most one CAS is
// in flight per node. A CAS whose reply is lost stays in flight forever: its
// outcome is unknown, and the increments that follow wait in the delta.
//
// Reads answer with the highest committed value observed so far, which does
// not include the node's own uncommitted delta.
package counter
