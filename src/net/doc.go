// Package net implements the line transports used by glomers nodes.
//
// A node reads and writes one JSON message per line. The Transport interface
// captures exactly that: ReadLine blocks for the next inbound line, WriteLine
// emits one outbound line. There are two implementations:
//
// - Stdio: stdin/stdout of the process, used in production where an external
// harness routes lines between processes.
//
// - Inmem: an in-process network routing lines between transports by the
// dest field of each message. It is used to run several nodes, clients and
// the key-value service in a single process for testing. Links can be cut
// and restored to simulate partitions.
package net
