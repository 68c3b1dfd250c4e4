// Package glomers assembles a node from a config.Config.
//
// A node speaks newline-delimited JSON on stdin and stdout and runs one of
// the following workloads:
//
//  echo        // replies to echo requests
//  unique-ids  // generates cluster-wide unique identifiers
//  broadcast   // gossips a grow-only set of integers to its neighbors
//  g-counter   // grow-only counter committed to a key-value service
//  seq-kv      // the key-value service itself, in memory or in badger
//
// The HTTP service is started when config.ServiceAddr is set.
package glomers
