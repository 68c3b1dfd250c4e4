// Package broadcast implements a gossip Handler that replicates a grow-only
// set of integers across the cluster.
//
// Every node keeps the set of values it has seen and, for each neighbor and
// value, what it knows about the neighbor's knowledge of that value. On every
// tick a node sends each neighbor only the values it cannot prove the
// neighbor has, tagged "new", and acknowledges the values the neighbor told
// it about, tagged "verified". Once both sides have acknowledged a value, it
// is never sent between them again, so a quiet cluster sends no gossip.
//
// Gossip messages are never replied to. Lost or duplicated gossip is repaired
// by the next tick.
package broadcast
