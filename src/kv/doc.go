// Package kv implements a sequentially consistent key-value service that
// speaks the glomers wire protocol.
//
// The cluster normally provides this service as the seq-kv node. The Service
// handler implemented here plays that role when running nodes locally or in
// tests: it serves read, write and compare-and-swap requests against a Store,
// and answers with the standard key-does-not-exist (20) and
// precondition-failed (22) error codes.
//
// Two Stores are provided. InmemStore keeps values in a map. BadgerStore
// persists them in a Badger database, and performs compare-and-swap inside a
// transaction.
package kv
