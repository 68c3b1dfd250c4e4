// Package service implements an optional HTTP API exposing the stats and the
// state of a running node, for operators. It never carries protocol traffic.
//
//  GET /stats // runtime and handler counters, as a JSON object of strings
//  GET /state // canonical JSON snapshot of the handler's state
package service
