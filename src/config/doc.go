// Package config defines the configuration for a glomers node.
//
// Regardless of how a node is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. The node's
// identity is not part of the configuration: it arrives with the init message.
//
// On the command line, options are read from flags, from GLOMERS_ environment
// variables, and from an optional glomers.toml (or .yaml, .json) in the
// working directory.
package config
