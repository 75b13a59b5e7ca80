// Package app wires application dependencies for the CLI.
//
// It loads runtime configuration from TOML, builds the concrete file store
// and logger from Config, and exposes them via the Wire struct for commands
// to use.
package app
