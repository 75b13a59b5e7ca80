// Package commands defines the piqrypt CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create the local signing identity
//   - fingerprint    Print the identity fingerprint
//   - verify         Audit an exported session for tampering
//
// # Implementation
//
// The root command loads configuration and builds a dependency graph (file
// store, logger, session settings) before any subcommand runs, so handlers
// share one app context.
package commands
