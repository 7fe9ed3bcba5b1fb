// Package commands defines the nexus CLI and wires dependencies for subcommands.
//
// Commands
//
//   - create   Ask the relay for a new session and print its id
//   - status   Show who is in a session and how far agreement has got
//   - health   Check that the relay is up
//   - chat     Join a session, wait for key agreement, then chat
//
// # Implementation
//
// The root command loads configuration from NEXUS_* variables, applies any
// flags on top, and builds the dependency graph before a subcommand runs.
// Diagnostics go to stderr through slog; conversation output goes to stdout.
package commands
