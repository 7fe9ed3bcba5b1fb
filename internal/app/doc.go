// Package app wires application dependencies for the CLI.
//
// Config is read from the environment with caarlos0/env and then adjusted by
// command-line flags. NewWire builds the directory client, websocket dialer,
// profile store and session options from it, and App exposes the handful of
// operations the commands need on top of those.
package app
