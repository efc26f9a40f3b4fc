// Package cmd implements the command-line interface of dIndex. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - index: Commands for objects and index queries (put, fetch, query, perf, etc.)
//   - ts: Commands for time series rows (put, get)
//   - path: Offline helpers that build escaped paths of the legacy http api
//   - serve: Commands for starting and configuring the dIndex server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dindex -help for a list of all commands.
package cmd
