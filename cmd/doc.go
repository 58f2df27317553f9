// Package cmd implements the command-line interface of the keyz client.
// It provides a hierarchical command structure for talking to a keyz server.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (set, get, del, exin, send, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through the environment with the KEYZ_ prefix,
// e.g. KEYZ_ENDPOINT=10.0.0.1:7667. .env and .env.local files are loaded first.
//
// See keyz -help for a list of all commands.
package cmd
