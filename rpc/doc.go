// Package rpc provides the client side of the keyz protocol. A keyz server is
// reached over a single persistent tcp connection, every request and response
// is a length-prefixed text frame.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the package,
//     including the command format, configuration structures, errors and logging.
//
//   - transport: The connection manager. It owns the single connection, frames
//     messages and serializes access to the connection (tcp implementation in
//     transport/tcp, shared logic in transport/base).
//
//   - client: The keyz client with the command helpers (Set, SetEx, Get, Delete,
//     ExpiresIn, Dispose) and raw message access.
//
//   - testserver: An in-memory keyz server for tests and local development.
package rpc
