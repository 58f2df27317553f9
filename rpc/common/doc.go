// Package common provides core data structures and utilities shared across
// the keyz client. It defines the command protocol, the error taxonomy and the
// configuration used by the transport and client packages.
//
// The package focuses on:
//   - Command strings (SET, GET, DEL, EXIN, CLOSE) and their response sentinels
//   - Sentinel errors, split into fatal connection errors and recoverable command errors
//   - Configuration structures for the client and its transport
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - NewSetCommand, NewGetCommand, ...: Factory functions building the space
//     delimited command strings. The protocol has no escaping, ValidateToken
//     rejects keys and values that would change the meaning of a command.
//
//   - ParseCommand: The inverse of the factory functions, used by servers.
//
//   - CommandError: Wraps a failure sentinel answered by the server together with
//     the raw response. Unwraps to ErrSetFailed, ErrGetFailed, ...
//
//   - ClientConfig: Configuration for the client, controlling the endpoint,
//     deadlines, frame size limits and tcp socket options.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
