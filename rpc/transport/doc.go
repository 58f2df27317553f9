// Package transport defines the interfaces and abstractions for the keyz client
// transport. It provides the contract the command layer is written against, so
// the framing and connection handling can be tested and replaced independently.
//
// The package focuses on:
//   - A single connection per client, owned for the whole client lifetime
//   - Exclusive, scoped access to that connection (one request/response cycle at a time)
//   - Frame based communication (4 byte big endian length prefix + payload)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connecting, exclusive access and shutdown.
//
//   - FrameConn: The connection as seen from inside an exclusive section.
//
//   - ExclusiveFunc: Function type executed while holding the connection.
package transport
