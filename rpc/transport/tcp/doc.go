// Package tcp implements the TCP connector of the keyz client transport. It
// provides the concrete implementation of the base package's connector
// interface: endpoint resolution, dialing and socket tuning.
//
// See the base package documentation for the connection lifecycle and the
// framing of the wire protocol.
//
// Key Components:
//
//   - ResolveEndpoint: Turns host:port into a single address. Dotted-quad ipv4
//     hosts are parsed directly, hostnames are resolved (first address wins).
//     Because the endpoint is split at ':', ipv6 literals cannot be expressed.
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
// Keyz servers listen on port 7667 by default (common.DefaultPort).
package tcp
