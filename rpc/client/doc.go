// Package client implements the keyz client. It translates typed calls into
// the space delimited command strings of the keyz protocol and interprets the
// sentinel responses of the server.
//
// The package focuses on:
//   - The request/response primitive SendMessage
//   - Command helpers (Set, SetEx, Get, Delete, ExpiresIn)
//   - The close handshake (Dispose)
//
// Key Components:
//
//   - NewKeyz: Factory function that connects a transport and returns a client.
//     Dial is a shortcut for a tcp transport with the default configuration.
//
//   - Keyz: The client. All methods take a context which is honoured while the
//     call waits for the connection, a request in flight is never interrupted.
//
// Usage Example:
//
//	// Configure the client
//	config := common.NewClientConfig("127.0.0.1:7667")
//
//	// Create the client
//	keyz, err := client.NewKeyz(ctx, config, tcp.NewTCPClientTransport())
//	if err != nil {
//	  return err
//	}
//
//	// Use the client
//	keyz.SetEx(ctx, "mykey", "myvalue", 20)
//	value, err := keyz.Get(ctx, "mykey")
//	if errors.Is(err, common.ErrGetFailed) {
//	  // key is absent
//	}
//
//	// Close the connection
//	keyz.Dispose(ctx)
//
// Errors:
//
//	Command failures (common.ErrSetFailed, common.ErrGetFailed, common.ErrDeleteFailed,
//	common.ErrExpiresInFailed) are returned as *common.CommandError and leave the
//	connection usable. Framing errors and protocol violations close the connection,
//	every later call fails with common.ErrConnectionClosed.
//
// Thread Safety:
//
//	Keyz is safe for concurrent use from multiple goroutines. Requests are serialized
//	on the single connection in arrival order.
package client
