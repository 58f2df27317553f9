// Package testserver implements an in-memory keyz server for tests and local
// development. It is not a production server: there is no persistence, no
// authentication and no limits.
//
// The server answers the commands of the keyz protocol with the sentinels the
// client expects:
//
//   - SET <key> <value> [EX <seconds>] -> "ok"
//   - GET <key>                        -> value or "null"
//   - DEL <key>                        -> the key or "null"
//   - EXIN <key>                       -> remaining seconds (rounded up) or the key
//   - CLOSE                            -> "closed", then the connection is closed
//
// Malformed commands are answered with "error: <reason>".
//
// NewWithHandler replaces the store with an arbitrary Handler, which is useful
// to simulate misbehaving servers.
//
// Usage Example:
//
//	srv := testserver.New()
//	if err := srv.Listen("127.0.0.1:0"); err != nil {
//	  t.Fatal(err)
//	}
//	defer srv.Close()
//
//	keyz, err := client.Dial(ctx, "127.0.0.1", srv.Port())
package testserver
