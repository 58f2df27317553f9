package transport

import (
	"context"
	"github.com/ValentinKolb/keyz/rpc/common"
)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// FrameConn is the view on the connection handed to an exclusive section.
// It must not be retained after the section returns.
type FrameConn interface {
	// WriteFrame writes the payload prefixed with its length
	WriteFrame(payload []byte) error
	// ReadFrame reads exactly one frame and returns its payload
	ReadFrame() ([]byte, error)
	// Shutdown closes the connection in both directions.
	// Every later operation on the transport fails with common.ErrConnectionClosed.
	Shutdown() error
}

// ExclusiveFunc is executed while the caller holds the connection exclusively
type ExclusiveFunc func(conn FrameConn) error

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect resolves the endpoint of the config and establishes the connection.
	// It blocks until the connection is established or failed.
	Connect(ctx context.Context, config common.ClientConfig) error
	// Do runs fn with exclusive access to the connection. Callers queue in arrival order.
	// The context is only honoured while waiting for the connection.
	// Io and framing errors inside fn break the connection for good.
	Do(ctx context.Context, fn ExclusiveFunc) error
	// Send writes one request frame and reads one response frame
	Send(ctx context.Context, req []byte) (resp []byte, err error)
	// Close closes the transport connection without any handshake
	Close() error
}
