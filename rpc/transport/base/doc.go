// Package base provides the foundation of the keyz client transport,
// implementing connection ownership and framing independent of the specific
// network protocol. Protocol specific behaviour (address resolution, socket
// options) is injected through IClientConnector, see the tcp package.
//
// The package focuses on:
//   - Owning exactly one connection per transport for its whole lifetime
//   - Exclusive access to that connection, granted in arrival order
//   - Frame-based message protocol (4 byte big endian length + payload)
//   - Tearing the connection down after any io or framing error
//
// Key Components:
//
//   - IClientConnector: Interface for protocol-specific operations.
//
//   - clientTransport: Implements transport.IRPCClientTransport. The connection moves through
//     the states unconnected -> connected -> closed. An io or framing error moves it to
//     broken instead, because the byte alignment of the stream is unknown afterwards.
//     There is no way back into connected.
//
//   - connLock: FIFO lock guarding the connection. Waiting can be cancelled with a context,
//     a running exclusive section cannot.
//
//   - WriteFrame/ReadFrame: The wire codec. Header and payload are written with a single
//     net.Buffers write. Early end of stream is reported as common.ErrTruncatedHeader or
//     common.ErrTruncatedPayload, never as a short payload.
//
// Metrics:
//
//	Request counts, errors, durations, lock wait times and frame byte counts are recorded with
//	github.com/VictoriaMetrics/metrics and can be exported with metrics.WritePrometheus.
//
// Thread Safety:
//
//	All public methods are thread-safe. A FrameConn must only be used inside the
//	exclusive section it was handed to.
package base
