package base

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/ValentinKolb/keyz/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"time"
)

var Logger = logger.GetLogger(common.LoggerTransport)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect resolves the endpoint and establishes a single connection
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// connState is the lifecycle state of the transport.
// It is only read or written while holding the connection lock.
type connState uint8

const (
	stateUnconnected connState = iota
	stateConnected
	stateClosed
	stateBroken
)

func (s connState) String() string {
	switch s {
	case stateUnconnected:
		return "unconnected"
	case stateConnected:
		return "connected"
	case stateClosed:
		return "closed"
	case stateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	lock      *connLock
	conn      net.Conn
	state     connState
	cause     error // why the connection broke
}

// frameConn is the FrameConn handed to exclusive sections
type frameConn struct {
	t      *clientTransport
	active bool
}

// -----------------------------------------------------------
// Transport Factory Method
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		lock:      newConnLock(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(ctx context.Context, config common.ClientConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("%w: no endpoint provided", common.ErrInvalidAddress)
	}

	if err := t.lock.Lock(ctx); err != nil {
		return err
	}
	defer t.lock.Unlock()

	switch t.state {
	case stateUnconnected:
	case stateConnected:
		return fmt.Errorf("%w: transport is %s", common.ErrAlreadyConnected, t.state)
	default:
		// closed and broken transports never reconnect
		return t.usable()
	}

	if config.ConnectTimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.ConnectTimeoutSecond)*time.Second)
		defer cancel()
	}

	conn, err := t.connector.Connect(ctx, config.Endpoint)
	if err != nil {
		return err
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return fmt.Errorf("%w: failed to upgrade connection to %s: %v", common.ErrConnectFailed, config.Endpoint, err)
	}

	t.config = config
	t.conn = conn
	t.state = stateConnected

	Logger.Infof("Connected to %s (%s) using %s transport", config.Endpoint, conn.RemoteAddr(), t.connector.GetName())
	return nil
}

func (t *clientTransport) Do(ctx context.Context, fn transport.ExclusiveFunc) (err error) {
	waitStart := time.Now()
	if err := t.lock.Lock(ctx); err != nil {
		return err
	}
	defer t.lock.Unlock()
	lockWaitDuration.UpdateDuration(waitStart)

	start := time.Now()
	requestsTotal.Inc()
	defer func() {
		if err != nil {
			requestErrorsTotal.Inc()
		}
		requestDuration.UpdateDuration(start)
	}()

	if err := t.usable(); err != nil {
		return err
	}

	fc := &frameConn{t: t, active: true}
	defer func() { fc.active = false }()

	return fn(fc)
}

func (t *clientTransport) Send(ctx context.Context, req []byte) (resp []byte, err error) {
	err = t.Do(ctx, func(conn transport.FrameConn) error {
		if err := conn.WriteFrame(req); err != nil {
			return err
		}
		resp, err = conn.ReadFrame()
		return err
	})
	return resp, err
}

func (t *clientTransport) Close() error {
	// queue like any request, a running request is never cut in half
	if err := t.lock.Lock(context.Background()); err != nil {
		return err
	}
	defer t.lock.Unlock()

	return t.shutdown()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// usable returns an error if no request may be sent in the current state
func (t *clientTransport) usable() error {
	switch t.state {
	case stateConnected:
		return nil
	case stateUnconnected:
		return common.ErrNotConnected
	case stateBroken:
		return fmt.Errorf("%w: %v", common.ErrConnectionBroken, t.cause)
	default:
		return common.ErrConnectionClosed
	}
}

// shutdown closes the connection in both directions. Must hold the lock.
func (t *clientTransport) shutdown() error {
	if t.state == stateClosed || t.state == stateUnconnected {
		t.state = stateClosed
		return nil
	}

	wasBroken := t.state == stateBroken
	t.state = stateClosed

	if tcpConn, ok := t.conn.(interface{ CloseWrite() error }); ok && !wasBroken {
		_ = tcpConn.CloseWrite()
	}
	err := t.conn.Close()

	Logger.Infof("Connection to %s closed", t.config.Endpoint)
	if wasBroken {
		// the socket was already closed when the connection broke
		return nil
	}
	return err
}

// fail tears the connection down after an io or framing error. Must hold the lock.
func (t *clientTransport) fail(err error) error {
	if t.state != stateConnected {
		return err
	}
	t.state = stateBroken
	t.cause = err
	_ = t.conn.Close()
	brokenTotal.Inc()

	Logger.Warningf("Connection to %s broken: %v", t.config.Endpoint, err)
	return fmt.Errorf("%w: %w", common.ErrConnectionBroken, err)
}

// applyDeadline sets the read and write deadline if a timeout is configured
func (t *clientTransport) applyDeadline() error {
	if t.config.TimeoutSecond <= 0 {
		return nil
	}
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second
	return t.conn.SetDeadline(time.Now().Add(timeout))
}

// --------------------------------------------------------------------------
// FrameConn
// --------------------------------------------------------------------------

func (c *frameConn) check() error {
	if !c.active {
		panic("keyz: FrameConn used outside of its exclusive section")
	}
	return c.t.usable()
}

func (c *frameConn) WriteFrame(payload []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := c.t.applyDeadline(); err != nil {
		return c.t.fail(err)
	}
	if err := WriteFrame(c.t.conn, payload); err != nil {
		if errors.Is(err, common.ErrFrameTooLarge) {
			// rejected before anything was written
			return err
		}
		return c.t.fail(err)
	}
	bytesWrittenTotal.Add(headerSize + len(payload))
	return nil
}

func (c *frameConn) ReadFrame() ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := c.t.applyDeadline(); err != nil {
		return nil, c.t.fail(err)
	}
	data, err := ReadFrame(c.t.conn, c.t.config.Transport.MaxFrameSize)
	if err != nil {
		return nil, c.t.fail(err)
	}
	bytesReadTotal.Add(headerSize + len(data))
	return data, nil
}

func (c *frameConn) Shutdown() error {
	if !c.active {
		panic("keyz: FrameConn used outside of its exclusive section")
	}
	return c.t.shutdown()
}
