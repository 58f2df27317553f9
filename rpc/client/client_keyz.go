package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/ValentinKolb/keyz/rpc/transport"
	"github.com/ValentinKolb/keyz/rpc/transport/tcp"
	"strconv"
)

// NewKeyz creates a new keyz client.
// The function takes a config and a transport as parameters, connects the
// transport and returns the client. If the endpoint can not be resolved or
// the connection can not be established no client is returned.
func NewKeyz(
	ctx context.Context,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (*Keyz, error) {

	// Connect the transport
	if err := transport.Connect(ctx, config); err != nil {
		return nil, err
	}

	return &Keyz{
		config:    config,
		transport: transport,
	}, nil
}

// Dial connects to the keyz server at host:port over tcp using the default configuration
func Dial(ctx context.Context, host string, port uint16) (*Keyz, error) {
	config := common.NewClientConfig(common.EndpointFor(host, port))
	return NewKeyz(ctx, config, tcp.NewTCPClientTransport())
}

// Keyz is a client for a keyz server. It owns a single connection and is safe
// for concurrent use, requests are sent one at a time in arrival order.
type Keyz struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// Config returns the configuration the client was created with
func (k *Keyz) Config() common.ClientConfig {
	return k.config
}

// --------------------------------------------------------------------------
// Raw Messages
// --------------------------------------------------------------------------

// SendMessage sends a raw command string and returns the decoded response.
// The message CLOSE is sent without waiting for a response and returned as is,
// use Dispose to close the connection.
func (k *Keyz) SendMessage(ctx context.Context, message string) (string, error) {
	var resp string
	err := k.transport.Do(ctx, func(conn transport.FrameConn) (err error) {
		resp, err = exchange(conn, message)
		return err
	})
	if err != nil {
		return "", err
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Set stores value under key. It returns the server's "ok".
func (k *Keyz) Set(ctx context.Context, key, value string) (string, error) {
	if err := validate("key", key, "value", value); err != nil {
		return "", err
	}
	return k.set(ctx, key, common.NewSetCommand(key, value))
}

// SetEx stores value under key, the key expires after expireIn seconds
func (k *Keyz) SetEx(ctx context.Context, key, value string, expireIn uint64) (string, error) {
	if err := validate("key", key, "value", value); err != nil {
		return "", err
	}
	return k.set(ctx, key, common.NewSetExCommand(key, value, expireIn))
}

func (k *Keyz) set(ctx context.Context, key, command string) (string, error) {
	resp, err := k.SendMessage(ctx, command)
	if err != nil {
		return "", err
	}
	if resp != common.RespOk {
		return "", commandError(common.CmdSet, key, resp, common.ErrSetFailed)
	}
	return resp, nil
}

// Get returns the value stored under key.
// If the server answers "null" the key is absent and common.ErrGetFailed is returned.
func (k *Keyz) Get(ctx context.Context, key string) (string, error) {
	if err := validate("key", key); err != nil {
		return "", err
	}
	resp, err := k.SendMessage(ctx, common.NewGetCommand(key))
	if err != nil {
		return "", err
	}
	if resp == common.RespNull {
		return "", commandError(common.CmdGet, key, resp, common.ErrGetFailed)
	}
	return resp, nil
}

// Delete removes key. On success the server echoes the key, which is returned.
func (k *Keyz) Delete(ctx context.Context, key string) (string, error) {
	if err := validate("key", key); err != nil {
		return "", err
	}
	resp, err := k.SendMessage(ctx, common.NewDeleteCommand(key))
	if err != nil {
		return "", err
	}
	if resp != key {
		return "", commandError(common.CmdDelete, key, resp, common.ErrDeleteFailed)
	}
	return resp, nil
}

// ExpiresIn returns the seconds until key expires.
// The server echoes the key if it has no expiration (or does not exist), which
// is reported as common.ErrExpiresInFailed. Any other non numeric answer is a
// protocol violation and closes the connection.
func (k *Keyz) ExpiresIn(ctx context.Context, key string) (uint64, error) {
	if err := validate("key", key); err != nil {
		return 0, err
	}

	var seconds uint64
	var cmdErr error
	err := k.transport.Do(ctx, func(conn transport.FrameConn) error {
		resp, err := exchange(conn, common.NewExpiresInCommand(key))
		if err != nil {
			return err
		}
		if resp == key {
			cmdErr = commandError(common.CmdExIn, key, resp, common.ErrExpiresInFailed)
			return nil
		}
		seconds, err = strconv.ParseUint(resp, 10, 64)
		if err != nil {
			// the server does not honour the contract, do not send anything else on this connection
			_ = conn.Shutdown()
			return protocolViolation(common.CmdExIn, resp, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if cmdErr != nil {
		return 0, cmdErr
	}
	return seconds, nil
}

// Dispose performs the close handshake and shuts the connection down.
// CLOSE is sent like any message (without reading a response), then the
// acknowledgement is read directly. The client can not be used afterwards.
func (k *Keyz) Dispose(ctx context.Context) error {
	err := k.transport.Do(ctx, func(conn transport.FrameConn) error {
		if _, err := exchange(conn, common.CmdClose); err != nil {
			return err
		}

		ack, err := conn.ReadFrame()
		if err != nil {
			return err
		}
		Logger.Debugf("Server acknowledged close: %q", DecodePayload(ack))

		return conn.Shutdown()
	})
	if err != nil {
		// make sure the socket does not leak, whatever state it is in
		closeErr := k.transport.Close()
		return fmt.Errorf("%w: %w", common.ErrDisposeFailed, errors.Join(err, closeErr))
	}
	return nil
}

// Close shuts the connection down without the close handshake
func (k *Keyz) Close() error {
	return k.transport.Close()
}
