package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/ValentinKolb/keyz/rpc/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

// startServer starts a store backed test server
func startServer(t *testing.T) *testserver.Server {
	t.Helper()
	srv := testserver.New()
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	t.Cleanup(func() { srv.Close() })
	return srv
}

// startHandlerServer starts a test server answering with handler
func startHandlerServer(t *testing.T, handler testserver.Handler) *testserver.Server {
	t.Helper()
	srv := testserver.NewWithHandler(handler)
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	t.Cleanup(func() { srv.Close() })
	return srv
}

// dial connects a client to srv
func dial(t *testing.T, srv *testserver.Server) *Keyz {
	t.Helper()
	k, err := Dial(context.Background(), "127.0.0.1", srv.Port())
	require.NoError(t, err)
	t.Cleanup(func() { k.Close() })
	return k
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	resp, err := k.Set(ctx, "test", "1")
	require.NoError(t, err)
	assert.Equal(t, common.RespOk, resp)

	value, err := k.Get(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	// overwrite
	_, err = k.Set(ctx, "test", "schlüssel→✓")
	require.NoError(t, err)
	value, err = k.Get(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, "schlüssel→✓", value)
}

func TestGetAbsent(t *testing.T) {
	k := dial(t, startServer(t))

	_, err := k.Get(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrGetFailed)

	var cmdErr *common.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, common.CmdGet, cmdErr.Command)
	assert.Equal(t, "missing", cmdErr.Key)
	assert.Equal(t, common.RespNull, cmdErr.Response)
	assert.False(t, common.IsFatal(err), "a missing key must not be fatal")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	_, err := k.Set(ctx, "test", "1")
	require.NoError(t, err)

	resp, err := k.Delete(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", resp)

	_, err = k.Get(ctx, "test")
	assert.ErrorIs(t, err, common.ErrGetFailed)

	// the key is gone, the server does not echo it anymore
	_, err = k.Delete(ctx, "test")
	assert.ErrorIs(t, err, common.ErrDeleteFailed)
}

func TestSetExExpiresIn(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	_, err := k.SetEx(ctx, "session", "abc", 20)
	require.NoError(t, err)

	seconds, err := k.ExpiresIn(ctx, "session")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seconds, uint64(1))
	assert.LessOrEqual(t, seconds, uint64(20))

	value, err := k.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestExpiresInWithoutExpiration(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	_, err := k.Set(ctx, "persistent", "1")
	require.NoError(t, err)

	_, err = k.ExpiresIn(ctx, "persistent")
	assert.ErrorIs(t, err, common.ErrExpiresInFailed)

	_, err = k.ExpiresIn(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrExpiresInFailed)

	// the connection is still usable
	value, err := k.Get(ctx, "persistent")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestExpiresInProtocolViolation(t *testing.T) {
	srv := startHandlerServer(t, func(request string) (string, bool) {
		return "garbage", false
	})
	k := dial(t, srv)

	_, err := k.ExpiresIn(context.Background(), "test")
	require.ErrorIs(t, err, common.ErrProtocolViolation)

	// the client gave up on the connection
	_, err = k.Get(context.Background(), "test")
	assert.ErrorIs(t, err, common.ErrConnectionClosed)
}

func TestSetFailed(t *testing.T) {
	srv := startHandlerServer(t, func(request string) (string, bool) {
		return "error: read only", false
	})
	k := dial(t, srv)

	_, err := k.Set(context.Background(), "test", "1")
	require.ErrorIs(t, err, common.ErrSetFailed)

	var cmdErr *common.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "error: read only", cmdErr.Response)

	_, err = k.SetEx(context.Background(), "test", "1", 10)
	assert.ErrorIs(t, err, common.ErrSetFailed)
}

func TestDeleteUnexpectedEcho(t *testing.T) {
	srv := startHandlerServer(t, func(request string) (string, bool) {
		return "other", false
	})
	k := dial(t, srv)

	_, err := k.Delete(context.Background(), "test")
	assert.ErrorIs(t, err, common.ErrDeleteFailed)
}

func TestInvalidArguments(t *testing.T) {
	requests := 0
	var mu sync.Mutex
	srv := startHandlerServer(t, func(request string) (string, bool) {
		mu.Lock()
		requests++
		mu.Unlock()
		return common.RespOk, false
	})
	k := dial(t, srv)
	ctx := context.Background()

	_, err := k.Set(ctx, "", "1")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = k.Set(ctx, "a b", "1")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = k.SetEx(ctx, "test", "two words", 5)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = k.Get(ctx, "tab\tkey")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = k.Delete(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = k.ExpiresIn(ctx, "new\nline")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, requests, "invalid commands must not reach the server")
}

// --------------------------------------------------------------------------
// Raw Messages
// --------------------------------------------------------------------------

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	resp, err := k.SendMessage(ctx, "SET raw value")
	require.NoError(t, err)
	assert.Equal(t, common.RespOk, resp)

	resp, err = k.SendMessage(ctx, "GET raw")
	require.NoError(t, err)
	assert.Equal(t, "value", resp)

	// the server answers unknown commands, the client forwards whatever it gets
	resp, err = k.SendMessage(ctx, "PING")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp, "error:"), "unexpected response %q", resp)
}

func TestSendMessageCloseDoesNotRead(t *testing.T) {
	received := make(chan string, 1)
	srv := startHandlerServer(t, func(request string) (string, bool) {
		received <- request
		return testserver.RespClosed, true
	})
	k := dial(t, srv)

	resp, err := k.SendMessage(context.Background(), common.CmdClose)
	require.NoError(t, err)
	assert.Equal(t, common.CmdClose, resp)
	assert.Equal(t, common.CmdClose, <-received)
}

func TestDecodePayload(t *testing.T) {
	assert.Equal(t, "ok", DecodePayload([]byte("ok")))
	assert.Equal(t, "", DecodePayload([]byte{}))
	assert.Equal(t, "wert→✓", DecodePayload([]byte("wert→✓")))
	assert.Equal(t, "a�b", DecodePayload([]byte{'a', 0xff, 'b'}))
	assert.Equal(t, "�", DecodePayload([]byte{0xe2, 0x86}))

	// every invalid sequence gets its own replacement character
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"adjacent invalid bytes", []byte{'a', 0xff, 0xfe, 'b'}, "a��b"},
		{"continuation bytes", []byte{0x80, 0x80, 0x80}, "���"},
		{"truncated then ascii", []byte{0xf0, 0x9f, 0x98, 'x'}, "�x"},
		{"two truncated sequences", []byte{0xe2, 0x86, 0xe2, 0x86}, "��"},
		{"overlong", []byte{0xc0, 0xaf}, "��"},
		{"bad second byte of E0", []byte{0xe0, 0x80, 'x'}, "��x"},
		{"surrogate", []byte{0xed, 0xa0, 0x80}, "���"},
		{"above U+10FFFF", []byte{0xf4, 0x90, 0x80, 0x80}, "����"},
		{"valid around invalid", []byte("wert\xff→✓"), "wert�→✓"},
		{"encoded replacement character", []byte("\uFFFD\xff"), "��"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodePayload(tt.payload)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func TestDispose(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	_, err := k.Set(ctx, "test", "1")
	require.NoError(t, err)

	require.NoError(t, k.Dispose(ctx))

	_, err = k.Get(ctx, "test")
	assert.ErrorIs(t, err, common.ErrConnectionClosed)
	_, err = k.SendMessage(ctx, "GET test")
	assert.ErrorIs(t, err, common.ErrConnectionClosed)

	err = k.Dispose(ctx)
	assert.ErrorIs(t, err, common.ErrDisposeFailed)
	assert.ErrorIs(t, err, common.ErrConnectionClosed)
}

func TestDisposeEmptyAck(t *testing.T) {
	srv := startHandlerServer(t, func(request string) (string, bool) {
		return "", true
	})
	k := dial(t, srv)

	// any frame counts as the acknowledgement, even an empty one
	require.NoError(t, k.Dispose(context.Background()))
}

func TestDialRefused(t *testing.T) {
	srv := testserver.New()
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	port := srv.Port()
	require.NoError(t, srv.Close())

	_, err := Dial(context.Background(), "127.0.0.1", port)
	assert.ErrorIs(t, err, common.ErrConnectFailed)
}

func TestDialInvalidAddress(t *testing.T) {
	_, err := Dial(context.Background(), "999.0.0.1", 7667)
	assert.ErrorIs(t, err, common.ErrInvalidAddress)
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

func TestConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	k := dial(t, startServer(t))

	const goroutines = 16
	const keys = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				key := fmt.Sprintf("key-%d-%d", g, i)
				value := fmt.Sprintf("value-%d-%d", g, i)

				if _, err := k.Set(ctx, key, value); err != nil {
					t.Errorf("Set %s failed: %v", key, err)
					return
				}
				got, err := k.Get(ctx, key)
				if err != nil {
					t.Errorf("Get %s failed: %v", key, err)
					return
				}
				if got != value {
					t.Errorf("Get %s: expected %q, got %q", key, value, got)
					return
				}
				if _, err := k.Delete(ctx, key); err != nil {
					t.Errorf("Delete %s failed: %v", key, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}
