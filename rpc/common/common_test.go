package common

import (
	"errors"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestCommandBuilders(t *testing.T) {
	assert.Equal(t, "SET test 1", NewSetCommand("test", "1"))
	assert.Equal(t, "SET test 1 EX 20", NewSetExCommand("test", "1", 20))
	assert.Equal(t, "GET test", NewGetCommand("test"))
	assert.Equal(t, "DEL test", NewDeleteCommand("test"))
	assert.Equal(t, "EXIN test", NewExpiresInCommand("test"))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"SET test 1", Command{Name: CmdSet, Key: "test", Value: "1"}},
		{"SET test 1 EX 20", Command{Name: CmdSet, Key: "test", Value: "1", ExpireIn: 20, HasExpire: true}},
		{"GET test", Command{Name: CmdGet, Key: "test"}},
		{"DEL test", Command{Name: CmdDelete, Key: "test"}},
		{"EXIN test", Command{Name: CmdExIn, Key: "test"}},
		{"CLOSE", Command{Name: CmdClose}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandBuilt(t *testing.T) {
	cmd, err := ParseCommand(NewSetExCommand("key", "wert→✓", 7))
	require.NoError(t, err)
	assert.Equal(t, "key", cmd.Key)
	assert.Equal(t, "wert→✓", cmd.Value)
	assert.Equal(t, uint64(7), cmd.ExpireIn)
}

func TestParseCommandInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"set test 1",
		"SET test",
		"SET test 1 EX",
		"SET test 1 EX -1",
		"SET test 1 PX 20",
		"GET",
		"GET a b",
		"DEL",
		"EXIN a b",
		"CLOSE now",
		"PING",
	} {
		_, err := ParseCommand(input)
		assert.Error(t, err, "expected %q to be rejected", input)
	}
}

func TestValidateToken(t *testing.T) {
	assert.NoError(t, ValidateToken("key", "test"))
	assert.NoError(t, ValidateToken("key", "schlüssel→✓"))

	for _, s := range []string{"", " ", "a b", "a\tb", "a\nb", "a b"} {
		err := ValidateToken("key", s)
		assert.ErrorIs(t, err, ErrInvalidArgument, "expected %q to be rejected", s)
	}
}

func TestCommandError(t *testing.T) {
	var err error = &CommandError{Command: CmdGet, Key: "test", Response: RespNull, Err: ErrGetFailed}
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.ErrorIs(t, wrapped, ErrGetFailed)
	assert.NotErrorIs(t, wrapped, ErrSetFailed)
	assert.Contains(t, err.Error(), "GET test")
	assert.Contains(t, err.Error(), `"null"`)

	var cmdErr *CommandError
	require.True(t, errors.As(wrapped, &cmdErr))
	assert.Equal(t, "test", cmdErr.Key)
}

func TestIsFatal(t *testing.T) {
	fatal := []error{
		ErrConnectionClosed,
		ErrConnectionBroken,
		fmt.Errorf("%w: %w", ErrConnectionBroken, ErrTruncatedPayload),
		ErrTruncatedHeader,
		ErrProtocolViolation,
	}
	for _, err := range fatal {
		assert.True(t, IsFatal(err), "expected %v to be fatal", err)
	}

	recoverable := []error{
		nil,
		ErrInvalidArgument,
		&CommandError{Command: CmdDelete, Key: "test", Response: RespNull, Err: ErrDeleteFailed},
		ErrExpiresInFailed,
	}
	for _, err := range recoverable {
		assert.False(t, IsFatal(err), "expected %v to be recoverable", err)
	}

	assert.ErrorIs(t, ErrConnectionBroken, ErrConnectionClosed)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"Error":   logger.ERROR,
	}
	for input, want := range tests {
		got, err := ParseLogLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, InitLoggers("verbose"))
}

func TestClientConfig(t *testing.T) {
	config := NewClientConfig(EndpointFor("127.0.0.1", DefaultPort))

	assert.Equal(t, DefaultEndpoint, config.Endpoint)
	assert.True(t, config.Transport.TCPNoDelay)
	assert.Equal(t, -1, config.Transport.TCPLingerSec)
	assert.Zero(t, config.TimeoutSecond)

	out := config.String()
	assert.Contains(t, out, "CLIENT CONFIGURATION")
	assert.Contains(t, out, DefaultEndpoint)
	assert.Contains(t, out, "unlimited")
	assert.Contains(t, out, "os default")

	config.TimeoutSecond = 5
	config.Transport.MaxFrameSize = 1024
	out = config.String()
	assert.True(t, strings.Contains(out, "5 sec"), out)
	assert.Contains(t, out, "1024 bytes")
}
