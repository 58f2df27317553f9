package client

import (
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/ValentinKolb/keyz/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
	"unicode/utf8"
)

var (
	Logger = logger.GetLogger(common.LoggerClient)
)

// DecodePayload decodes a response payload as utf-8, decoding never fails.
// Every invalid byte sequence is replaced with one U+FFFD. An invalid sequence is
// the longest prefix of a valid encoding (or a single byte if there is none), so
// "a\xff\xfeb" becomes "a\uFFFD\uFFFDb" while a truncated "\xe2\x86" becomes a single U+FFFD.
func DecodePayload(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}

	var sb strings.Builder
	sb.Grow(len(payload) + 2*utf8.UTFMax)
	for len(payload) > 0 {
		r, size := utf8.DecodeRune(payload)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			payload = payload[invalidSequenceLen(payload):]
			continue
		}
		sb.Write(payload[:size])
		payload = payload[size:]
	}
	return sb.String()
}

// invalidSequenceLen returns the length of the invalid sequence at the start of p:
// the lead byte plus all following bytes that are still allowed at their position.
func invalidSequenceLen(p []byte) int {
	// allowed range of the second byte, later bytes are always 0x80..0xBF
	lo, hi := byte(0x80), byte(0xBF)

	var n int
	switch b := p[0]; {
	case b >= 0xC2 && b <= 0xDF:
		n = 2
	case b == 0xE0:
		n, lo = 3, 0xA0
	case b == 0xED:
		n, hi = 3, 0x9F // no surrogates
	case b >= 0xE1 && b <= 0xEF:
		n = 3
	case b == 0xF0:
		n, lo = 4, 0x90
	case b >= 0xF1 && b <= 0xF3:
		n = 4
	case b == 0xF4:
		n, hi = 4, 0x8F // nothing above U+10FFFF
	default:
		return 1
	}

	i := 1
	for ; i < n && i < len(p); i++ {
		if i > 1 {
			lo, hi = 0x80, 0xBF
		}
		if p[i] < lo || p[i] > hi {
			break
		}
	}
	return i
}

// exchange is the request/response cycle of a single message.
// It must be called inside an exclusive section of the transport.
//
// CLOSE is written without reading a response, the message itself is returned.
// The acknowledgement is consumed by Dispose.
func exchange(conn transport.FrameConn, message string) (string, error) {
	if err := conn.WriteFrame([]byte(message)); err != nil {
		return "", err
	}

	if message == common.CmdClose {
		return message, nil
	}

	payload, err := conn.ReadFrame()
	if err != nil {
		return "", err
	}
	return DecodePayload(payload), nil
}

// commandError creates the error for a failure sentinel answered by the server
func commandError(command, key, response string, err error) error {
	return &common.CommandError{
		Command:  command,
		Key:      key,
		Response: response,
		Err:      err,
	}
}

// validate checks all tokens of a command before it is sent
func validate(tokens ...string) error {
	for i := 0; i+1 < len(tokens); i += 2 {
		if err := common.ValidateToken(tokens[i], tokens[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// protocolViolation wraps an unexpected response
func protocolViolation(command, response string, cause error) error {
	return fmt.Errorf("%w: unexpected response %q to %s: %v", common.ErrProtocolViolation, response, command, cause)
}
