package common

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// --------------------------------------------------------------------------
// Command Keywords
// --------------------------------------------------------------------------

const (
	CmdSet    = "SET"
	CmdGet    = "GET"
	CmdDelete = "DEL"
	CmdExIn   = "EXIN"
	CmdClose  = "CLOSE"

	// OptExpire separates the value from the expiration of a SET command
	OptExpire = "EX"
)

// --------------------------------------------------------------------------
// Response Sentinels
// --------------------------------------------------------------------------

const (
	// RespOk is the answer of a successful SET
	RespOk = "ok"
	// RespNull is the answer of a GET for an absent key
	RespNull = "null"
)

// --------------------------------------------------------------------------
// Command Factory Functions
// --------------------------------------------------------------------------

// NewSetCommand creates a SET command without expiration
func NewSetCommand(key, value string) string {
	return CmdSet + " " + key + " " + value
}

// NewSetExCommand creates a SET command that expires after the given seconds
func NewSetExCommand(key, value string, expireIn uint64) string {
	return NewSetCommand(key, value) + " " + OptExpire + " " + strconv.FormatUint(expireIn, 10)
}

// NewGetCommand creates a GET command
func NewGetCommand(key string) string {
	return CmdGet + " " + key
}

// NewDeleteCommand creates a DEL command
func NewDeleteCommand(key string) string {
	return CmdDelete + " " + key
}

// NewExpiresInCommand creates an EXIN command
func NewExpiresInCommand(key string) string {
	return CmdExIn + " " + key
}

// ValidateToken checks that s can be sent as a single command token.
// The protocol has no escaping, so empty tokens and whitespace would change the command.
func ValidateToken(name, s string) error {
	if s == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %s %q contains whitespace", ErrInvalidArgument, name, s)
	}
	return nil
}

// --------------------------------------------------------------------------
// Command Parsing (used by the test server)
// --------------------------------------------------------------------------

// Command is the parsed form of a command string
type Command struct {
	Name      string
	Key       string
	Value     string
	ExpireIn  uint64 // only valid if HasExpire
	HasExpire bool
}

// ParseCommand splits a command string into its tokens and validates the arity
func ParseCommand(s string) (Command, error) {
	tokens := strings.Split(s, " ")
	cmd := Command{Name: tokens[0]}

	switch cmd.Name {
	case CmdSet:
		switch {
		case len(tokens) == 3:
		case len(tokens) == 5 && tokens[3] == OptExpire:
			expireIn, err := strconv.ParseUint(tokens[4], 10, 64)
			if err != nil {
				return cmd, fmt.Errorf("invalid expiration %q: %v", tokens[4], err)
			}
			cmd.ExpireIn = expireIn
			cmd.HasExpire = true
		default:
			return cmd, fmt.Errorf("usage: SET <key> <value> [EX <seconds>]")
		}
		cmd.Key, cmd.Value = tokens[1], tokens[2]
	case CmdGet, CmdDelete, CmdExIn:
		if len(tokens) != 2 {
			return cmd, fmt.Errorf("usage: %s <key>", cmd.Name)
		}
		cmd.Key = tokens[1]
	case CmdClose:
		if len(tokens) != 1 {
			return cmd, fmt.Errorf("usage: CLOSE")
		}
	default:
		return cmd, fmt.Errorf("unknown command %q", cmd.Name)
	}

	return cmd, nil
}
