package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the port a keyz server listens on unless configured otherwise
	DefaultPort uint16 = 7667

	// DefaultEndpoint is the endpoint used by the cli when nothing is configured
	DefaultEndpoint = "127.0.0.1:7667"
)

// --------------------------------------------------------------------------
// Transport configuration structs
// --------------------------------------------------------------------------

// SocketConf holds the socket level buffer sizes (in bytes, 0 keeps the os default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds the tcp specific options applied after the connection is established
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // negative values keep the os default
}

// ClientTransportConfig bundles everything the transport layer needs besides the endpoint
type ClientTransportConfig struct {
	// MaxFrameSize limits the payload size of a single response frame (0 = unlimited)
	MaxFrameSize uint32
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	// Endpoint in the form host:port, host is a hostname or a dotted-quad ipv4 address
	Endpoint string
	// TimeoutSecond is the read/write deadline of a single request (0 = no deadline).
	// A deadline that fires in the middle of a frame breaks the connection.
	TimeoutSecond int
	// ConnectTimeoutSecond bounds the dial (0 = no timeout)
	ConnectTimeoutSecond int
	// LogLevel is one of debug, info, warn, error
	LogLevel  string
	Transport ClientTransportConfig
}

// NewClientConfig returns a configuration for the given endpoint with sensible defaults
func NewClientConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint: endpoint,
		LogLevel: "info",
		Transport: ClientTransportConfig{
			TCPConf: TCPConf{
				TCPNoDelay:   true,
				TCPLingerSec: -1,
			},
		},
	}
}

// EndpointFor joins host and port into the endpoint format accepted by the transports
func EndpointFor(host string, port uint16) string {
	return host + ":" + strconv.FormatUint(uint64(port), 10)
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	optional := func(v int, unit string) string {
		if v <= 0 {
			return "disabled"
		}
		return fmt.Sprintf("%d %s", v, unit)
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", optional(c.TimeoutSecond, "sec"))
	addField("Connect Timeout", optional(c.ConnectTimeoutSecond, "sec"))
	addField("Log Level", c.LogLevel)

	// Transport
	addSection("Transport")
	if c.Transport.MaxFrameSize == 0 {
		addField("Max Frame Size", "unlimited")
	} else {
		addField("Max Frame Size", fmt.Sprintf("%d bytes", c.Transport.MaxFrameSize))
	}
	addField("Write Buffer", optional(c.Transport.WriteBufferSize, "bytes"))
	addField("Read Buffer", optional(c.Transport.ReadBufferSize, "bytes"))
	addField("TCP NoDelay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP KeepAlive", optional(c.Transport.TCPKeepAliveSec, "sec"))
	if c.Transport.TCPLingerSec < 0 {
		addField("TCP Linger", "os default")
	} else {
		addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	}

	return sb.String()
}
