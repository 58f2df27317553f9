package util

import (
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by the cli
	EnvPrefix = "keyz"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds the connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, common.DefaultEndpoint, WrapString("The address of the keyz server (host:port, host is a hostname or an ipv4 address)"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("The read/write timeout of a single request in seconds (0 = no timeout). A timeout closes the connection"))

	key = "connect-timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout for establishing the connection in seconds (0 = no timeout)"))

	key = "max-frame-size"
	cmd.PersistentFlags().Uint32(key, 0, WrapString("The maximum size of a response in bytes (0 = unlimited)"))

	key = "write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 = os default)"))

	key = "read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 = os default)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval in seconds (0 = disabled)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time in seconds (negative = os default)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The log level (debug, info, warn, error)"))

	key = "print-metrics"
	cmd.PersistentFlags().Bool(key, false, WrapString("Print the client metrics in prometheus format after the command finished"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		Endpoint:             viper.GetString("endpoint"),
		TimeoutSecond:        viper.GetInt("timeout"),
		ConnectTimeoutSecond: viper.GetInt("connect-timeout"),
		LogLevel:             viper.GetString("log-level"),
		Transport: common.ClientTransportConfig{
			MaxFrameSize: viper.GetUint32("max-frame-size"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("tcp-linger"),
				TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			},
		},
	}

	return conf
}

// InitLogging sets the level of all keyz loggers from the configuration
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// PrintMetrics writes the client metrics to w if --print-metrics is set
func PrintMetrics(w io.Writer) {
	if viper.GetBool("print-metrics") {
		metrics.WritePrometheus(w, false)
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
