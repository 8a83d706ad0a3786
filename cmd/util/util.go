package util

import (
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/ValentinKolb/dGrid/rpc/transport/tcp"
	"github.com/ValentinKolb/dGrid/rpc/transport/unix"
	"github.com/ValentinKolb/dGrid/rpc/transport/websocket"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
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

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds for a single operation (0 waits forever)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warning", WrapString("The log level of the client (debug, info, warning, error)"))

	key = "client-type"
	cmd.PersistentFlags().String(key, "GOC", WrapString("The 3 character client type sent in the connection preamble"))

	key = "partition-count"
	cmd.PersistentFlags().Int32(key, 271, WrapString("The number of partitions keys are hashed onto (0 disables partitioning)"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:5701", WrapString("The addresses of the cluster members as a comma-separated list. The first reachable endpoint is used"))

	key = "transport-connect-timeout"
	cmd.PersistentFlags().Int(key, 5, WrapString("The timeout in seconds of a single dial attempt"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry a failed dial"))

	key = "transport-max-frame-size"
	cmd.PersistentFlags().Int(key, 16*1024, WrapString("The largest frame accepted from a member (in KB)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the system default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the system default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for TCPConf)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, only for TCPConf)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time for the transport (in seconds, only for TCPConf, negative keeps the system default)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dgrid")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		Endpoints:      strings.Split(viper.GetString("transport-endpoints"), ","),
		TimeoutSecond:  viper.GetInt("timeout"),
		LogLevel:       viper.GetString("log-level"),
		ClientType:     viper.GetString("client-type"),
		PartitionCount: viper.GetInt32("partition-count"),
		Transport: common.ClientTransportConfig{
			ConnectTimeoutSecond: viper.GetInt("transport-connect-timeout"),
			DialRetries:          viper.GetInt("transport-retries"),
			MaxFrameSize:         viper.GetInt("transport-max-frame-size") * 1024,
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	return conf
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	case "proto":
		return serializer.NewProtoSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates transport based on configuration
func GetTransport(config common.ClientConfig) (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(config), nil
	case "unix":
		return unix.NewUnixClientTransport(config), nil
	case "ws":
		return websocket.NewWSClientTransport(config), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// SetupClient binds the flags of cmd and creates the configuration, serializer and transport of a client.
// The loggers are initialized with the configured log level.
func SetupClient(cmd *cobra.Command) (*common.ClientConfig, serializer.IRPCSerializer, transport.IRPCClientTransport, error) {
	// Bind command flags to viper
	if err := BindCommandFlags(cmd); err != nil {
		return nil, nil, nil, err
	}

	config := GetClientConfig()
	common.InitLoggers(config.LogLevel)

	s, err := GetSerializer()
	if err != nil {
		return nil, nil, nil, err
	}

	t, err := GetTransport(*config)
	if err != nil {
		return nil, nil, nil, err
	}
	return config, s, t, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
