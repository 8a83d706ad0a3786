package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Transport configuration structs
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes. Zero keeps the operating system defaults.
type SocketConf struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// TCPConf holds the options applied to tcp sockets
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // negative keeps the operating system default
}

// ClientTransportConfig configures how connections to members are established
type ClientTransportConfig struct {
	// ConnectTimeoutSecond bounds a single dial attempt
	ConnectTimeoutSecond int
	// DialRetries is the number of additional dial attempts after a failed one
	DialRetries int
	// MaxFrameSize is the largest frame payload accepted from a member
	MaxFrameSize int

	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters of a grid client
type ClientConfig struct {
	// Endpoints of the cluster members, the first reachable one is used
	Endpoints []string
	// TimeoutSecond bounds the wait for a response, zero waits forever
	TimeoutSecond int
	// LogLevel of all loggers
	LogLevel string
	// ClientType is the 3 byte tag sent in the connection preamble
	ClientType string
	// PartitionCount is the number of partitions keys are hashed onto
	PartitionCount int32

	Transport ClientTransportConfig
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

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Client Type", c.ClientType)
	addField("Partition Count", strconv.Itoa(int(c.PartitionCount)))
	addField("Log Level", c.LogLevel)

	// Transport
	addSection("Transport")
	addField("Connect Timeout", fmt.Sprintf("%d sec", c.Transport.ConnectTimeoutSecond))
	addField("Dial Retries", strconv.Itoa(c.Transport.DialRetries))
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.Transport.MaxFrameSize))
	addField("Read Buffer Size", bufferSize(c.Transport.ReadBufferSize))
	addField("Write Buffer Size", bufferSize(c.Transport.WriteBufferSize))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

func bufferSize(size int) string {
	if size <= 0 {
		return "system default"
	}
	return fmt.Sprintf("%d bytes", size)
}
