package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Payload limits
// --------------------------------------------------------------------------

const (
	// MinMaxPayload and MaxMaxPayload bound the configurable payload limit
	MinMaxPayload = 4 * 1024
	MaxMaxPayload = 32 * 1024

	// DefaultMaxPayload is used when no payload limit is configured
	DefaultMaxPayload = 16 * 1024
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes applied to every connection
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds the TCP specific connection options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the listener settings of the server
type ServerTransportConfig struct {
	// Endpoint is the address (tcp) or socket path (unix) to listen on
	Endpoint string
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the stry server.
type ServerConfig struct {
	Transport ServerTransportConfig

	// MaxPayload is the largest compress payload accepted (in bytes)
	MaxPayload int

	// MetricsEndpoint is the address of the prometheus endpoint, empty disables it
	MetricsEndpoint string

	// ReportIntervalSecond is the interval of the usage report in the log, 0 disables it
	ReportIntervalSecond int

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for values the server cannot run with
func (c *ServerConfig) Validate() error {
	if c.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint configured")
	}
	if c.MaxPayload < MinMaxPayload || c.MaxPayload >= MaxMaxPayload {
		return fmt.Errorf("max payload %d out of range [%d, %d)", c.MaxPayload, MinMaxPayload, MaxMaxPayload)
	}
	if c.ReportIntervalSecond < 0 {
		return fmt.Errorf("report interval must not be negative")
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Transport settings
	addSection("Transport")
	addField("Endpoint", c.Transport.Endpoint)
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))

	// Protocol settings
	addSection("Protocol")
	addField("Max Payload", fmt.Sprintf("%d bytes", c.MaxPayload))

	// Observability
	addSection("Observability")
	if c.MetricsEndpoint == "" {
		addField("Metrics Endpoint", "disabled")
	} else {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}
	if c.ReportIntervalSecond == 0 {
		addField("Report Interval", "disabled")
	} else {
		addField("Report Interval", fmt.Sprintf("%d sec", c.ReportIntervalSecond))
	}
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the connection settings of a client
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters for a stry client
type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// Validate checks the client configuration
func (c *ClientConfig) Validate() error {
	if len(c.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	for _, endpoint := range c.Transport.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			return fmt.Errorf("empty endpoint in %v", c.Transport.Endpoints)
		}
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
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
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
