package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/stry/rpc/codec"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// ErrNoConnection is returned by Send when the transport holds no connection
var ErrNoConnection = errors.New("no active connections available")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint, giving up after timeout (0 = no timeout)
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection. The protocol has no
// request ids, so a connection carries exactly one exchange at a time.
type clientConnection struct {
	conn     net.Conn
	endpoint string
	connMu   sync.Mutex // Held for a whole request/response exchange
	parent   *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64      // Atomic counter for Round Robin
	stopping      atomic.Bool // Signals shutdown
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	// Store the config
	t.config = config
	t.stopping.Store(false)

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := 1
	if config.Transport.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.Transport.ConnectionsPerEndpoint
	}

	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	// Initialize client connections
	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint: endpoint,
				parent:   t,
			}

			// Establish the initial connection using reconnect
			clientConn.connMu.Lock()
			err := clientConn.reconnect()
			clientConn.connMu.Unlock()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}

			connections = append(connections, clientConn)
			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	// Check if we have at least one connection
	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(req common.Request) (common.Response, error) {
	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once, and up to maxRetries times
	maxRetries := t.config.Transport.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	bo := newBackoff()

	for i := 0; i < maxRetries; i++ {
		if t.stopping.Load() {
			return common.Response{}, fmt.Errorf("transport is closed")
		}

		conn := t.getNextConnection()
		if conn == nil {
			return common.Response{}, ErrNoConnection
		}

		// Try with this connection
		resp, err := conn.exchange(req)
		if err == nil {
			return resp, nil
		}

		// a request that can never be encoded is not retried
		if errors.Is(err, codec.ErrPayloadTooLarge) {
			return common.Response{}, err
		}

		lastErr = err
		Logger.Debugf("Request %s attempt %d/%d failed: %v", req.Code, i+1, maxRetries, err)

		if i < maxRetries-1 {
			time.Sleep(bo.next())
		}
	}

	// All attempts failed
	return common.Response{}, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}

	// Simple Round Robin algorithm
	var index uint64
	if len(t.connections) == 1 {
		// optimize for single connection
		index = 0
	} else {
		index = atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	}
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()
	}
}

// exchange writes req and reads the response. On any error the connection
// is dropped, so a late response can never be read by the next exchange.
func (c *clientConnection) exchange(req common.Request) (common.Response, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		if c.parent.stopping.Load() {
			return common.Response{}, fmt.Errorf("connection is closed")
		}
		if err := c.reconnect(); err != nil {
			return common.Response{}, err
		}
	}

	if timeout := c.parent.timeout(); timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			c.drop()
			return common.Response{}, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if err := codec.WriteRequest(c.conn, req); err != nil {
		if !errors.Is(err, codec.ErrPayloadTooLarge) {
			c.drop()
		}
		return common.Response{}, fmt.Errorf("error writing request: %w", err)
	}

	resp, err := codec.ReadResponse(c.conn)
	if err != nil {
		c.drop()
		return common.Response{}, fmt.Errorf("error reading response: %w", err)
	}
	return resp, nil
}

// reconnect establishes or restores a connection to the endpoint.
// The caller must hold connMu.
func (c *clientConnection) reconnect() error {
	// Close the old connection if it exists
	c.drop()

	// Connect to the endpoint
	conn, err := c.parent.connector.Connect(c.endpoint, c.parent.timeout())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.conn = conn
	return nil
}

// drop closes the connection, the next exchange reconnects.
// The caller must hold connMu.
func (c *clientConnection) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}
