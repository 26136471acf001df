package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/transport"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// acceptRetryDelay is the pause after a failed Accept before trying again
const acceptRetryDelay = 5 * time.Millisecond

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ConnHandleFunc
	config    common.ServerConfig

	listenerMu sync.Mutex
	listener   net.Listener
	closed     atomic.Bool

	// handlers tracks the running connection goroutines
	handlers sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ConnHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no connection handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	t.listenerMu.Lock()
	if t.closed.Load() {
		t.listenerMu.Unlock()
		_ = listener.Close()
		return nil
	}
	t.listener = listener
	t.listenerMu.Unlock()

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				break
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(acceptRetryDelay)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		// Handle the connection in a goroutine
		t.handlers.Add(1)
		go t.handleConnection(conn)
	}

	// Wait for the handlers, the owner of the transport is responsible for
	// ending them (e.g. by closing their connections)
	t.handlers.Wait()
	Logger.Infof("Stopped %s server", t.connector.GetName())
	return nil
}

func (t *serverTransport) Addr() net.Addr {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()

	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) Close() error {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()

	if t.closed.Swap(true) || t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection runs the handler for one connection and closes it afterwards
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer t.handlers.Done()
	defer conn.Close()

	t.handler(conn)
}
