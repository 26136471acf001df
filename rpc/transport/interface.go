package transport

import (
	"github.com/ValentinKolb/stry/rpc/common"
	"net"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ConnHandleFunc is called by a server transport for every accepted connection.
// It runs on its own goroutine and owns conn until it returns, the transport
// closes conn afterwards.
type ConnHandleFunc func(conn net.Conn)

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler for accepted connections.
	// It must be called before Listen.
	RegisterHandler(handler ConnHandleFunc)
	// Listen binds the configured endpoint and accepts connections until Close
	// is called. It returns nil after Close.
	Listen(config common.ServerConfig) error
	// Addr returns the bound address, or nil while the transport is not listening
	Addr() net.Addr
	// Close stops accepting connections. Connections already handed to the
	// handler are not closed.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends one request frame and waits for the matching response frame
	Send(req common.Request) (common.Response, error)
	// Close closes the transport connection
	Close() error
}
