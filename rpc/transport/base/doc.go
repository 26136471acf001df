// Package base provides the foundation of the stry transport layers, implementing
// the connection handling independent of the specific network protocol (TCP, Unix
// sockets, etc.). It is extended with protocol-specific connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Connection pooling with round-robin selection on the client
//   - Retries with exponential backoff and reconnects on connection errors
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Core client implementation that manages multiple connections
//     with round-robin load balancing. Supports multiple connections per endpoint
//     for improved throughput.
//
//   - serverTransport: Core server implementation that accepts connections and
//     hands every connection to the registered handler on its own goroutine.
//
// Request Correlation:
//
//	The STRY protocol carries no request ids, responses are matched to requests by
//	their order on the connection. The client therefore holds a connection for a
//	whole request/response exchange. Concurrency comes from multiple connections
//	(ConnectionsPerEndpoint), not from pipelining. A failed exchange closes its
//	connection so that a late response is never matched to the next request.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport uses atomic operations
//	and mutexes to ensure concurrent access safety, while the server creates a
//	dedicated goroutine for each connection.
package base
