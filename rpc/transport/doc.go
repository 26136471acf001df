// Package transport defines the interfaces between the stry RPC layer and the
// network. A server transport accepts connections and hands each of them to a
// handler, a client transport exchanges request and response frames.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Enabling multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCServerTransport: Interface for server-side transports. The transport owns
//     the listener, the handler owns each accepted connection.
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - ConnHandleFunc: Function type for the per connection callback.
//
// Framing is not part of this package. Server handlers decode the byte stream
// themselves (see package codec), which keeps the transport free of any
// knowledge about frame boundaries.
package transport
