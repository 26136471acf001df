// Package rpc contains the network side of stry: the STRY wire protocol, the
// server that answers it and the client that speaks it.
//
// The package is organized into several subpackages:
//
//   - common: Protocol constants, request and response types, configuration
//     structures and logging.
//
//   - codec: The frame codec. A resumable decoder that finds frames in an
//     arbitrary byte stream and judges them, and the encoders for both directions.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets).
//
//   - server: The RPC server running one session per connection and dispatching
//     requests to the compressor and the usage statistics.
//
//   - client: The RPC client with typed methods for the four request types.
package rpc
