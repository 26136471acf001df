// Package unix implements a transport layer for the stry RPC system using Unix
// domain sockets. It provides cheap communication for clients running on the
// same machine as the server.
//
// This package extends the base transport layer with Unix socket-specific connectors
// while inheriting connection pooling, retries and reconnects from the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners, a stale socket file at the
//     endpoint path is removed first
//
// Only the socket buffer sizes of SocketConf apply to unix connections, the
// TCP options are ignored.
package unix
