// Package tcp implements the TCP transport of the stry RPC system. It provides
// TCP implementations of the base package's connector interfaces, all
// connection handling is inherited from the base package.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both connectors apply the configured TCPConf and SocketConf to every
// connection: Nagle's algorithm, keep-alive, linger and the kernel socket
// buffer sizes. TCP is the default transport of stry.
package tcp
