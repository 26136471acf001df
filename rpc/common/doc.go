// Package common provides core data structures and utilities shared across
// the stry compression service. It defines the wire level types,
// configuration structures, and the logging setup used by other packages.
//
// The package focuses on:
//   - Protocol constants (magic marker, header size, request and status codes)
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - Request / Response: The decoded form of a request frame and the response
//     the server sends for it. A request carries a payload only for compress
//     requests. Exactly one response is produced per parsed header.
//
//   - RequestCode / Status: Wire codes. Status values 33 to 37 are part of the
//     wire contract and must not change.
//
//   - ServerConfig: Configuration for the server, including transport options,
//     the payload limit, metrics endpoint and log level.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logging facade while providing consistent formatting across the application.
package common
