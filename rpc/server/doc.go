// Package server implements the stry RPC server. It serves every connection
// accepted by a transport with its own session that decodes request frames,
// dispatches them and writes the responses.
//
// The package focuses on:
//   - The per connection request/response loop (session)
//   - Dispatching requests to compression and usage statistics (IRequestHandler)
//   - Publishing the per connection byte accounting to the shared stats
//   - Observability: a prometheus endpoint and a periodic usage report in the log
//
// Key Components:
//
//   - NewRPCServer: Factory function creating a configured server on top of a
//     transport.IRPCServerTransport.
//
//   - IRequestHandler: Interface for the request handlers, implemented by
//     NewStryHandler for Ping, Compress, GetStats and ResetStats.
//
//   - session: The loop of one connection. It owns the read buffer, the decoder
//     and the not yet merged counters of the connection.
//
// Session Loop:
//
//	decode ──(nothing ready)──> read from the connection (suspension point 1)
//	   │
//	dispatch ──> account sent bytes ──> merge counters ──> write (suspension point 2)
//
// Every byte the decoder consumes is counted as received right away, including
// skipped garbage and rejected frames. The size of a response is counted as sent
// before it is written. The counters of a transaction are merged into the global
// stats between the two suspension points, so the stats lock is never held while
// waiting on the network. A GetStats request sees the global counters plus the
// unmerged counters of its own connection, which at that point are the bytes of
// the GetStats request itself and anything skipped right before it.
//
// ResetStats zeroes the global counters and drops the unmerged counters of the
// calling connection, so the reset request is not counted in the new period but
// its response is.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Transport:  common.ServerTransportConfig{Endpoint: "0.0.0.0:7070"},
//	  MaxPayload: common.DefaultMaxPayload,
//	  LogLevel:   "info",
//	}
//
//	s, err := server.NewRPCServer(config, tcp.NewTCPServerTransport())
//	if err != nil {
//	  log.Fatalf("Invalid config: %v", err)
//	}
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Metrics:
//
//	If MetricsEndpoint is set, the server serves prometheus metrics on /metrics
//	(stry_connections_total, stry_sessions_active, stry_responses_total by request
//	and status, byte counters and stry_compress_duration_seconds). These counters
//	are monotonic and ignore ResetStats. If ReportIntervalSecond is set, request
//	rates and payload distributions are logged in that interval.
package server
