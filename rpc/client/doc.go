// Package client implements the RPC client of the stry compression service.
// It wraps a transport.IRPCClientTransport and turns the four request types into
// typed method calls.
//
// The package focuses on:
//   - Typed access to Ping, Compress, GetStats and ResetStats
//   - Conversion of non-Ok response statuses into errors
//
// Key Components:
//
//   - NewClient: Factory function that connects a transport and returns an
//     IStryClient.
//
//   - StatusError: Error returned for every response with a status other than
//     Ok. Use errors.As to inspect the status.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:7070"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	c, _ := client.NewClient(config, tcp.NewTCPClientTransport())
//	defer c.Close()
//
//	out, _ := c.Compress([]byte("aaabbbbc")) // "3a4bc"
//
//	var statusErr *client.StatusError
//	if _, err := c.Compress([]byte("Hello")); errors.As(err, &statusErr) {
//	  fmt.Println(statusErr.Status) // nonLowercase
//	}
//
// Thread Safety:
//
//	A client can be used from multiple goroutines. Concurrent requests are spread
//	over the transport's connections, each connection carries one request at a time.
package client
