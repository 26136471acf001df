package client_test

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/stry/lib/compress"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/client"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/server"
	"github.com/ValentinKolb/stry/rpc/transport"
	"github.com/ValentinKolb/stry/rpc/transport/tcp"
	"github.com/ValentinKolb/stry/rpc/transport/unix"
	"github.com/stretchr/testify/require"
)

// startServer runs a server on endpoint and returns the bound address
func startServer(t *testing.T, endpoint string, serverTransport transport.IRPCServerTransport) string {
	t.Helper()

	config := common.ServerConfig{
		Transport: common.ServerTransportConfig{
			Endpoint: endpoint,
			TCPConf:  common.TCPConf{TCPLingerSec: -1},
		},
		MaxPayload: common.DefaultMaxPayload,
		LogLevel:   "error",
	}

	s, err := server.NewRPCServer(config, serverTransport)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, 5*time.Second, time.Millisecond)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
		require.NoError(t, <-done)
	})
	return s.Addr().String()
}

func newClient(t *testing.T, endpoint string, clientTransport transport.IRPCClientTransport, conns int) client.IStryClient {
	t.Helper()

	c, err := client.NewClient(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             2,
			ConnectionsPerEndpoint: conns,
			TCPConf:                common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}, clientTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientTCP(t *testing.T) {
	addr := startServer(t, "127.0.0.1:0", tcp.NewTCPServerTransport())
	c := newClient(t, addr, tcp.NewTCPClientTransport(), 1)
	testClient(t, c)
}

func TestClientUnix(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "stry.sock")
	startServer(t, socket, unix.NewUnixServerTransport())
	c := newClient(t, socket, unix.NewUnixClientTransport(), 1)
	testClient(t, c)
}

func testClient(t *testing.T, c client.IStryClient) {
	require.NoError(t, c.Ping())
	require.NoError(t, c.ResetStats())

	out, err := c.Compress([]byte("aaabbbbc"))
	require.NoError(t, err)
	require.Equal(t, "3a4bc", string(out))

	expanded, err := compress.Expand(out)
	require.NoError(t, err)
	require.Equal(t, "aaabbbbc", string(expanded))

	ws, err := c.GetStats()
	require.NoError(t, err)
	// reset response, compress frame and response, get stats request
	require.Equal(t, stats.WireStats{BytesReceived: 15 + 7, BytesSent: 7 + 12, Ratio: 62}, ws)

	testCases := []struct {
		input  string
		status common.Status
	}{
		{"", common.StatusMissingPayload},
		{"X Æ A-12", common.StatusNonAscii},
		{"abc1", common.StatusNonAlphabetic},
		{"Hello", common.StatusNonLowercase},
	}
	for _, tc := range testCases {
		_, err := c.Compress([]byte(tc.input))
		var statusErr *client.StatusError
		require.True(t, errors.As(err, &statusErr), "input %q: %v", tc.input, err)
		require.Equal(t, tc.status, statusErr.Status)
		require.Equal(t, common.ReqCompress, statusErr.Request)
	}

	// the client still works after rejected requests
	require.NoError(t, c.Ping())
}

func TestClientConcurrentRequests(t *testing.T) {
	addr := startServer(t, "127.0.0.1:0", tcp.NewTCPServerTransport())
	c := newClient(t, addr, tcp.NewTCPClientTransport(), 4)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := make([]byte, 3+i)
			for j := range text {
				text[j] = 'q'
			}
			for k := 0; k < 20; k++ {
				out, err := c.Compress(text)
				if err != nil {
					t.Errorf("compress failed: %v", err)
					return
				}
				expanded, err := compress.Expand(out)
				if err != nil || string(expanded) != string(text) {
					t.Errorf("round trip of %q failed: %q %v", text, out, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestClientConnectFails(t *testing.T) {
	_, err := client.NewClient(common.ClientConfig{
		TimeoutSecond: 1,
		Transport: common.ClientTransportConfig{
			Endpoints: []string{filepath.Join(t.TempDir(), "missing.sock")},
		},
	}, unix.NewUnixClientTransport())
	require.Error(t, err)
}
