package server

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/codec"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/transport/tcp"
	"github.com/stretchr/testify/require"
)

const h = codec.HeaderLen

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func testConfig() common.ServerConfig {
	return common.ServerConfig{
		Transport: common.ServerTransportConfig{
			Endpoint: "127.0.0.1:0",
			TCPConf:  common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
		MaxPayload: common.DefaultMaxPayload,
		LogLevel:   "error",
	}
}

// startServer runs a server until the end of the test
func startServer(t *testing.T, config common.ServerConfig) *rpcServer {
	t.Helper()

	s, err := NewRPCServer(config, tcp.NewTCPServerTransport())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	require.Eventually(t, func() bool { return s.Addr() != nil }, 5*time.Second, time.Millisecond)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})
	return s
}

type testConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, s *rpcServer) *testConn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))
	return &testConn{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testConn) write(b []byte) {
	c.t.Helper()
	_, err := c.conn.Write(b)
	require.NoError(c.t, err)
}

func (c *testConn) read() common.Response {
	c.t.Helper()
	resp, err := codec.ReadResponse(c.r)
	require.NoError(c.t, err)
	return resp
}

func (c *testConn) call(req common.Request) common.Response {
	c.t.Helper()
	c.write(codec.AppendRequest(nil, req))
	return c.read()
}

func (c *testConn) stats() stats.WireStats {
	c.t.Helper()
	resp := c.call(common.NewGetStatsRequest())
	require.Equal(c.t, common.StatusOk, resp.Status)
	ws, err := stats.ParseSnapshot(resp.Payload)
	require.NoError(c.t, err)
	return ws
}

func compressReq(payload string) common.Request {
	return common.NewCompressRequest([]byte(payload))
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestNewRPCServerRejectsConfig(t *testing.T) {
	config := testConfig()
	config.MaxPayload = 1024
	_, err := NewRPCServer(config, tcp.NewTCPServerTransport())
	require.Error(t, err)

	config = testConfig()
	config.Transport.Endpoint = ""
	_, err = NewRPCServer(config, tcp.NewTCPServerTransport())
	require.Error(t, err)
}

func TestRequestSequence(t *testing.T) {
	s := startServer(t, testConfig())
	c := dial(t, s)

	resp := c.call(common.NewPingRequest())
	require.Equal(t, common.Response{Status: common.StatusOk}, resp)

	resp = c.call(compressReq("aaabbbbc"))
	require.Equal(t, common.StatusOk, resp.Status)
	require.Equal(t, "3a4bc", string(resp.Payload))

	// ping + compress are merged, the get stats request is the caller's own delta
	ws := c.stats()
	require.Equal(t, stats.WireStats{
		BytesReceived: h + (h + 8) + h,
		BytesSent:     h + (h + 5),
		Ratio:         62,
	}, ws)

	resp = c.call(common.NewResetStatsRequest())
	require.Equal(t, common.Response{Status: common.StatusOk}, resp)

	// only the reset response and the get stats request are left
	require.Equal(t, stats.WireStats{BytesReceived: h, BytesSent: h}, c.stats())

	rejected := []struct {
		input  string
		status common.Status
	}{
		{"STRY\x00\x00\x04", common.StatusMissingPayload},
		{"STRY\x00\x09\x04X \xc3\x86 A-12", common.StatusNonAscii},
		{"STRY\x00\x03\x04a1b", common.StatusNonAlphabetic},
		{"STRY\x00\x03\x04aBc", common.StatusNonLowercase},
		{"STRY\x00\x00\x63", common.StatusUnsupportedRequest},
		{"STRY\x50\x00\x04", common.StatusMessageTooLarge},
	}
	for _, tc := range rejected {
		c.write([]byte(tc.input))
		require.Equal(t, common.NewErrorResponse(tc.status), c.read(), "input %q", tc.input)
	}

	// the connection is still in sync
	resp = c.call(compressReq("crosssection"))
	require.Equal(t, "cro3section", string(resp.Payload))
}

func TestStatsAccountingExample(t *testing.T) {
	s := startServer(t, testConfig())
	c := dial(t, s)

	c.call(common.NewResetStatsRequest())
	base := s.Stats()
	require.Equal(t, stats.Counters{BytesSent: h}, base)

	resp := c.call(compressReq("aaabbbbc"))
	require.LessOrEqual(t, len(resp.Payload), 8)

	after := s.Stats()
	require.Equal(t, base.BytesReceived+h+8, after.BytesReceived)
	require.Equal(t, base.PayloadIn+8, after.PayloadIn)
	require.Equal(t, base.PayloadOut+uint64(len(resp.Payload)), after.PayloadOut)
	require.Equal(t, base.BytesSent+uint64(h+len(resp.Payload)), after.BytesSent)

	// the get stats response is not part of its own payload
	ws := c.stats()
	require.Equal(t, uint32(after.BytesReceived+h), ws.BytesReceived)
	require.Equal(t, uint32(after.BytesSent), ws.BytesSent)
	require.Equal(t, uint8(len(resp.Payload)*100/8), ws.Ratio)
}

func TestResetFromOtherClient(t *testing.T) {
	s := startServer(t, testConfig())
	a := dial(t, s)
	b := dial(t, s)

	a.call(compressReq("zzzzzzzz"))
	b.call(common.NewResetStatsRequest())

	// a's traffic is gone, only b's reset response remains
	require.Equal(t, stats.WireStats{BytesReceived: h, BytesSent: h}, a.stats())
}

func TestGarbageIsCountedAndSkipped(t *testing.T) {
	s := startServer(t, testConfig())
	c := dial(t, s)

	garbage := "hello STR STRSTR"
	c.write(append([]byte(garbage), codec.AppendRequest(nil, compressReq("bbbb"))...))
	resp := c.read()
	require.Equal(t, "4b", string(resp.Payload))

	require.Equal(t, uint64(len(garbage)+h+4), s.Stats().BytesReceived)
}

func TestUnexpectedPayloadResync(t *testing.T) {
	s := startServer(t, testConfig())
	c := dial(t, s)

	input := []byte("STRY\x00\x05\x02")
	input = append(input, "xyzzy!!"...)
	input = codec.AppendRequest(input, compressReq("ccc"))
	c.write(input)

	require.Equal(t, common.NewErrorResponse(common.StatusUnexpectedPayload), c.read())
	resp := c.read()
	require.Equal(t, common.StatusOk, resp.Status)
	require.Equal(t, "3c", string(resp.Payload))
}

func TestFragmentedFrame(t *testing.T) {
	s := startServer(t, testConfig())
	c := dial(t, s)

	input := codec.AppendRequest(nil, compressReq("aaaaabbbbbbaaabb"))
	for i := range input {
		c.write(input[i : i+1])
		time.Sleep(time.Millisecond)
	}

	resp := c.read()
	require.Equal(t, "5a6b3abb", string(resp.Payload))
}

func TestLargestPayload(t *testing.T) {
	config := testConfig()
	config.MaxPayload = common.MinMaxPayload
	s := startServer(t, config)
	c := dial(t, s)

	payload := make([]byte, common.MinMaxPayload)
	for i := range payload {
		payload[i] = 'a' + byte(i%26)
	}
	resp := c.call(common.NewCompressRequest(payload))
	require.Equal(t, common.StatusOk, resp.Status)
	require.Len(t, resp.Payload, len(payload))

	payload = append(payload, 'a')
	c.write(codec.AppendRequest(nil, common.NewCompressRequest(payload)))
	require.Equal(t, common.NewErrorResponse(common.StatusMessageTooLarge), c.read())

	// the rejected payload is scanned as garbage and contains no frame
	require.Equal(t, common.StatusOk, c.call(common.NewPingRequest()).Status)
}

func TestConcurrentClients(t *testing.T) {
	s := startServer(t, testConfig())

	const clients = 8
	const requests = 25

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		c := dial(t, s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < requests; j++ {
				resp, err := roundTrip(c, compressReq("aaaa"))
				if err != nil || string(resp.Payload) != "4a" {
					t.Errorf("unexpected response %v: %v", resp, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	n := clients * requests
	ws := dial(t, s).stats()
	require.Equal(t, stats.WireStats{
		BytesReceived: uint32(n*(h+4) + h),
		BytesSent:     uint32(n * (h + 2)),
		Ratio:         50,
	}, ws)
}

// roundTrip is call without require, for use off the test goroutine
func roundTrip(c *testConn, req common.Request) (common.Response, error) {
	if _, err := c.conn.Write(codec.AppendRequest(nil, req)); err != nil {
		return common.Response{}, err
	}
	return codec.ReadResponse(c.r)
}

func TestCloseEndsSessions(t *testing.T) {
	s, err := NewRPCServer(testConfig(), tcp.NewTCPServerTransport())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, 5*time.Second, time.Millisecond)

	c := dial(t, s)
	require.Equal(t, common.StatusOk, c.call(common.NewPingRequest()).Status)
	require.Eventually(t, func() bool { return s.sessions.Size() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, <-done)
	require.Equal(t, 0, s.sessions.Size())

	_, err = c.r.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestMetricsEndpoint(t *testing.T) {
	config := testConfig()
	config.MetricsEndpoint = "127.0.0.1:0"
	s := startServer(t, config)
	require.NotNil(t, s.MetricsAddr())

	c := dial(t, s)
	c.call(compressReq("aaaa"))
	c.write([]byte("STRY\x00\x00\x04"))
	c.read()

	resp, err := http.Get("http://" + s.MetricsAddr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), `stry_responses_total{request="compress",status="ok"} 1`)
	require.Contains(t, string(body), `stry_responses_total{request="compress",status="missingPayload"} 1`)
	require.Contains(t, string(body), "stry_connections_total 1")
	require.Contains(t, string(body), "stry_sessions_active 1")
	require.Contains(t, string(body), "stry_compress_payload_bytes_total 4")
}

func TestServeFailureStopsMetricsAndReport(t *testing.T) {
	// occupy the endpoint so the transport cannot bind it
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	config := testConfig()
	config.Transport.Endpoint = busy.Addr().String()
	config.MetricsEndpoint = "127.0.0.1:0"
	config.ReportIntervalSecond = 1

	s, err := NewRPCServer(config, tcp.NewTCPServerTransport())
	require.NoError(t, err)
	require.Error(t, s.Serve())

	require.NotNil(t, s.MetricsAddr())
	_, err = net.DialTimeout("tcp", s.MetricsAddr().String(), time.Second)
	require.Error(t, err, "metrics endpoint must be closed")

	select {
	case <-s.report.done:
	case <-time.After(5 * time.Second):
		t.Fatal("report loop still running")
	}
	require.NoError(t, s.Close())
}
