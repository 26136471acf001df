package base

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/stry/rpc/codec"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/stretchr/testify/require"
)

type testConnector struct {
	dials int
}

func (c *testConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	c.dials++
	return net.DialTimeout("tcp", endpoint, timeout)
}

func (c *testConnector) GetName() string {
	return "test"
}

func (c *testConnector) UpgradeConnection(net.Conn, common.ClientConfig) error {
	return nil
}

// serveFrames accepts connections and answers every request frame with an
// Ok response echoing the payload. The first dropFirst connections are closed
// after reading their first request.
func serveFrames(t *testing.T, dropFirst int) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for n := 0; ; n++ {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn, drop bool) {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					// requests and responses share the frame layout
					req, err := codec.ReadResponse(r)
					if err != nil {
						return
					}
					if drop {
						return
					}
					if _, err := codec.WriteResponse(conn, common.NewOkResponse(req.Payload)); err != nil {
						return
					}
				}
			}(conn, n < dropFirst)
		}
	}()

	return listener.Addr().String()
}

func testConfig(endpoint string, retries, conns int) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 2,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             retries,
			ConnectionsPerEndpoint: conns,
		},
	}
}

func TestClientTransportSend(t *testing.T) {
	addr := serveFrames(t, 0)

	tr := NewBaseClientTransport(&testConnector{})
	require.NoError(t, tr.Connect(testConfig(addr, 1, 3)))
	defer tr.Close()

	for _, text := range []string{"a", "bb", "ccc", "dddd"} {
		resp, err := tr.Send(common.NewCompressRequest([]byte(text)))
		require.NoError(t, err)
		require.Equal(t, text, string(resp.Payload))
	}
}

func TestClientTransportReconnects(t *testing.T) {
	addr := serveFrames(t, 1)

	connector := &testConnector{}
	tr := NewBaseClientTransport(connector)
	require.NoError(t, tr.Connect(testConfig(addr, 2, 1)))
	defer tr.Close()

	// the first attempt is dropped by the server, the retry reconnects
	resp, err := tr.Send(common.NewCompressRequest([]byte("abc")))
	require.NoError(t, err)
	require.Equal(t, "abc", string(resp.Payload))
	require.Equal(t, 2, connector.dials)
}

func TestClientTransportGivesUp(t *testing.T) {
	addr := serveFrames(t, 10)

	tr := NewBaseClientTransport(&testConnector{})
	require.NoError(t, tr.Connect(testConfig(addr, 2, 1)))
	defer tr.Close()

	_, err := tr.Send(common.NewPingRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 2 attempts")
}

func TestClientTransportPayloadTooLarge(t *testing.T) {
	addr := serveFrames(t, 0)

	tr := NewBaseClientTransport(&testConnector{})
	require.NoError(t, tr.Connect(testConfig(addr, 3, 1)))
	defer tr.Close()

	_, err := tr.Send(common.NewCompressRequest(make([]byte, common.MaxWirePayload+1)))
	require.True(t, errors.Is(err, codec.ErrPayloadTooLarge))
}

func TestClientTransportClosed(t *testing.T) {
	addr := serveFrames(t, 0)

	tr := NewBaseClientTransport(&testConnector{})
	require.NoError(t, tr.Connect(testConfig(addr, 1, 1)))
	require.NoError(t, tr.Close())

	_, err := tr.Send(common.NewPingRequest())
	require.Error(t, err)
}

func TestConnectWithoutEndpoints(t *testing.T) {
	tr := NewBaseClientTransport(&testConnector{})
	require.Error(t, tr.Connect(common.ClientConfig{}))
}

func TestBackoff(t *testing.T) {
	b := newBackoff()
	first := b.next()
	require.InDelta(t, float64(initialBackoff), float64(first), float64(initialBackoff)/10+1)
	second := b.next()
	require.InDelta(t, float64(2*initialBackoff), float64(second), float64(2*initialBackoff)/10+1)

	for i := 0; i < 20; i++ {
		require.LessOrEqual(t, b.next(), maxBackoff+maxBackoff/10)
	}
}
