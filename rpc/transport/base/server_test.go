package base

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/stretchr/testify/require"
)

type testServerConnector struct {
	upgraded int
}

func (c *testServerConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Transport.Endpoint)
}

func (c *testServerConnector) GetName() string {
	return "test"
}

func (c *testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	c.upgraded++
	return nil
}

func TestServerTransportHandlesConnections(t *testing.T) {
	connector := &testServerConnector{}
	tr := NewBaseServerTransport(connector)
	tr.RegisterHandler(func(conn net.Conn) {
		_, _ = io.Copy(conn, conn)
	})

	done := make(chan error, 1)
	go func() {
		done <- tr.Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: "127.0.0.1:0"}})
	}()
	require.Eventually(t, func() bool { return tr.Addr() != nil }, 5*time.Second, time.Millisecond)

	conn, err := net.Dial("tcp", tr.Addr().String())
	require.NoError(t, err)

	_, err = conn.Write([]byte("echo"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "echo", string(buf))

	require.NoError(t, tr.Close())

	// Listen waits for the handler, which ends when the client hangs up
	select {
	case <-done:
		t.Fatal("listen returned while a handler was running")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, conn.Close())
	require.NoError(t, <-done)
	require.Equal(t, 1, connector.upgraded)
}

func TestServerTransportWithoutHandler(t *testing.T) {
	tr := NewBaseServerTransport(&testServerConnector{})
	err := tr.Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: "127.0.0.1:0"}})
	require.Error(t, err)
}

func TestServerTransportCloseBeforeListen(t *testing.T) {
	tr := NewBaseServerTransport(&testServerConnector{})
	tr.RegisterHandler(func(net.Conn) {})
	require.NoError(t, tr.Close())

	err := tr.Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: "127.0.0.1:0"}})
	require.NoError(t, err)
	require.Nil(t, tr.Addr())
}
