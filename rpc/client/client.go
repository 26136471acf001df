package client

import (
	"fmt"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/transport"
)

// IStryClient is the client side of the stry protocol
type IStryClient interface {
	// Ping checks that the server answers
	Ping() error
	// Compress returns the run-length encoding of text.
	// text must be non-empty lowercase ASCII, otherwise the server answers with a
	// *StatusError naming the failed check.
	Compress(text []byte) ([]byte, error)
	// GetStats returns the usage statistics of the server
	GetStats() (stats.WireStats, error)
	// ResetStats sets the usage statistics of the server to zero
	ResetStats() error
	// Close closes the underlying transport
	Close() error
}

// NewClient creates a new stry client
// The function connects the transport with the given config
func NewClient(config common.ClientConfig, transport transport.IRPCClientTransport) (IStryClient, error) {
	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcClient{
		config:    config,
		transport: transport,
	}, nil
}

type rpcClient struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IStryClient)
// --------------------------------------------------------------------------

func (c *rpcClient) Ping() error {
	resp, err := invokeRPCRequest(common.NewPingRequest(), c.transport)
	if err != nil {
		return err
	}
	if len(resp.Payload) != 0 {
		return fmt.Errorf("stry: unexpected ping payload of %d bytes", len(resp.Payload))
	}
	return nil
}

func (c *rpcClient) Compress(text []byte) ([]byte, error) {
	resp, err := invokeRPCRequest(common.NewCompressRequest(text), c.transport)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

func (c *rpcClient) GetStats() (stats.WireStats, error) {
	resp, err := invokeRPCRequest(common.NewGetStatsRequest(), c.transport)
	if err != nil {
		return stats.WireStats{}, err
	}
	return stats.ParseSnapshot(resp.Payload)
}

func (c *rpcClient) ResetStats() error {
	_, err := invokeRPCRequest(common.NewResetStatsRequest(), c.transport)
	return err
}

func (c *rpcClient) Close() error {
	return c.transport.Close()
}
