package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/codec"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"net"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc/server")

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s, err := server.NewRPCServer(*config, tcp.NewTCPServerTransport())
//	if err != nil {
//		panic(err)
//	}
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport) (*rpcServer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	agg := stats.NewAggregator()
	sessions := xsync.NewMapOf[string, *session]()

	s := &rpcServer{
		config:    config,
		transport: transport,
		stats:     agg,
		handler:   NewStryHandler(agg),
		sessions:  sessions,
		report:    newUsageReport(agg),
	}
	s.metrics = newServerMetrics(sessions.Size, agg.Load)
	s.buffers.New = func() any {
		return codec.NewBuffer(config.MaxPayload)
	}

	return s, nil
}

type rpcServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	stats     *stats.Aggregator
	handler   IRequestHandler

	// sessions holds all connections currently served, keyed by session id
	sessions *xsync.MapOf[string, *session]

	// buffers recycles the read buffers of closed connections
	buffers sync.Pool

	metrics         *serverMetrics
	metricsEndpoint *metricsEndpoint
	report          *usageReport
	reportStarted   bool

	closing atomic.Bool
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	if s.config.MetricsEndpoint != "" {
		endpoint, err := startMetricsEndpoint(s.config.MetricsEndpoint, s.metrics)
		if err != nil {
			return err
		}
		s.metricsEndpoint = endpoint
	}

	if s.config.ReportIntervalSecond > 0 {
		s.report.start(time.Duration(s.config.ReportIntervalSecond) * time.Second)
		s.reportStarted = true
	}

	// Configure the transport layer
	s.transport.RegisterHandler(s.handleConnection)

	return nil
}

// Serve starts the RPC server
// This function initializes the server and blocks in the transport layer
// until Close is called. If the server cannot start, everything started so
// far is stopped again.
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		_ = s.Close()
		return err
	}
	if err := s.transport.Listen(s.config); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// Close stops accepting connections and closes all open connections.
// Serve returns once all connections are done.
func (s *rpcServer) Close() error {
	if s.closing.Swap(true) {
		return nil
	}

	err := s.transport.Close()

	s.sessions.Range(func(_ string, sess *session) bool {
		_ = sess.conn.Close()
		return true
	})

	if s.metricsEndpoint != nil {
		if cerr := s.metricsEndpoint.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.report.stopReport(s.reportStarted)

	return err
}

// Addr returns the address the server listens on, nil if it is not listening yet
func (s *rpcServer) Addr() net.Addr {
	return s.transport.Addr()
}

// MetricsAddr returns the address of the metrics endpoint, nil if it is disabled
func (s *rpcServer) MetricsAddr() net.Addr {
	if s.metricsEndpoint == nil {
		return nil
	}
	return s.metricsEndpoint.Addr()
}

// Stats returns the current global counters
func (s *rpcServer) Stats() stats.Counters {
	return s.stats.Load()
}

// --------------------------------------------------------------------------
// Connection handling
// --------------------------------------------------------------------------

// handleConnection is called by the transport for every accepted connection
func (s *rpcServer) handleConnection(conn net.Conn) {
	buf := s.buffers.Get().(*codec.Buffer)
	defer func() {
		buf.Reset()
		s.buffers.Put(buf)
	}()

	sess, err := newSession(s, conn, buf)
	if err != nil {
		Logger.Errorf("Failed to create session for %s: %v", conn.RemoteAddr(), err)
		return
	}

	s.sessions.Store(sess.id, sess)
	defer s.sessions.Delete(sess.id)

	// Close may have missed the session while storing it
	if s.closing.Load() {
		return
	}

	s.metrics.observeConnection()
	Logger.Debugf("Opened %s", sess)

	err = sess.run()

	switch {
	case errors.Is(err, io.EOF):
		Logger.Debugf("Connection closed by client: %s", sess)
	case s.closing.Load() && errors.Is(err, net.ErrClosed):
		Logger.Debugf("Connection closed by server shutdown: %s", sess)
	default:
		Logger.Errorf("Error handling %s: %v", sess, err)
	}
}
