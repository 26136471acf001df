package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"net"
	"net/http"
	"time"
)

// --------------------------------------------------------------------------
// Prometheus metrics
// --------------------------------------------------------------------------

// serverMetrics holds the prometheus metrics of one server. The counters are
// monotonic and are not affected by ResetStats.
type serverMetrics struct {
	set *metrics.Set

	connections      *metrics.Counter
	bytesReceived    *metrics.Counter
	bytesSent        *metrics.Counter
	payloadIn        *metrics.Counter
	payloadOut       *metrics.Counter
	compressDuration *metrics.Histogram

	// responses is keyed by request code and status, it is filled up
	// front and only read afterward
	responses map[responseKey]*metrics.Counter
}

type responseKey struct {
	code   common.RequestCode
	status common.Status
}

var knownCodes = []common.RequestCode{common.ReqPing, common.ReqGetStats, common.ReqResetStats, common.ReqCompress}

var knownStatuses = []common.Status{
	common.StatusOk,
	common.StatusUnknownError,
	common.StatusMessageTooLarge,
	common.StatusUnsupportedRequest,
	common.StatusMissingPayload,
	common.StatusUnexpectedPayload,
	common.StatusNonAscii,
	common.StatusNonAlphabetic,
	common.StatusNonLowercase,
}

// newServerMetrics creates the metrics set. activeSessions and global are
// evaluated on every scrape.
func newServerMetrics(activeSessions func() int, global func() stats.Counters) *serverMetrics {
	set := metrics.NewSet()

	m := &serverMetrics{
		set:              set,
		connections:      set.NewCounter("stry_connections_total"),
		bytesReceived:    set.NewCounter("stry_bytes_received_total"),
		bytesSent:        set.NewCounter("stry_bytes_sent_total"),
		payloadIn:        set.NewCounter("stry_compress_payload_bytes_total"),
		payloadOut:       set.NewCounter("stry_compress_output_bytes_total"),
		compressDuration: set.NewHistogram("stry_compress_duration_seconds"),
		responses:        make(map[responseKey]*metrics.Counter),
	}

	// unknown request codes are all counted as "unknown"
	codes := append([]common.RequestCode{0}, knownCodes...)
	for _, code := range codes {
		for _, status := range knownStatuses {
			m.responses[responseKey{code, status}] = set.NewCounter(responseMetricName(code, status))
		}
	}

	set.NewGauge("stry_sessions_active", func() float64 {
		return float64(activeSessions())
	})
	set.NewGauge("stry_stats_bytes_received", func() float64 {
		return float64(global().BytesReceived)
	})
	set.NewGauge("stry_stats_bytes_sent", func() float64 {
		return float64(global().BytesSent)
	})

	return m
}

func responseMetricName(code common.RequestCode, status common.Status) string {
	name := "unknown"
	if code.Known() {
		name = code.String()
	}
	return fmt.Sprintf(`stry_responses_total{request=%q,status=%q}`, name, status.String())
}

// observeConnection counts an accepted connection
func (m *serverMetrics) observeConnection() {
	m.connections.Inc()
}

// observeTransaction adds the counters of one finished transaction
func (m *serverMetrics) observeTransaction(c stats.Counters) {
	m.bytesReceived.Add(int(c.BytesReceived))
	m.bytesSent.Add(int(c.BytesSent))
	m.payloadIn.Add(int(c.PayloadIn))
	m.payloadOut.Add(int(c.PayloadOut))
}

// observeResponse counts one response
func (m *serverMetrics) observeResponse(code common.RequestCode, status common.Status) {
	if !code.Known() {
		code = 0
	}
	counter, ok := m.responses[responseKey{code, status}]
	if !ok {
		counter = m.set.GetOrCreateCounter(responseMetricName(code, status))
	}
	counter.Inc()
}

// observeCompression records the duration of a compression started at start
func (m *serverMetrics) observeCompression(start time.Time) {
	m.compressDuration.UpdateDuration(start)
}

// writePrometheus writes all metrics in the prometheus text format to w
func (m *serverMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// --------------------------------------------------------------------------
// Metrics endpoint
// --------------------------------------------------------------------------

// metricsEndpoint serves the metrics on /metrics
type metricsEndpoint struct {
	listener net.Listener
	server   *http.Server
}

// startMetricsEndpoint binds address and serves the metrics in the background
func startMetricsEndpoint(address string, m *serverMetrics) (*metricsEndpoint, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on metrics endpoint: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.writePrometheus(w)
	})

	e := &metricsEndpoint{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		if err := e.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			Logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()

	Logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())
	return e, nil
}

// Addr returns the bound address of the endpoint
func (e *metricsEndpoint) Addr() net.Addr {
	return e.listener.Addr()
}

// Close stops the endpoint. The listener is closed right away, even if the
// serving goroutine has not picked it up yet.
func (e *metricsEndpoint) Close() error {
	err := e.server.Close()
	if lerr := e.listener.Close(); lerr != nil && !errors.Is(lerr, net.ErrClosed) && err == nil {
		err = lerr
	}
	return err
}
