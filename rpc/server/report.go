package server

import (
	"fmt"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/rcrowley/go-metrics"
	"sync"
	"time"
)

// sampleSize is the reservoir size of the report histograms
const sampleSize = 1028

// usageReport collects request rates and payload distributions and writes
// them to the log in a fixed interval
type usageReport struct {
	registry metrics.Registry

	requests    metrics.Meter
	rejected    metrics.Meter
	payloadSize metrics.Histogram
	ratio       metrics.Histogram

	stats *stats.Aggregator

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newUsageReport(agg *stats.Aggregator) *usageReport {
	registry := metrics.NewRegistry()

	return &usageReport{
		registry:    registry,
		requests:    metrics.GetOrRegisterMeter("requests", registry),
		rejected:    metrics.GetOrRegisterMeter("rejected", registry),
		payloadSize: metrics.GetOrRegisterHistogram("compress.payload", registry, metrics.NewExpDecaySample(sampleSize, 0.015)),
		ratio:       metrics.GetOrRegisterHistogram("compress.ratio", registry, metrics.NewExpDecaySample(sampleSize, 0.015)),
		stats:       agg,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// observeRequest counts an accepted request
func (r *usageReport) observeRequest() {
	r.requests.Mark(1)
}

// observeRejected counts a rejected frame
func (r *usageReport) observeRejected() {
	r.rejected.Mark(1)
}

// observeCompression records the sizes of a successful compression
func (r *usageReport) observeCompression(original, compressed int) {
	r.payloadSize.Update(int64(original))
	if original > 0 {
		r.ratio.Update(int64(compressed * 100 / original))
	}
}

// start writes a report every interval until stopReport is called
func (r *usageReport) start(interval time.Duration) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				Logger.Infof("%s", r.line())
			case <-r.stop:
				return
			}
		}
	}()
}

// stopReport stops the report loop (if started) and the meters
func (r *usageReport) stopReport(started bool) {
	r.stopOnce.Do(func() {
		close(r.stop)
		if started {
			<-r.done
		}
		r.registry.UnregisterAll()
	})
}

// line formats the current state of the report
func (r *usageReport) line() string {
	global := stats.Snapshot(r.stats.Load())
	size := r.payloadSize.Snapshot()
	ratio := r.ratio.Snapshot()

	return fmt.Sprintf(
		"usage: requests=%d (%.1f/s) rejected=%d (%.1f/s) | compress n=%d size mean=%.0f p99=%.0f max=%d ratio mean=%.0f%% | stats received=%d sent=%d ratio=%d%%",
		r.requests.Count(), r.requests.Rate1(),
		r.rejected.Count(), r.rejected.Rate1(),
		size.Count(), size.Mean(), size.Percentile(0.99), size.Max(), ratio.Mean(),
		global.BytesReceived, global.BytesSent, global.Ratio(),
	)
}
