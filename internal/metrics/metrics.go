package metrics

/*
merklescrape — MerkleMap search scraper for Certificate Transparency data
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry           = prometheus.NewRegistry()
	defaultRegisterer  = promauto.With(registry)
	metricsInitialized sync.Once
	metricsEnabled     bool
	metricsServer      *http.Server
	metricsAddr        net.Addr
)

// Metrics contains all the Prometheus metrics for a scrape run.
type Metrics struct {
	// API metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// Run metrics
	PagesProcessed prometheus.Counter
	CurrentPage    prometheus.Gauge
	LastPage       prometheus.Gauge
	SleepSeconds   prometheus.Gauge
	RunAborted     *prometheus.CounterVec

	// Output metrics
	RowsWritten  prometheus.Counter
	BytesWritten prometheus.Counter
	WriteErrors  prometheus.Counter
}

var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection.
func EnableMetrics() {
	metricsEnabled = true
}

// IsMetricsEnabled returns whether metrics collection is enabled.
func IsMetricsEnabled() bool {
	return metricsEnabled
}

// Registry exposes the registry backing the /metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}

func newMetrics() *Metrics {
	buckets := []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

	return &Metrics{
		RequestDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "merklescrape_request_duration_seconds",
				Help:    "Time spent on search API requests",
				Buckets: buckets,
			},
			[]string{"status"},
		),
		RequestsTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merklescrape_requests_total",
				Help: "Total number of search API requests by HTTP status (\"error\" for transport failures)",
			},
			[]string{"status"},
		),
		PagesProcessed: defaultRegisterer.NewCounter(prometheus.CounterOpts{
			Name: "merklescrape_pages_processed_total",
			Help: "Pages fetched, transformed and appended",
		}),
		CurrentPage: defaultRegisterer.NewGauge(prometheus.GaugeOpts{
			Name: "merklescrape_current_page",
			Help: "Index of the last page that was processed",
		}),
		LastPage: defaultRegisterer.NewGauge(prometheus.GaugeOpts{
			Name: "merklescrape_last_page",
			Help: "Configured last page index (inclusive)",
		}),
		SleepSeconds: defaultRegisterer.NewGauge(prometheus.GaugeOpts{
			Name: "merklescrape_sleep_seconds",
			Help: "Configured sleep between pages",
		}),
		RunAborted: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merklescrape_run_aborted_total",
				Help: "Runs that stopped on a fatal error, by error kind",
			},
			[]string{"kind"},
		),
		RowsWritten: defaultRegisterer.NewCounter(prometheus.CounterOpts{
			Name: "merklescrape_rows_written_total",
			Help: "CSV data rows appended to the output file",
		}),
		BytesWritten: defaultRegisterer.NewCounter(prometheus.CounterOpts{
			Name: "merklescrape_bytes_written_total",
			Help: "Bytes appended to the output file",
		}),
		WriteErrors: defaultRegisterer.NewCounter(prometheus.CounterOpts{
			Name: "merklescrape_write_errors_total",
			Help: "Failed writes to the output file",
		}),
	}
}

// StartMetricsServer exposes /metrics on addr. The listener is bound before returning
// so that an address in use is reported to the caller.
func StartMetricsServer(addr string) error {
	if !metricsEnabled {
		return nil
	}

	var startErr error
	metricsInitialized.Do(func() {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			startErr = fmt.Errorf("metrics listener on %s: %w", addr, err)
			return
		}

		metricsAddr = ln.Addr()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Printf("Starting metrics server on %s", ln.Addr())
			if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	})

	return startErr
}

// ShutdownMetricsServer gracefully shuts down the metrics server.
func ShutdownMetricsServer(ctx context.Context) error {
	if metricsServer != nil {
		log.Println("Shutting down metrics server...")
		return metricsServer.Shutdown(ctx)
	}
	return nil
}

// ObserveRequest records one API request. A zero status means the request never
// got a response.
func (m *Metrics) ObserveRequest(status int, took time.Duration) {
	if !metricsEnabled {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(label).Inc()
	m.RequestDuration.WithLabelValues(label).Observe(took.Seconds())
}

// ObservePage records a processed page.
func (m *Metrics) ObservePage(page int) {
	if !metricsEnabled {
		return
	}
	m.PagesProcessed.Inc()
	m.CurrentPage.Set(float64(page))
}

// ObserveWrite records a completed append; a non-nil err counts as a write error.
func (m *Metrics) ObserveWrite(rows int, bytes int64, err error) {
	if !metricsEnabled {
		return
	}
	if err != nil {
		m.WriteErrors.Inc()
		return
	}
	m.RowsWritten.Add(float64(rows))
	m.BytesWritten.Add(float64(bytes))
}

// SetRunConfig publishes the static run settings.
func (m *Metrics) SetRunConfig(lastPage int, sleep time.Duration) {
	if !metricsEnabled {
		return
	}
	m.LastPage.Set(float64(lastPage))
	m.SleepSeconds.Set(sleep.Seconds())
}

// ObserveAbort records a run stopping on an error of the given kind.
func (m *Metrics) ObserveAbort(kind string) {
	if !metricsEnabled {
		return
	}
	m.RunAborted.WithLabelValues(kind).Inc()
}
