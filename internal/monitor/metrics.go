// Package monitor exposes Prometheus metrics for acquisitions, transfers and
// spectrum publishing.
package monitor

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	Acquisitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bomc1_acquisitions_total",
			Help: "Frame acquisitions by result",
		},
		[]string{"result"},
	)

	TransferErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bomc1_transfer_errors_total",
			Help: "Failed USB transfers by operation and failure kind",
		},
		[]string{"op", "kind"},
	)

	AcquisitionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bomc1_acquisition_duration_seconds",
		Help:    "Time from line-control write to decoded frame",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	SpectraPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bomc1_spectra_published_total",
			Help: "Spectra handed to publish sinks",
		},
		[]string{"sink"},
	)
)

var registerOnce sync.Once

// Register adds the package collectors to reg. Only the first call has any
// effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			Acquisitions,
			TransferErrors,
			AcquisitionDuration,
			SpectraPublished,
		)
	})
}

type Monitor struct {
	log    logrus.FieldLogger
	server *http.Server
}

func NewMonitor(log logrus.FieldLogger) *Monitor {
	Register(prometheus.DefaultRegisterer)
	return &Monitor{log: log}
}

// StartMetricsServer serves /metrics and /health on port in the background.
func (m *Monitor) StartMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	m.log.Infof("metrics server listening on %s", m.server.Addr)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.log.Errorf("metrics server: %v", err)
		}
	}()
}

// Close stops the metrics server if it was started.
func (m *Monitor) Close() error {
	if m.server == nil {
		return nil
	}
	return m.server.Close()
}
