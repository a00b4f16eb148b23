package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the harness Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsCreated  *prometheus.CounterVec
	SessionsClosed   *prometheus.CounterVec
	SessionStartTime prometheus.Histogram
	NavigationsTotal *prometheus.CounterVec

	// Test metrics
	TestsTotal   *prometheus.CounterVec
	TestDuration *prometheus.HistogramVec

	// Diagnostics metrics
	ScreenshotsTotal *prometheus.CounterVec
	UploadsTotal     *prometheus.CounterVec
}

// NewMetrics creates the metrics on a private registry
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "uiharness"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SessionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_created_total",
				Help:      "Total number of browser session creation attempts",
			},
			[]string{"status"},
		),
		SessionsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_closed_total",
				Help:      "Total number of browser sessions disposed",
			},
			[]string{"status"},
		),
		SessionStartTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_start_duration_seconds",
				Help:      "Time to create a browser session",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		NavigationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "base_url_navigations_total",
				Help:      "Total number of navigations to the base URL by status",
			},
			[]string{"status"},
		),

		TestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tests_total",
				Help:      "Total number of tests by outcome",
			},
			[]string{"outcome"},
		),
		TestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "test_duration_seconds",
				Help:      "Test duration including setup and teardown",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),

		ScreenshotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screenshots_total",
				Help:      "Total number of screenshot attempts by result",
			},
			[]string{"result"},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screenshot_uploads_total",
				Help:      "Total number of screenshot uploads by status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSessionCreated records a session creation attempt
func (m *Metrics) RecordSessionCreated(err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.SessionsCreated.WithLabelValues(statusOf(err)).Inc()
	if err == nil {
		m.SessionStartTime.Observe(duration.Seconds())
	}
}

// RecordNavigation records the navigation to the base URL of a new session
func (m *Metrics) RecordNavigation(err error) {
	if m == nil {
		return
	}
	m.NavigationsTotal.WithLabelValues(statusOf(err)).Inc()
}

// RecordSessionClosed records a session disposal
func (m *Metrics) RecordSessionClosed(err error) {
	if m == nil {
		return
	}
	m.SessionsClosed.WithLabelValues(statusOf(err)).Inc()
}

// RecordTest records a finished test
func (m *Metrics) RecordTest(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.TestsTotal.WithLabelValues(outcome).Inc()
	m.TestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Screenshot results
const (
	ScreenshotSaved       = "saved"
	ScreenshotUnsupported = "unsupported"
	ScreenshotFailed      = "failed"
)

// RecordScreenshot records a screenshot attempt result
func (m *Metrics) RecordScreenshot(result string) {
	if m == nil {
		return
	}
	m.ScreenshotsTotal.WithLabelValues(result).Inc()
}

// RecordUpload records a screenshot upload
func (m *Metrics) RecordUpload(err error) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(statusOf(err)).Inc()
}

// WriteTextfile writes the metrics in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
