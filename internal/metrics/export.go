package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumestudio",
			Subsystem: "export",
			Name:      "capture_duration_seconds",
			Help:      "导出截图/打印耗时分布（秒）。",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"backend", "format", "outcome"},
	)

	browsersInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "resumestudio",
			Subsystem: "export",
			Name:      "browsers_in_flight",
			Help:      "当前存活的无头浏览器实例数量。",
		},
		[]string{"backend"},
	)
)

// ObserveExport records one capture attempt. outcome is "ok" or an error code.
func ObserveExport(backend, format, outcome string, elapsed time.Duration) {
	exportDuration.WithLabelValues(backend, format, outcome).Observe(elapsed.Seconds())
}

// BrowserAcquired / BrowserReleased track live headless browser handles.
func BrowserAcquired(backend string) {
	browsersInFlight.WithLabelValues(backend).Inc()
}

func BrowserReleased(backend string) {
	browsersInFlight.WithLabelValues(backend).Dec()
}
