// Package metrics provides Prometheus metrics for the analyzer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchTotal counts refresh attempts per instrument and outcome
	// (success / failure / skipped).
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analyzer_fetch_total",
		Help: "Quote refresh attempts by symbol and outcome",
	}, []string{"symbol", "outcome"})

	// WindowSize is the current sample count per instrument window.
	WindowSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analyzer_window_size",
		Help: "Observations currently retained in the sliding window",
	}, []string{"symbol"})

	// LastPrice is the most recent observed price per instrument.
	LastPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analyzer_last_price",
		Help: "Latest observed price",
	}, []string{"symbol"})

	// CrashActive is 1 while the crash signal is raised for an instrument.
	CrashActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analyzer_crash_active",
		Help: "Crash drawdown alert state (1 = alerting)",
	}, []string{"symbol"})

	// TrendUp is 1 while the window trend is non-negative.
	TrendUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analyzer_trend_up",
		Help: "Window trend direction (1 = up)",
	}, []string{"symbol"})

	// ZoomFactor is the current display zoom multiplier.
	ZoomFactor = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "analyzer_zoom_factor",
		Help: "Vertical display padding multiplier",
	})

	// ReportRuns counts scheduled report executions by kind and outcome.
	ReportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analyzer_report_runs_total",
		Help: "Scheduled report executions by kind and outcome",
	}, []string{"kind", "outcome"})

	// WSClients is the number of connected presentation clients.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "analyzer_ws_clients",
		Help: "Connected websocket clients",
	})
)

// Outcome label values for FetchTotal and ReportRuns.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// ObserveFetch records one refresh attempt.
func ObserveFetch(symbol, outcome string) {
	FetchTotal.WithLabelValues(symbol, outcome).Inc()
}

// ObserveWindow updates the per-instrument window gauges after an append.
func ObserveWindow(symbol string, size int, lastPrice float64, trendUp, crash bool) {
	WindowSize.WithLabelValues(symbol).Set(float64(size))
	LastPrice.WithLabelValues(symbol).Set(lastPrice)
	TrendUp.WithLabelValues(symbol).Set(boolGauge(trendUp))
	CrashActive.WithLabelValues(symbol).Set(boolGauge(crash))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// StartMetricsServer starts the Prometheus metrics endpoint.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
