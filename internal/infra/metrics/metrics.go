package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	RequestsTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "book_requests_total", Help: "Merged book requests served"})
	RequestsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "book_requests_failed_total", Help: "Requests where every upstream failed"})
	PartialResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "book_partial_results_total", Help: "Requests served from a subset of upstreams"})
	RequestLatency      = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "book_request_seconds", Help: "End-to-end merged book latency", Buckets: prometheus.DefBuckets})
	FetchLatency        = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "upstream_fetch_seconds", Help: "Per-venue fetch latency", Buckets: prometheus.DefBuckets}, []string{"exchange"})
	UpstreamErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "upstream_errors_total", Help: "Upstream failures by exchange and kind"}, []string{"exchange", "kind"})
	MergedLevels        = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "merged_levels", Help: "Merged level count per side", Buckets: prometheus.ExponentialBuckets(1, 2, 14)}, []string{"side"})
	CrossedLevelsTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "crossed_levels_total", Help: "Crossed (arbitrage) levels observed in merged books"})
	ThrottledTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "requests_throttled_total", Help: "Requests rejected by the rate limiter"})
	StreamClientsGauge  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "stream_clients", Help: "Connected websocket stream clients"})
	WorkerRestartsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "worker_restarts_total", Help: "Worker processes restarted by the supervisor"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		RequestsTotal, RequestsFailedTotal, PartialResultsTotal, RequestLatency,
		FetchLatency, UpstreamErrorsTotal, MergedLevels, CrossedLevelsTotal,
		ThrottledTotal, StreamClientsGauge, WorkerRestartsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
