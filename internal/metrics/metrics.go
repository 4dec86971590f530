// Package metrics метрики Prometheus для HTTP, приёма просмотров, отчётов и каталога.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// result: queued, skipped, dropped, recorded, failed
	PageViewsTotal *prometheus.CounterVec

	// result: ok, invalid, unavailable, simulated
	ReportsTotal   *prometheus.CounterVec
	ReportDuration prometheus.Histogram

	CatalogFallbacksTotal *prometheus.CounterVec
	CacheLookupsTotal     *prometheus.CounterVec
	TMDBRequestsTotal     *prometheus.CounterVec
	BackupRunsTotal       *prometheus.CounterVec
}

// New создаёт метрики в отдельном реестре
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cinema_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PageViewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_page_views_total",
				Help: "Page view events by processing result",
			},
			[]string{"result"},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_analytics_reports_total",
				Help: "Analytics reports by result",
			},
			[]string{"result"},
		),
		ReportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cinema_analytics_report_duration_seconds",
				Help:    "Time spent generating an analytics report",
				Buckets: prometheus.DefBuckets,
			},
		),
		CatalogFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_catalog_fallbacks_total",
				Help: "Catalog reads served by a lower-ranked source",
			},
			[]string{"source"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_cache_lookups_total",
				Help: "Movie cache lookups by result",
			},
			[]string{"result"},
		),
		TMDBRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_tmdb_requests_total",
				Help: "TMDB API requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		BackupRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_catalog_backup_runs_total",
				Help: "Scheduled catalog backups by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PageViewsTotal,
		m.ReportsTotal,
		m.ReportDuration,
		m.CatalogFallbacksTotal,
		m.CacheLookupsTotal,
		m.TMDBRequestsTotal,
		m.BackupRunsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry нужен тестам для чтения значений
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
