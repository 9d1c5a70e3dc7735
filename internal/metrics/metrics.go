package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	CommitsTotal     prometheus.Counter
	CommitFailures   *prometheus.CounterVec
	LedgerWarnings   prometheus.Counter
	LedgerRows       prometheus.Counter
	PhotosUploaded   prometheus.Counter
	FoldersCreated   *prometheus.CounterVec
	InputRejections  *prometheus.CounterVec
	CommitLatencySec prometheus.Histogram
	ActiveSessions   prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	commits := prometheus.NewCounter(prometheus.CounterOpts{Name: "picking_commits_total"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "picking_commit_failures_total"}, []string{"stage"})
	ledgerWarnings := prometheus.NewCounter(prometheus.CounterOpts{Name: "picking_ledger_warnings_total"})
	ledgerRows := prometheus.NewCounter(prometheus.CounterOpts{Name: "picking_ledger_rows_total"})
	photos := prometheus.NewCounter(prometheus.CounterOpts{Name: "picking_photos_uploaded_total"})
	folders := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "picking_folders_created_total"}, []string{"level"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "picking_input_rejections_total"}, []string{"field"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "picking_commit_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{Name: "picking_active_sessions"})

	r.MustRegister(commits, failures, ledgerWarnings, ledgerRows, photos, folders, rejections, latency, sessions)
	return &Registry{
		reg:              r,
		CommitsTotal:     commits,
		CommitFailures:   failures,
		LedgerWarnings:   ledgerWarnings,
		LedgerRows:       ledgerRows,
		PhotosUploaded:   photos,
		FoldersCreated:   folders,
		InputRejections:  rejections,
		CommitLatencySec: latency,
		ActiveSessions:   sessions,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
