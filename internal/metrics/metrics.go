// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RevisionsReconstructed counts revision texts built by applying a delta program.
	RevisionsReconstructed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcsgrep",
		Subsystem: "engine",
		Name:      "revisions_reconstructed_total",
		Help:      "Revision texts rebuilt from delta programs",
	})

	// CacheHits counts revision text requests served from an engine cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcsgrep",
		Subsystem: "engine",
		Name:      "cache_hits_total",
		Help:      "Revision text requests served from cache",
	})

	// MatchesEmitted counts match records produced, by entry point.
	// Labels: source (cli, api, mcp)
	MatchesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rcsgrep",
		Subsystem: "engine",
		Name:      "matches_total",
		Help:      "Match records produced",
	}, []string{"source"})

	// ScanDuration measures a full scan of one file.
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rcsgrep",
		Subsystem: "engine",
		Name:      "scan_duration_seconds",
		Help:      "Time to scan every revision of one file",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// FilesIndexed counts index sync outcomes.
	// Labels: result (indexed, unchanged, failed, removed)
	FilesIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rcsgrep",
		Subsystem: "index",
		Name:      "files_total",
		Help:      "Files seen by index sync, by outcome",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
