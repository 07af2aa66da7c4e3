// Package metrics provides Prometheus instrumentation for rebuild runs and
// the venue client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts venue requests by request type and outcome.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpjournal_api_requests_total",
		Help: "Venue info requests by type and outcome",
	}, []string{"type", "outcome"})

	// APIRequestDuration tracks venue round trips, retries included.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perpjournal_api_request_duration_seconds",
		Help:    "Venue info request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"type"})

	// FillsProcessed counts fills walked by the tracker, per asset.
	FillsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpjournal_fills_processed_total",
		Help: "Fills annotated by the position tracker",
	}, []string{"asset"})

	// RowsEmitted counts trade rows produced, per asset.
	RowsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpjournal_rows_emitted_total",
		Help: "Trade rows produced after merging",
	}, []string{"asset"})

	// UnallocatedFunding is the funding left in the bucket after the last
	// fill, per asset.
	UnallocatedFunding = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "perpjournal_unallocated_funding_usd",
		Help: "Funding accrued on the open position and not yet realized",
	}, []string{"asset"})

	// RebuildsTotal counts rebuild runs by outcome.
	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpjournal_rebuilds_total",
		Help: "Rebuild runs by outcome",
	}, []string{"outcome"})

	// RebuildDuration tracks wall time of a rebuild run.
	RebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "perpjournal_rebuild_duration_seconds",
		Help:    "Rebuild run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
