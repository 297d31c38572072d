package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	FetchRuns       prometheus.Counter
	RateLimitedRuns prometheus.Counter
	PagesFetched    prometheus.Counter
	MessagesListed  prometheus.Counter
	EmailsExtracted prometheus.Counter
	EmailsDiscarded prometheus.Counter
	ExtractFailures prometheus.Counter
	EmailsStored    prometheus.Counter
	RunDuration     prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		FetchRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_fetch_runs_total",
			Help: "Total number of ingestion runs started",
		}),
		RateLimitedRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_rate_limited_runs_total",
			Help: "Total number of ingestion runs rejected by the burst limiter",
		}),
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_pages_fetched_total",
			Help: "Total number of listing pages fetched from the mailbox provider",
		}),
		MessagesListed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_messages_listed_total",
			Help: "Total number of message references returned by listing",
		}),
		EmailsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_emails_extracted_total",
			Help: "Total number of emails successfully extracted",
		}),
		EmailsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_emails_discarded_total",
			Help: "Total number of emails discarded for insufficient content",
		}),
		ExtractFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_extract_failures_total",
			Help: "Total number of per-message fetch or parse failures",
		}),
		EmailsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "substack_digest_emails_stored_total",
			Help: "Total number of email rows upserted into storage",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "substack_digest_run_duration_seconds",
			Help:    "Time spent on one ingestion run",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
