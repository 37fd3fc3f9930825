package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_sweeps_total",
		Help: "Notification sweeps by outcome",
	}, []string{"status"})

	DueNotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_due_notifications_created_total",
		Help: "due_soon notifications written by the sweeper",
	})

	SweepBorrowFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_sweep_borrow_failures_total",
		Help: "Borrows the sweeper failed to notify",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookstore_sweep_duration_seconds",
		Help:    "Notification sweep latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_recommendations_total",
		Help: "Recommendation requests by ranking source",
	}, []string{"source"})

	// DanglingBookRefs counts ledger or review rows whose book no longer exists.
	DanglingBookRefs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_dangling_book_refs_total",
		Help: "Book ids skipped during resolution because the book was deleted",
	}, []string{"component"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_events_published_total",
		Help: "Outbound events by topic and outcome",
	}, []string{"topic", "status"})
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)
