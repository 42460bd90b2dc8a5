package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FollowEvents counts follow and unfollow calls by outcome. The outcome is
	// "changed" when an edge was added or removed and "noop" otherwise.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_follow_events_total",
		Help: "Total number of follow and unfollow operations by outcome",
	}, []string{"action", "outcome"})

	// PostsCreated counts successfully stored posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microblog_posts_created_total",
		Help: "Total number of posts created",
	})

	// FeedQueryLatency records the latency of post listing queries by kind.
	FeedQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microblog_feed_query_latency_seconds",
		Help:    "Post listing query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microblog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MailDispatched counts outgoing mail by transport and result.
	MailDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_mail_dispatched_total",
		Help: "Total number of mail messages handed to a transport",
	}, []string{"transport", "result"})
)

// RecordFollow increments FollowEvents for action ("follow" or "unfollow").
func RecordFollow(action string, changed bool) {
	outcome := "noop"
	if changed {
		outcome = "changed"
	}
	FollowEvents.WithLabelValues(action, outcome).Inc()
}

// TrackFeed returns a function that records the elapsed time for kind when called.
func TrackFeed(kind string) func() {
	start := time.Now()
	return func() {
		FeedQueryLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
