package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the whisper bot
type Metrics struct {
	// Whisper flow metrics
	WaitsStarted     prometheus.Counter
	WhispersIssued   prometheus.Counter
	WhispersRedeemed prometheus.Counter
	WhispersExpired  prometheus.Counter
	WaitsExpired     prometheus.Counter

	// Subscription metrics
	SubscriptionChanges *prometheus.CounterVec

	// Telegram delivery metrics
	SendErrors *prometheus.CounterVec

	// Sweeper metrics
	SweepDuration prometheus.Histogram
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		WaitsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "najbot_waits_started_total",
			Help: "Total number of whisper waiting states created",
		}),
		WhispersIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "najbot_whispers_issued_total",
			Help: "Total number of whisper tokens issued",
		}),
		WhispersRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "najbot_whispers_redeemed_total",
			Help: "Total number of whisper tokens redeemed by their target",
		}),
		WhispersExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "najbot_whispers_expired_total",
			Help: "Total number of whisper tokens removed by the expiry sweeper",
		}),
		WaitsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "najbot_waits_expired_total",
			Help: "Total number of waiting states removed by the expiry sweeper",
		}),
		SubscriptionChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "najbot_subscription_changes_total",
				Help: "Total number of subscription changes",
			},
			[]string{"action"},
		),
		SendErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "najbot_send_errors_total",
				Help: "Total number of Telegram send errors",
			},
			[]string{"error_type"},
		),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "najbot_sweep_duration_seconds",
			Help:    "Duration of expiry sweep cycles",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
