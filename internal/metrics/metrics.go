// Package metrics exposes dialogue and delivery counters to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m3rciful/quizbot/internal/dialogue"
)

const namespace = "quizbot"

// Metrics holds the collectors fed by the engine and the state machine.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	created     prometheus.Counter
	completed   prometheus.Counter
	scoreRatio  prometheus.Histogram
	sends       *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Dialogue turns by source state, target state and outcome.",
		}, []string{"from", "to", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent in one dialogue turn, by flow family.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"family"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quizzes_created_total",
			Help:      "Quizzes committed by the construction flow.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quizzes_completed_total",
			Help:      "Quiz runs that reached a score report.",
		}),
		scoreRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quiz_score_ratio",
			Help:      "Share of correctly answered questions per completed run.",
			Buckets:   prometheus.LinearBuckets(0, 0.25, 5),
		}),
		sends: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Outbound Telegram calls by endpoint and result, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "result"}),
	}
	m.registry.MustRegister(
		m.transitions, m.duration, m.created, m.completed, m.scoreRatio, m.sends,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTransition records one finished turn.
func (m *Metrics) ObserveTransition(from, to dialogue.State, outcome string, took time.Duration) {
	m.transitions.WithLabelValues(from.Name(), to.Name(), outcome).Inc()
	m.duration.WithLabelValues(string(from.Family())).Observe(took.Seconds())
}

// QuizCreated counts a committed quiz.
func (m *Metrics) QuizCreated(context.Context, string) {
	m.created.Inc()
}

// QuizCompleted counts a finished run and its score share.
func (m *Metrics) QuizCompleted(_ context.Context, _ string, score, total int) {
	m.completed.Inc()
	if total > 0 {
		m.scoreRatio.Observe(float64(score) / float64(total))
	}
}

// ObserveSend records one finished outbound call.
func (m *Metrics) ObserveSend(endpoint, result string, _ int, took time.Duration) {
	m.sends.WithLabelValues(endpoint, result).Observe(took.Seconds())
}

// WatchSendErrors exposes a monotonically growing failure count, such as
// the sender dispatcher's.
func (m *Metrics) WatchSendErrors(count func() uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "send_failures_total",
		Help:      "Outbound Telegram calls that failed after retries.",
	}, func() float64 { return float64(count()) }))
}
