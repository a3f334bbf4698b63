// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pollgate"

type Metrics struct {
	ChallengesStarted prometheus.Counter
	Answers           *prometheus.CounterVec
	Commits           *prometheus.CounterVec
	CommitRetries     prometheus.Counter
	SynthesisSeconds  prometheus.Histogram
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChallengesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenge",
			Name:      "started_total",
			Help:      "Vote attempts that received a first puzzle",
		}),
		Answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenge",
			Name:      "answers_total",
			Help:      "Puzzle answers by result",
		}, []string{"result"}),
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "commits_total",
			Help:      "Vote commits by outcome",
		}, []string{"outcome"}),
		CommitRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "commit_retries_total",
			Help:      "Vote inserts retried after lock contention",
		}),
		SynthesisSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "captcha",
			Name:      "synthesis_seconds",
			Help:      "Time spent rendering one puzzle",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		}),
	}
}

func (m *Metrics) ChallengeStarted() {
	if m == nil {
		return
	}
	m.ChallengesStarted.Inc()
}

func (m *Metrics) AnswerChecked(correct bool) {
	if m == nil {
		return
	}
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.Answers.WithLabelValues(result).Inc()
}

func (m *Metrics) CommitFinished(outcome string) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CommitRetried() {
	if m == nil {
		return
	}
	m.CommitRetries.Inc()
}

func (m *Metrics) ObserveSynthesis(d time.Duration) {
	if m == nil {
		return
	}
	m.SynthesisSeconds.Observe(d.Seconds())
}
