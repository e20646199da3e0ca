package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Process outcomes recorded in sennatag_engine_processes_total.
const (
	OutcomeOK          = "ok"
	OutcomeLaunchError = "launch_error"
	OutcomeFailed      = "failed"
	OutcomeInterrupted = "interrupted"
)

// Metrics collects engine process statistics. A nil *Metrics records nothing.
type Metrics struct {
	processes *prometheus.CounterVec
	duration  prometheus.Histogram
	running   prometheus.Gauge
	sentences prometheus.Counter
}

// NewMetrics creates the engine collectors and registers them with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sennatag_engine_processes_total",
				Help: "Engine processes run, by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sennatag_engine_process_duration_seconds",
			Help:    "Wall time of engine processes",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sennatag_engine_processes_running",
			Help: "Engine processes currently alive",
		}),
		sentences: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sennatag_engine_sentences_tagged_total",
			Help: "Sentences that received engine output",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.processes, m.duration, m.running, m.sentences)
	}
	return m
}

func (m *Metrics) processStarted() {
	if m == nil {
		return
	}
	m.running.Inc()
}

func (m *Metrics) processDone(outcome string, elapsed time.Duration, sentences int) {
	if m == nil {
		return
	}
	m.running.Dec()
	m.processes.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.sentences.Add(float64(sentences))
}

func (m *Metrics) launchFailed() {
	if m == nil {
		return
	}
	m.processes.WithLabelValues(OutcomeLaunchError).Inc()
}
