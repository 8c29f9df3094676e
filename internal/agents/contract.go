// Package agents defines the uniform contract every trading agent
// implements, plus two host strategies for running them: in-process
// (direct Go call) and remote (HTTP microservice).
package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// Agent is the single operation every agent exposes, whether it runs
// in-process or behind a remote HTTP endpoint: given the run's context so
// far, produce one score/confidence/payload result.
type Agent interface {
	Name() string
	Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error)
}

// Host resolves an agent name to a callable Agent for a given Mode.
type Host interface {
	Resolve(name string, mode pipeline.Mode) (Agent, error)
}

// Metrics holds the Prometheus instrumentation shared by every agent
// invocation, regardless of host. Constructed once per process via
// NewMetrics, mirroring the per-component promauto registration pattern used
// elsewhere in this codebase.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationErrors   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
}

// NewMetrics registers the agent evaluation metric family. Safe to call
// once per process; callers that construct a Host at startup should keep
// the single instance around rather than reconstructing it.
func NewMetrics() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_agent_evaluations_total",
			Help: "Total number of agent evaluations, by agent name and mode.",
		}, []string{"agent", "mode"}),
		EvaluationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_agent_evaluation_errors_total",
			Help: "Total number of agent evaluation errors, by agent name and mode.",
		}, []string{"agent", "mode"}),
		EvaluationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_agent_evaluation_duration_seconds",
			Help:    "Duration of agent evaluations, by agent name and mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent", "mode"}),
	}
}

// Observe records one evaluation's outcome and timing.
func (m *Metrics) Observe(agentName string, mode pipeline.Mode, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	m.EvaluationsTotal.WithLabelValues(agentName, string(mode)).Inc()
	m.EvaluationDuration.WithLabelValues(agentName, string(mode)).Observe(elapsed)
	if err != nil {
		m.EvaluationErrors.WithLabelValues(agentName, string(mode)).Inc()
	}
}

// errUnknownAgent builds the error a Host returns when asked to resolve a
// name outside the fixed roster.
func errUnknownAgent(name string) error {
	return fmt.Errorf("agents: unknown agent %q", name)
}
