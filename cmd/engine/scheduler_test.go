package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/decision"
	"github.com/ajitpratap0/cryptofunk/internal/orchestrator"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// sharedMetrics is constructed once per test binary: agents.NewMetrics
// registers its collectors with the default Prometheus registry, and a
// second registration under the same names panics.
var (
	sharedMetricsOnce sync.Once
	sharedMetrics     *agents.Metrics
)

func testMetrics() *agents.Metrics {
	sharedMetricsOnce.Do(func() { sharedMetrics = agents.NewMetrics() })
	return sharedMetrics
}

type fakeGateway struct{}

func (fakeGateway) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]pipeline.Candle, error) {
	candles := make([]pipeline.Candle, 20)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		closePrice := 99 + float64(i)*(1.0/19)
		candles[i] = pipeline.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     closePrice - 0.02,
			High:     closePrice + 0.1,
			Low:      closePrice - 0.3,
			Close:    closePrice,
			Volume:   100 + float64(i)*2,
		}
	}
	return candles, nil
}

type fakeOrchStore struct {
	account *pipeline.Account
}

func (f *fakeOrchStore) GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error) {
	return f.account, nil
}
func (f *fakeOrchStore) InsertPipelineRun(ctx context.Context, run *pipeline.PipelineRun) error {
	return nil
}
func (f *fakeOrchStore) FinishPipelineRun(ctx context.Context, runID string, status pipeline.RunStatus, finishedAt time.Time) error {
	return nil
}
func (f *fakeOrchStore) InsertPipelineStep(ctx context.Context, step *pipeline.PipelineStep) error {
	return nil
}
func (f *fakeOrchStore) RecordAgentResult(ctx context.Context, runID, agentName, symbol string, result pipeline.AgentResult, at time.Time) error {
	return nil
}

type fakeDecisionStore struct{}

func (fakeDecisionStore) InsertTradeSignal(ctx context.Context, sig *db.TradeSignal) error {
	return nil
}
func (fakeDecisionStore) InsertBrainDecision(ctx context.Context, d *db.BrainDecision) error {
	return nil
}

type fakeDecisionQueue struct{}

func (fakeDecisionQueue) Enqueue(ctx context.Context, id string) error { return nil }

type stubAgent struct {
	name string
}

func (s stubAgent) Name() string { return s.name }

func (s stubAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	return pipeline.AgentResult{Score: 0.6, Confidence: 80}, nil
}

type stubHost struct{}

func (stubHost) Resolve(name string, mode pipeline.Mode) (agents.Agent, error) {
	return stubAgent{name: name}, nil
}

func newTestOrchestrator() *orchestrator.Orchestrator {
	store := &fakeOrchStore{account: &pipeline.Account{ID: "acct-1", CurrentBalance: 10000, MaxLeverage: 10, MaxRiskPerTradePct: 1}}
	engine := decision.NewEngine(fakeDecisionStore{}, fakeDecisionQueue{})
	return orchestrator.New(fakeGateway{}, store, stubHost{}, engine, testMetrics())
}

func TestScheduler_Trigger_RunsOnceImmediately(t *testing.T) {
	orch := newTestOrchestrator()
	sched := newScheduler(orch, config.PipelineConfig{IntervalMS: 60000})

	run, err := sched.Trigger(context.Background(), "acct-1", "BTCUSDT", "1h", pipeline.ModeInProcess)

	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusCompleted, run.Status)
}

func TestScheduler_DefaultMode_FallsBackToInProcess(t *testing.T) {
	sched := newScheduler(newTestOrchestrator(), config.PipelineConfig{Mode: "bogus"})
	assert.Equal(t, pipeline.ModeInProcess, sched.defaultMode())
}

func TestScheduler_DefaultMode_Remote(t *testing.T) {
	sched := newScheduler(newTestOrchestrator(), config.PipelineConfig{Mode: "remote"})
	assert.Equal(t, pipeline.ModeRemote, sched.defaultMode())
}

func TestScheduler_Run_StopsOnContextCancel(t *testing.T) {
	sched := newScheduler(newTestOrchestrator(), config.PipelineConfig{IntervalMS: 10})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
