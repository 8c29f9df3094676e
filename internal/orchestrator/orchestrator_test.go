package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/decision"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// sharedMetrics is constructed once per test binary: agents.NewMetrics
// registers its collectors with the default Prometheus registry, and a
// second registration under the same names panics.
var sharedMetrics = agents.NewMetrics()

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

type fakeStore struct {
	account  *pipeline.Account
	runs     []*pipeline.PipelineRun
	finished map[string]pipeline.RunStatus
	steps    []*pipeline.PipelineStep
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		account:  &pipeline.Account{ID: "acct-1", CurrentBalance: 10000, MaxLeverage: 10, MaxRiskPerTradePct: 1},
		finished: make(map[string]pipeline.RunStatus),
	}
}

func (f *fakeStore) GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error) {
	return f.account, nil
}

func (f *fakeStore) InsertPipelineRun(ctx context.Context, run *pipeline.PipelineRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) FinishPipelineRun(ctx context.Context, runID string, status pipeline.RunStatus, finishedAt time.Time) error {
	f.finished[runID] = status
	return nil
}

func (f *fakeStore) InsertPipelineStep(ctx context.Context, step *pipeline.PipelineStep) error {
	f.steps = append(f.steps, step)
	return nil
}

func (f *fakeStore) RecordAgentResult(ctx context.Context, runID, agentName, symbol string, result pipeline.AgentResult, at time.Time) error {
	return nil
}

type fakeDecisionStore struct{}

func (fakeDecisionStore) InsertTradeSignal(ctx context.Context, sig *db.TradeSignal) error { return nil }
func (fakeDecisionStore) InsertBrainDecision(ctx context.Context, d *db.BrainDecision) error {
	return nil
}

type fakeQueue struct{}

func (fakeQueue) Enqueue(ctx context.Context, id string) error { return nil }

// stubAgent returns a fixed result, or an error when failOn is true —
// used to simulate exactly one agent in the chain raising.
type stubAgent struct {
	name    string
	failOn  bool
	score   float64
	confPct float64
}

func (s stubAgent) Name() string { return s.name }

func (s stubAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	if s.failOn {
		return pipeline.AgentResult{}, fmt.Errorf("stub agent %s: simulated failure", s.name)
	}
	return pipeline.AgentResult{Score: s.score, Confidence: s.confPct}, nil
}

// stubHost resolves every agent name in pipeline.AgentOrder to a stubAgent,
// forcing exactly one named agent to fail.
type stubHost struct {
	failAgent string
}

func (h stubHost) Resolve(name string, mode pipeline.Mode) (agents.Agent, error) {
	return stubAgent{name: name, failOn: name == h.failAgent, score: 0.6, confPct: 80}, nil
}

func TestOrchestrator_AgentFailureDoesNotAbortRun(t *testing.T) {
	store := newFakeStore()
	engine := decision.NewEngine(fakeDecisionStore{}, fakeQueue{})
	host := stubHost{failAgent: pipeline.AgentOrder[4]}
	orc := New(fakeGateway{}, store, host, engine, sharedMetrics)

	run, err := orc.RunOnce(context.Background(), "acct-1", "BTCUSDT", "1h", pipeline.ModeInProcess)

	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusCompleted, run.Status)
	assert.Equal(t, pipeline.RunStatusCompleted, store.finished[run.ID])

	require.Len(t, store.steps, len(pipeline.AgentOrder))
	for i, step := range store.steps {
		assert.Equal(t, pipeline.AgentOrder[i], step.AgentName)
	}

	failedStep := store.steps[4]
	assert.Equal(t, pipeline.AgentOrder[4], failedStep.AgentName)
	assert.Equal(t, 0.0, failedStep.Score)
	require.Contains(t, failedStep.Payload, "error")

	for i, step := range store.steps {
		if i == 4 {
			continue
		}
		assert.NotContains(t, step.Payload, "error")
	}
}

func TestOrchestrator_UnknownAccount_AbortsBeforeAnyAgentRuns(t *testing.T) {
	store := newFakeStore()
	store.account = nil
	badStore := &errorAccountStore{fakeStore: store}
	engine := decision.NewEngine(fakeDecisionStore{}, fakeQueue{})
	host := stubHost{}
	orc := New(fakeGateway{}, badStore, host, engine, sharedMetrics)

	run, err := orc.RunOnce(context.Background(), "missing", "BTCUSDT", "1h", pipeline.ModeInProcess)

	require.Error(t, err)
	assert.Nil(t, run)
	assert.Empty(t, store.steps)
	assert.Empty(t, store.runs)
}

type errorAccountStore struct {
	*fakeStore
}

func (e *errorAccountStore) GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error) {
	return nil, fmt.Errorf("account %s not found", accountID)
}
