// Package e2e drives the full pipeline — orchestrator, decision engine,
// execution queue, and execution worker — wired together the way cmd/engine
// wires them, rather than exercising each package against its own fakes in
// isolation.
package e2e

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/decision"
	"github.com/ajitpratap0/cryptofunk/internal/exchange"
	"github.com/ajitpratap0/cryptofunk/internal/execution"
	"github.com/ajitpratap0/cryptofunk/internal/orchestrator"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
	"github.com/ajitpratap0/cryptofunk/internal/queue"
)

// sharedStore backs orchestrator.Store, decision.Store, and execution.Store
// simultaneously, the way *db.DB does in production, so a single run's
// writes (pipeline steps, a trade signal, its eventual status update) are
// all visible to every stage that reads them back.
type sharedStore struct {
	mu        sync.Mutex
	account   *pipeline.Account
	runs      []pipeline.PipelineRun
	steps     []pipeline.PipelineStep
	signals   map[string]*db.TradeSignal
	decisions []db.BrainDecision
	history   []db.TradeHistory
}

func newSharedStore(account *pipeline.Account) *sharedStore {
	return &sharedStore{account: account, signals: make(map[string]*db.TradeSignal)}
}

func (s *sharedStore) GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil || s.account.ID != accountID {
		return nil, assert.AnError
	}
	cp := *s.account
	return &cp, nil
}

func (s *sharedStore) InsertPipelineRun(ctx context.Context, run *pipeline.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *sharedStore) FinishPipelineRun(ctx context.Context, runID string, status pipeline.RunStatus, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == runID {
			s.runs[i].Status = status
			s.runs[i].FinishedAt = &finishedAt
		}
	}
	return nil
}

func (s *sharedStore) InsertPipelineStep(ctx context.Context, step *pipeline.PipelineStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, *step)
	return nil
}

func (s *sharedStore) RecordAgentResult(ctx context.Context, runID, agentName, symbol string, result pipeline.AgentResult, at time.Time) error {
	return nil
}

func (s *sharedStore) InsertTradeSignal(ctx context.Context, sig *db.TradeSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sig
	s.signals[sig.ID] = &cp
	return nil
}

func (s *sharedStore) InsertBrainDecision(ctx context.Context, d *db.BrainDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, *d)
	return nil
}

func (s *sharedStore) GetTradeSignal(ctx context.Context, id string) (*db.TradeSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *sig
	return &cp, nil
}

func (s *sharedStore) UpdateTradeSignalStatus(ctx context.Context, id string, status db.TradeSignalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return assert.AnError
	}
	sig.Status = status
	return nil
}

func (s *sharedStore) InsertTradeHistory(ctx context.Context, t *db.TradeHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *t)
	return nil
}

func (s *sharedStore) signal(id string) *db.TradeSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals[id]
}

func (s *sharedStore) stepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// fakeGateway returns a fixed, tight-uptrend candle sequence regardless of
// (symbol, interval) — the same shape the decision engine's own bullish
// fixtures use, so every interval's candles agree on direction and the
// multi-timeframe analysis reports full alignment.
type fakeGateway struct{}

func (fakeGateway) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]pipeline.Candle, error) {
	const n = 60
	candles := make([]pipeline.Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 1.0 / float64(n-1)
	for i := 0; i < n; i++ {
		closePrice := 99 + float64(i)*step
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

// scriptedAgent always returns the same score/confidence, regardless of
// market data, so every seed scenario can be driven by picking scripts.
type scriptedAgent struct {
	name       string
	score      float64
	confidence float64
	fail       bool
}

func (a scriptedAgent) Name() string { return a.name }

func (a scriptedAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	if a.fail {
		return pipeline.AgentResult{}, assert.AnError
	}
	return pipeline.AgentResult{Score: a.score, Confidence: a.confidence}, nil
}

type scriptedHost struct {
	agents map[string]agents.Agent
}

func (h scriptedHost) Resolve(name string, mode pipeline.Mode) (agents.Agent, error) {
	return h.agents[name], nil
}

func bullishHost() scriptedHost {
	h := scriptedHost{agents: make(map[string]agents.Agent, len(pipeline.AgentOrder))}
	for _, name := range pipeline.AgentOrder {
		h.agents[name] = scriptedAgent{name: name, score: 0.6, confidence: 80}
	}
	return h
}

// scriptedExchange satisfies exchange.Exchange with a single scripted
// PlaceOrder response and counts calls, standing in for a live venue.
type scriptedExchange struct {
	mu    sync.Mutex
	resp  *exchange.PlaceOrderResponse
	err   error
	calls int
}

func (e *scriptedExchange) PlaceOrder(ctx context.Context, req exchange.PlaceOrderRequest) (*exchange.PlaceOrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.resp, nil
}

func (e *scriptedExchange) CancelOrder(ctx context.Context, orderID string) (*exchange.Order, error) {
	return nil, nil
}

func (e *scriptedExchange) GetOrder(ctx context.Context, orderID string) (*exchange.Order, error) {
	return nil, nil
}

func (e *scriptedExchange) GetOrderFills(ctx context.Context, orderID string) ([]exchange.Fill, error) {
	return nil, nil
}

func (e *scriptedExchange) SetMarketPrice(symbol string, price float64) {}

func (e *scriptedExchange) SetSession(sessionID *uuid.UUID) {}

func (e *scriptedExchange) GetSession() *uuid.UUID { return nil }

func (e *scriptedExchange) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestRedisQueue(t *testing.T) (*queue.RedisQueue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return queue.NewRedisQueue(rdb), rdb
}

// TestFullPipeline_BullishRunPlacesOrder drives one complete cycle: nine
// aligned bullish agents produce an enter-long decision, the decision
// engine persists and enqueues the trade signal, and the execution worker
// dequeues it, places the order, and records trade history — all through
// the real wiring cmd/engine assembles, not per-package fakes.
func TestFullPipeline_BullishRunPlacesOrder(t *testing.T) {
	account := &pipeline.Account{ID: "acct-1", CurrentBalance: 10000, MaxLeverage: 10, MaxRiskPerTradePct: 1}
	store := newSharedStore(account)
	execQueue, _ := newTestRedisQueue(t)

	engine := decision.NewEngine(store, execQueue)
	orch := orchestrator.New(fakeGateway{}, store, bullishHost(), engine, agents.NewMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run, err := orch.RunOnce(ctx, "acct-1", "BTCUSDT", "1h", pipeline.ModeInProcess)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusCompleted, run.Status)
	assert.Equal(t, len(pipeline.AgentOrder), store.stepCount())

	require.Len(t, store.signals, 1)
	var signalID string
	for id := range store.signals {
		signalID = id
	}
	require.Equal(t, db.TradeSignalStatusPending, store.signal(signalID).Status)

	venue := &scriptedExchange{resp: &exchange.PlaceOrderResponse{OrderID: "ord-1", Status: exchange.OrderStatusOpen}}
	worker := execution.New(store, execQueue, venue, "mock", nil, nil, true)

	processCtx, processCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer processCancel()
	go func() { _ = worker.Run(processCtx) }()

	require.Eventually(t, func() bool {
		sig := store.signal(signalID)
		return sig != nil && sig.Status == db.TradeSignalStatusExecuted
	}, 2*time.Second, 20*time.Millisecond, "signal should transition to executed")

	assert.Equal(t, 1, venue.callCount())
	require.Len(t, store.history, 1)
}

// TestFullPipeline_AgentFailureStillCompletesRun exercises seed scenario 4:
// a failing agent degrades its own step without aborting the chain.
func TestFullPipeline_AgentFailureStillCompletesRun(t *testing.T) {
	account := &pipeline.Account{ID: "acct-1", CurrentBalance: 10000, MaxLeverage: 10, MaxRiskPerTradePct: 1}
	store := newSharedStore(account)
	execQueue, _ := newTestRedisQueue(t)
	engine := decision.NewEngine(store, execQueue)

	host := bullishHost()
	host.agents[pipeline.AgentOrder[4]] = scriptedAgent{name: pipeline.AgentOrder[4], fail: true}
	orch := orchestrator.New(fakeGateway{}, store, host, engine, agents.NewMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run, err := orch.RunOnce(ctx, "acct-1", "BTCUSDT", "1h", pipeline.ModeInProcess)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusCompleted, run.Status)
	assert.Equal(t, len(pipeline.AgentOrder), store.stepCount())
}

// TestFullPipeline_LiveExecutionDisabled_NeverCallsVenue exercises seed
// scenario 6: a bullish decision still creates a TradeSignal, but with the
// live-execution switch off the worker never reaches the venue.
func TestFullPipeline_LiveExecutionDisabled_NeverCallsVenue(t *testing.T) {
	account := &pipeline.Account{ID: "acct-1", CurrentBalance: 10000, MaxLeverage: 10, MaxRiskPerTradePct: 1}
	store := newSharedStore(account)
	execQueue, _ := newTestRedisQueue(t)
	engine := decision.NewEngine(store, execQueue)
	orch := orchestrator.New(fakeGateway{}, store, bullishHost(), engine, agents.NewMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	run, err := orch.RunOnce(ctx, "acct-1", "BTCUSDT", "1h", pipeline.ModeInProcess)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusCompleted, run.Status)
	require.Len(t, store.signals, 1)

	venue := &scriptedExchange{resp: &exchange.PlaceOrderResponse{OrderID: "ord-1", Status: exchange.OrderStatusOpen}}
	worker := execution.New(store, execQueue, venue, "mock", nil, nil, false)

	processCtx, processCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer processCancel()
	go func() { _ = worker.Run(processCtx) }()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, venue.callCount())
}
