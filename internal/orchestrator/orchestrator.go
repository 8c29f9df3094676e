// Package orchestrator drives one RunOnce pipeline cycle end to end:
// assemble market context, run the fixed agent chain in strict order,
// record every step, hand the context to the decision engine, and settle
// the run's terminal status.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/decision"
	"github.com/ajitpratap0/cryptofunk/internal/market"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// candleLimit is the number of candles fetched per interval.
const candleLimit = 200

// intervals fetched into every run's PipelineContext.MarketData.
var intervals = []string{"15m", "1h", "4h", "1d"}

// Store is the slice of *db.DB this package needs, narrowed to an
// interface so tests can substitute a fake instead of a live Postgres
// pool — the same pattern internal/decision uses for its own Store/Queue.
type Store interface {
	GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error)
	InsertPipelineRun(ctx context.Context, run *pipeline.PipelineRun) error
	FinishPipelineRun(ctx context.Context, runID string, status pipeline.RunStatus, finishedAt time.Time) error
	InsertPipelineStep(ctx context.Context, step *pipeline.PipelineStep) error
	RecordAgentResult(ctx context.Context, runID, agentName, symbol string, result pipeline.AgentResult, at time.Time) error
}

// Orchestrator owns the long-lived handles RunOnce needs: the market
// gateway, the persistence store, the agent host, and the decision engine.
// Constructed once at startup and passed around explicitly as a long-lived
// handle rather than a package-level singleton.
type Orchestrator struct {
	gateway market.Gateway
	store   Store
	host    agents.Host
	engine  *decision.Engine
	metrics *agents.Metrics
}

// New builds an Orchestrator from its long-lived dependencies.
func New(gateway market.Gateway, store Store, host agents.Host, engine *decision.Engine, metrics *agents.Metrics) *Orchestrator {
	return &Orchestrator{gateway: gateway, store: store, host: host, engine: engine, metrics: metrics}
}

// RunOnce executes one full pipeline cycle for an account/symbol/timeframe
// triple and returns the settled PipelineRun. A fatal failure (the account
// is missing, or the run row itself cannot be inserted) aborts before any
// agent runs; everything after that point — including any single agent
// raising — completes the run and records what happened.
func (o *Orchestrator) RunOnce(ctx context.Context, accountID, symbol, timeframe string, mode pipeline.Mode) (*pipeline.PipelineRun, error) {
	account, err := o.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: failed to load account %s: %w", accountID, err)
	}

	run := &pipeline.PipelineRun{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Symbol:    symbol,
		Timeframe: timeframe,
		Status:    pipeline.RunStatusRunning,
		CreatedAt: time.Now(),
	}
	if err := o.store.InsertPipelineRun(ctx, run); err != nil {
		return nil, fmt.Errorf("orchestrator: failed to start run: %w", err)
	}

	marketData := o.fetchMarketData(ctx, symbol)

	pc := &pipeline.PipelineContext{
		RunID:        run.ID,
		AccountID:    accountID,
		Symbol:       symbol,
		Timeframe:    timeframe,
		Account:      *account,
		MarketData:   marketData,
		AgentResults: make(map[string]pipeline.AgentResult, len(pipeline.AgentOrder)),
	}

	o.runAgentChain(ctx, pc, mode)

	if _, err := o.engine.Run(ctx, pc); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("decision engine failed")
		finishErr := o.store.FinishPipelineRun(ctx, run.ID, pipeline.RunStatusFailed, time.Now())
		if finishErr != nil {
			log.Error().Err(finishErr).Str("run_id", run.ID).Msg("failed to mark run failed")
		}
		run.Status = pipeline.RunStatusFailed
		return run, fmt.Errorf("orchestrator: decision engine failed for run %s: %w", run.ID, err)
	}

	finishedAt := time.Now()
	if err := o.store.FinishPipelineRun(ctx, run.ID, pipeline.RunStatusCompleted, finishedAt); err != nil {
		return run, fmt.Errorf("orchestrator: failed to finish run %s: %w", run.ID, err)
	}
	run.Status = pipeline.RunStatusCompleted
	run.FinishedAt = &finishedAt

	return run, nil
}

// fetchMarketData fans candle fetches out across every interval
// concurrently; a single interval's exhaustion degrades to an empty slice
// (market.Gateway's own contract), it never fails the whole run.
func (o *Orchestrator) fetchMarketData(ctx context.Context, symbol string) map[string][]pipeline.Candle {
	out := make(map[string][]pipeline.Candle, len(intervals))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, interval := range intervals {
		interval := interval
		g.Go(func() error {
			candles, err := o.gateway.GetCandles(gctx, symbol, interval, candleLimit)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("market data fetch degraded to empty sequence")
			}
			mu.Lock()
			out[interval] = candles
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // fetchMarketData's goroutines never return a non-nil error; degrade instead.
	return out
}

// runAgentChain evaluates every agent in pipeline.AgentOrder, strictly in
// sequence: agent k+1 never starts before agent k's result is committed to
// pc.AgentResults. A single agent's error is recorded as a zero-score step
// carrying payload.error and does not abort the run.
func (o *Orchestrator) runAgentChain(ctx context.Context, pc *pipeline.PipelineContext, mode pipeline.Mode) {
	for _, name := range pipeline.AgentOrder {
		started := time.Now()
		result, stepErr := o.evaluateOne(ctx, pc, name, mode)
		finished := time.Now()

		pc.AgentResults[name] = result

		step := &pipeline.PipelineStep{
			RunID:      pc.RunID,
			AgentName:  name,
			StartedAt:  started,
			FinishedAt: finished,
			Score:      result.Score,
			Confidence: result.Confidence,
			Payload:    result.Payload,
		}
		if err := o.store.InsertPipelineStep(ctx, step); err != nil {
			log.Error().Err(err).Str("run_id", pc.RunID).Str("agent", name).Msg("failed to record pipeline step")
		}
		if stepErr == nil {
			if err := o.store.RecordAgentResult(ctx, pc.RunID, name, pc.Symbol, result, finished); err != nil {
				log.Error().Err(err).Str("run_id", pc.RunID).Str("agent", name).Msg("failed to record agent signal")
			}
		}
	}
}

func (o *Orchestrator) evaluateOne(ctx context.Context, pc *pipeline.PipelineContext, name string, mode pipeline.Mode) (pipeline.AgentResult, error) {
	start := time.Now()
	agent, err := o.host.Resolve(name, mode)
	if err != nil {
		o.metrics.Observe(name, mode, start, err)
		return errorResult(err), err
	}

	result, err := agent.Evaluate(ctx, pc)
	o.metrics.Observe(name, mode, start, err)
	if err != nil {
		log.Warn().Err(err).Str("agent", name).Msg("agent evaluation failed, recording zero-score step")
		return errorResult(err), err
	}
	return pipeline.ClampAgentResult(result), nil
}

func errorResult(err error) pipeline.AgentResult {
	return pipeline.AgentResult{
		Score:      0,
		Confidence: 0,
		Payload:    map[string]any{"error": err.Error()},
	}
}
