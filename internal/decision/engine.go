package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// Store is the subset of *db.DB the engine needs to persist its output.
// Declared locally so this package depends on behavior, not the concrete
// *db.DB type.
type Store interface {
	InsertTradeSignal(ctx context.Context, sig *db.TradeSignal) error
	InsertBrainDecision(ctx context.Context, d *db.BrainDecision) error
}

// Queue is the subset of the execution queue the engine needs: enqueue a
// trade signal id for the execution worker to pick up.
type Queue interface {
	Enqueue(ctx context.Context, id string) error
}

// Engine runs the eight-stage professional decision pipeline and persists
// its output.
type Engine struct {
	store Store
	queue Queue
}

// NewEngine builds a decision engine bound to a store and queue.
func NewEngine(store Store, queue Queue) *Engine {
	return &Engine{store: store, queue: queue}
}

// Run executes all eight stages against pc and, for a non-wait action,
// inserts a pending TradeSignal and enqueues its id; every outcome —
// including wait — appends a BrainDecision row.
func (e *Engine) Run(ctx context.Context, pc *pipeline.PipelineContext) (*ProfessionalReasoning, error) {
	mtf := analyzeMultiTimeframe(pc)
	marketCtx := deriveMarketContext(pc, mtf)
	setup := identifySetup(pc, mtf, marketCtx)
	riskReward := computeRiskReward(pc, mtf, marketCtx, setup)
	psych := assessPsychology(marketCtx)
	plan := buildTradePlan(setup, riskReward, pc.Account.CurrentBalance)
	decision := evaluateChecklist(pc, mtf, setup, riskReward, psych)
	execution := buildExecution(decision, setup, marketCtx, plan)

	reasoning := &ProfessionalReasoning{
		MTF:        mtf,
		MarketCtx:  marketCtx,
		Setup:      setup,
		RiskReward: riskReward,
		Psychology: psych,
		Plan:       plan,
		Decision:   decision,
		Execution:  execution,
	}

	if err := e.persist(ctx, pc, reasoning); err != nil {
		return reasoning, err
	}

	return reasoning, nil
}

func (e *Engine) persist(ctx context.Context, pc *pipeline.PipelineContext, reasoning *ProfessionalReasoning) error {
	now := time.Now()
	decisionRecord := reasoning.Decision

	if decisionRecord.Action != "wait" {
		signalID := uuid.New().String()
		sig := &db.TradeSignal{
			ID:             signalID,
			AccountID:      pc.AccountID,
			Symbol:         pc.Symbol,
			Timeframe:      pc.Timeframe,
			Direction:      db.TradeDirection(decisionRecord.Direction),
			Confidence:     decisionRecord.Confidence,
			Status:         db.TradeSignalStatusPending,
			CreatedByAgent: "professional-decision",
			AIReasoning:    reasoningToMap(reasoning),
			CreatedAt:      now,
		}
		if reasoning.Plan != nil {
			sig.Leverage = reasoning.Plan.Sizing.Leverage
			sig.PositionSizeUSD = floatPtr(reasoning.Plan.Sizing.USDValue)
		}
		if reasoning.RiskReward != nil {
			sig.EntryPrice = floatPtr(reasoning.RiskReward.Entry)
			sig.StopLoss = floatPtr(reasoning.RiskReward.Stop)
			if len(reasoning.RiskReward.Targets) > 0 {
				sig.TakeProfit = floatPtr(reasoning.RiskReward.Targets[0].Price)
			}
		}

		if err := e.store.InsertTradeSignal(ctx, sig); err != nil {
			return fmt.Errorf("decision: failed to insert trade signal: %w", err)
		}

		if err := e.queue.Enqueue(ctx, signalID); err != nil {
			log.Error().Err(err).Str("signal_id", signalID).Msg("failed to enqueue trade signal")
			return fmt.Errorf("decision: failed to enqueue trade signal %s: %w", signalID, err)
		}
	}

	brainDecision := &db.BrainDecision{
		ID:                    uuid.New().String(),
		AccountID:             pc.AccountID,
		Symbol:                pc.Symbol,
		Action:                decisionRecord.Action,
		Reasoning:             reasoningSummary(reasoning),
		ProfessionalReasoning: reasoningToMap(reasoning),
		CreatedAt:             now,
	}
	if err := e.store.InsertBrainDecision(ctx, brainDecision); err != nil {
		return fmt.Errorf("decision: failed to insert brain decision: %w", err)
	}

	return nil
}

func floatPtr(v float64) *float64 { return &v }

func reasoningSummary(r *ProfessionalReasoning) string {
	if r.Decision.Action == "wait" {
		return fmt.Sprintf("wait: confidence %.0f, alignment %.0f", r.Decision.Confidence, r.MTF.Alignment)
	}
	return fmt.Sprintf("%s: confidence %.0f, quality %.0f, R:R %.2f",
		r.Decision.Action, r.Decision.Confidence, qualityOf(r.Setup), rrOf(r.RiskReward))
}

func qualityOf(s *TradeSetup) float64 {
	if s == nil {
		return 0
	}
	return s.Quality
}

func rrOf(rr *RiskReward) float64 {
	if rr == nil {
		return 0
	}
	return rr.RR
}
