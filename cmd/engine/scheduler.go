package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/orchestrator"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const defaultSchedulerInterval = 5 * time.Minute

// scheduler ticks the orchestrator at a fixed interval for the configured
// default account/symbol/timeframe, and also exposes Trigger for the
// control plane's on-demand POST /pipeline/run.
type scheduler struct {
	orch     *orchestrator.Orchestrator
	cfg      config.PipelineConfig
	interval time.Duration
}

func newScheduler(orch *orchestrator.Orchestrator, cfg config.PipelineConfig) *scheduler {
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	return &scheduler{orch: orch, cfg: cfg, interval: interval}
}

// Run ticks until ctx is cancelled, triggering one pipeline run per tick for
// the configured default account/symbol/timeframe.
func (s *scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", s.interval).
		Str("account_id", s.cfg.DefaultAccountID).
		Str("symbol", s.cfg.DefaultSymbol).
		Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Trigger(ctx, s.cfg.DefaultAccountID, s.cfg.DefaultSymbol, s.cfg.DefaultTimeframe, s.defaultMode()); err != nil {
				log.Error().Err(err).Msg("scheduled pipeline run failed")
			}
		}
	}
}

// Trigger runs one pipeline cycle immediately, used both by the ticker and
// by the control plane's POST /pipeline/run.
func (s *scheduler) Trigger(ctx context.Context, accountID, symbol, timeframe string, mode pipeline.Mode) (*pipeline.PipelineRun, error) {
	return s.orch.RunOnce(ctx, accountID, symbol, timeframe, mode)
}

func (s *scheduler) defaultMode() pipeline.Mode {
	if s.cfg.Mode == string(pipeline.ModeRemote) {
		return pipeline.ModeRemote
	}
	return pipeline.ModeInProcess
}
