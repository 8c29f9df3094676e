package builtin

import (
	"context"
	"sort"

	"github.com/ajitpratap0/cryptofunk/internal/indicators"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const multiTimeframeEMAPeriod = 20

// MultiTimeframeAgent reads every interval present in PipelineContext's
// MarketData and scores how much their EMA(20) trend reads agree — full
// agreement across intervals drives both the score's magnitude and its
// confidence; disagreement pulls both toward neutral.
type MultiTimeframeAgent struct {
	indicators *indicators.Service
}

// NewMultiTimeframeAgent builds the multi-timeframe agent.
func NewMultiTimeframeAgent(svc *indicators.Service) *MultiTimeframeAgent {
	return &MultiTimeframeAgent{indicators: svc}
}

// Name returns the agent's registered name.
func (a *MultiTimeframeAgent) Name() string { return "multi-timeframe" }

// Evaluate scores +1 when every interval trends bullish, -1 when every
// interval trends bearish, and scales toward zero as intervals disagree.
func (a *MultiTimeframeAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	if len(pc.MarketData) == 0 {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}

	intervals := make([]string, 0, len(pc.MarketData))
	for interval := range pc.MarketData {
		intervals = append(intervals, interval)
	}
	sort.Strings(intervals)

	var bullish, bearish, evaluated int
	perInterval := make(map[string]string, len(intervals))

	for _, interval := range intervals {
		candles := pc.MarketData[interval]
		if len(candles) < multiTimeframeEMAPeriod+1 {
			continue
		}

		emaArgs := toArgs(closes(candles))
		emaArgs["period"] = multiTimeframeEMAPeriod
		raw, err := a.indicators.CalculateEMA(emaArgs)
		if err != nil {
			continue
		}
		ema := raw.(*indicators.EMAResult)
		perInterval[interval] = ema.Trend
		evaluated++

		switch ema.Trend {
		case "bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}

	if evaluated == 0 {
		return insufficientDataResult("no interval had enough candles for EMA(20)"), nil
	}

	dominant := bullish
	if bearish > dominant {
		dominant = bearish
	}

	score := float64(bullish-bearish) / float64(evaluated)
	agreement := float64(dominant) / float64(evaluated)
	confidence := 30 + agreement*60

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"intervals_evaluated": evaluated,
			"per_interval_trend":  perInterval,
		},
	}), nil
}
