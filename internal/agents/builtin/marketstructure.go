package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/indicators"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const marketStructurePeriod = 50

// MarketStructureAgent classifies the primary trend (trending up/down or
// ranging) from an EMA(50)-vs-price read together with ADX trend strength.
type MarketStructureAgent struct {
	indicators *indicators.Service
}

// NewMarketStructureAgent builds the market-structure agent.
func NewMarketStructureAgent(svc *indicators.Service) *MarketStructureAgent {
	return &MarketStructureAgent{indicators: svc}
}

// Name returns the agent's registered name in the fixed chain.
func (a *MarketStructureAgent) Name() string { return "market-structure" }

// Evaluate scores +1 for a bullish EMA trend, -1 for a bearish one, and 0
// for a neutral (ranging) read. ADX trend strength sets the confidence,
// not the score.
func (a *MarketStructureAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	candles, ok := primaryCandles(pc)
	if !ok {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}
	if len(candles) < marketStructurePeriod+2 {
		return insufficientDataResult("fewer candles than the EMA/ADX lookback period"), nil
	}

	closePrices := closes(candles)
	emaArgs := toArgs(closePrices)
	emaArgs["period"] = marketStructurePeriod

	emaRaw, err := a.indicators.CalculateEMA(emaArgs)
	if err != nil {
		return insufficientDataResult("EMA calculation failed: " + err.Error()), nil
	}
	ema := emaRaw.(*indicators.EMAResult)

	adxArgs := map[string]interface{}{
		"high":  toInterfaceSlice(highs(candles)),
		"low":   toInterfaceSlice(lows(candles)),
		"close": toInterfaceSlice(closePrices),
	}
	adxRaw, err := a.indicators.CalculateADX(adxArgs)
	if err != nil {
		return insufficientDataResult("ADX calculation failed: " + err.Error()), nil
	}
	adx := adxRaw.(*indicators.ADXResult)

	var score float64
	switch ema.Trend {
	case "bullish":
		score = 1
	case "bearish":
		score = -1
	default:
		score = 0
	}

	confidence := 30.0
	switch adx.Strength {
	case "strong":
		confidence = 65
	case "very_strong":
		confidence = 90
	}
	if ema.Trend == "neutral" {
		// No directional conviction even if ADX reads high on a whipsaw.
		confidence = 20
		score = 0
	}

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"ema_trend":    ema.Trend,
			"ema_value":    ema.Value,
			"adx_value":    adx.Value,
			"adx_strength": adx.Strength,
		},
	}), nil
}

