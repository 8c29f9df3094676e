package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/indicators"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const (
	volatilityRegimePeriod = 20
	volatilityHighWidthPct = 6.0
	volatilityLowWidthPct  = 1.5
)

// VolatilityRegimeAgent reads Bollinger Band width to classify the current
// regime as high (width at or above volatilityHighWidthPct), low (at or
// below volatilityLowWidthPct) or normal, using these fixed thresholds
// rather than the symbol's own width history. Unlike the directional
// agents, its score leans on position-within-bands rather than trend.
type VolatilityRegimeAgent struct {
	indicators *indicators.Service
}

// NewVolatilityRegimeAgent builds the volatility-regime agent.
func NewVolatilityRegimeAgent(svc *indicators.Service) *VolatilityRegimeAgent {
	return &VolatilityRegimeAgent{indicators: svc}
}

// Name returns the agent's registered name.
func (a *VolatilityRegimeAgent) Name() string { return "volatility-regime" }

// Evaluate computes Bollinger Bands and scores toward the signal the bands
// already carry ("buy" at the lower band, "sell" at the upper band), halving
// that score in the low regime. Confidence is higher in the high and low
// regimes than in the normal one.
func (a *VolatilityRegimeAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	candles, ok := primaryCandles(pc)
	if !ok {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}
	if len(candles) < volatilityRegimePeriod+2 {
		return insufficientDataResult("fewer candles than the Bollinger lookback period"), nil
	}

	closePrices := closes(candles)
	bbArgs := toArgs(closePrices)
	bbArgs["period"] = volatilityRegimePeriod

	bbRaw, err := a.indicators.CalculateBollingerBands(bbArgs)
	if err != nil {
		return insufficientDataResult("Bollinger Bands calculation failed: " + err.Error()), nil
	}
	bb := bbRaw.(*indicators.BollingerBandsResult)

	var score float64
	switch bb.Signal {
	case "buy":
		score = 0.6
	case "sell":
		score = -0.6
	default:
		score = 0
	}

	regime := "normal"
	confidence := 35.0
	switch {
	case bb.Width >= volatilityHighWidthPct:
		regime = "high"
		confidence = 55
	case bb.Width <= volatilityLowWidthPct:
		regime = "low"
		confidence = 55
		// Bands squeezing tight ahead of a breakout: a touch is a
		// weaker directional claim, so pull score toward neutral.
		score *= 0.5
	}

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"band_width_pct": bb.Width,
			"bb_signal":      bb.Signal,
			"regime":         regime,
		},
	}), nil
}
