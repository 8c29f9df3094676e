package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/indicators"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const momentumMinCandles = 35 // slow(26) + signal(9) for MACD

// MomentumAgent reads RSI and MACD crossover together to score directional
// momentum.
type MomentumAgent struct {
	indicators *indicators.Service
}

// NewMomentumAgent builds the momentum agent.
func NewMomentumAgent(svc *indicators.Service) *MomentumAgent {
	return &MomentumAgent{indicators: svc}
}

// Name returns the agent's registered name.
func (a *MomentumAgent) Name() string { return "momentum" }

// Evaluate blends an RSI-derived score with a MACD crossover bonus.
func (a *MomentumAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	candles, ok := primaryCandles(pc)
	if !ok {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}
	if len(candles) < momentumMinCandles {
		return insufficientDataResult("fewer candles than MACD's slow+signal lookback"), nil
	}

	closePrices := closes(candles)

	rsiRaw, err := a.indicators.CalculateRSI(toArgs(closePrices))
	if err != nil {
		return insufficientDataResult("RSI calculation failed: " + err.Error()), nil
	}
	rsi := rsiRaw.(*indicators.RSIResult)

	// Map RSI's [0,100] scale onto [-1,1] centered at 50, so 70+ reads
	// strongly bullish and 30- strongly bearish.
	score := (rsi.Value - 50) / 50

	confidence := 40.0
	payload := map[string]any{"rsi_value": rsi.Value, "rsi_signal": rsi.Signal}

	macdRaw, err := a.indicators.CalculateMACD(toArgs(closePrices))
	if err == nil {
		macd := macdRaw.(*indicators.MACDResult)
		payload["macd_histogram"] = macd.Histogram
		payload["macd_crossover"] = macd.Crossover

		switch macd.Crossover {
		case "bullish":
			score = (score + 1) / 2
			confidence = 75
		case "bearish":
			score = (score - 1) / 2
			confidence = 75
		default:
			confidence = 45
		}
	}

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload:    payload,
	}), nil
}
