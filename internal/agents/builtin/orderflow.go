package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const orderFlowLookback = 20

// OrderFlowAgent approximates buy/sell pressure from candle bodies: a
// close above open is read as buying pressure and the reverse as selling
// pressure, each candle weighted by its own volume. There is no order-book feed available, so
// this is the closest proxy available from OHLCV data alone.
type OrderFlowAgent struct{}

// NewOrderFlowAgent builds the order-flow agent.
func NewOrderFlowAgent() *OrderFlowAgent { return &OrderFlowAgent{} }

// Name returns the agent's registered name.
func (a *OrderFlowAgent) Name() string { return "order-flow" }

// Evaluate sums signed, volume-weighted candle bodies over the lookback
// window and normalizes to [-1,1] by the window's total volume.
func (a *OrderFlowAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	candles, ok := primaryCandles(pc)
	if !ok {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}

	window := candles
	if len(window) > orderFlowLookback {
		window = window[len(window)-orderFlowLookback:]
	}
	if len(window) < 3 {
		return insufficientDataResult("fewer than 3 candles in order-flow window"), nil
	}

	var signedVolume, totalVolume float64
	for _, c := range window {
		body := c.Close - c.Open
		rng := c.High - c.Low
		direction := 0.0
		switch {
		case body > 0:
			direction = 1
		case body < 0:
			direction = -1
		}
		// Weight by how much of the candle's range the body consumed —
		// a close near the high/low on the same side as the body is a
		// more decisive pressure read than a small-bodied doji.
		weight := 1.0
		if rng > 0 {
			weight = abs(body) / rng
		}
		signedVolume += direction * weight * c.Volume
		totalVolume += c.Volume
	}

	score := 0.0
	if totalVolume > 0 {
		score = signedVolume / totalVolume
	}

	confidence := 40.0
	if totalVolume > 0 {
		magnitude := abs(signedVolume) / totalVolume
		confidence = 30 + magnitude*60
	}

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"window_size":   len(window),
			"signed_volume": signedVolume,
			"total_volume":  totalVolume,
		},
	}), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
