package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// PatternRecognitionAgent detects the two-candle bullish and bearish
// engulfing reversal patterns on the most recent candles; no other
// candlestick pattern is recognized. cinar/indicator/v2 has no
// candlestick-pattern package, so this is hand-rolled directly against
// OHLC data.
type PatternRecognitionAgent struct{}

// NewPatternRecognitionAgent builds the pattern-recognition agent.
func NewPatternRecognitionAgent() *PatternRecognitionAgent { return &PatternRecognitionAgent{} }

// Name returns the agent's registered name.
func (a *PatternRecognitionAgent) Name() string { return "pattern-recognition" }

// Evaluate looks for a bullish/bearish engulfing pattern at the most
// recent two candles.
func (a *PatternRecognitionAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	candles, ok := primaryCandles(pc)
	if !ok {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}
	if len(candles) < 2 {
		return insufficientDataResult("fewer than 2 candles available"), nil
	}

	prev := candles[len(candles)-2]
	last := candles[len(candles)-1]

	pattern, score, confidence := detectEngulfing(prev, last)

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"pattern": pattern,
		},
	}), nil
}

func detectEngulfing(prev, last pipeline.Candle) (pattern string, score, confidence float64) {
	prevBearish := prev.Close < prev.Open
	prevBullish := prev.Close > prev.Open
	lastBearish := last.Close < last.Open
	lastBullish := last.Close > last.Open

	switch {
	case prevBearish && lastBullish && last.Open <= prev.Close && last.Close >= prev.Open:
		return "bullish-engulfing", 0.7, 60
	case prevBullish && lastBearish && last.Open >= prev.Close && last.Close <= prev.Open:
		return "bearish-engulfing", -0.7, 60
	default:
		return "none", 0, 20
	}
}
