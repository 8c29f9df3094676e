// Package builtin implements the nine fixed in-process agents that make
// up the pipeline's agent chain, each a thin wrapper around the kept
// internal/indicators technical calculations (or, for news-sentiment, the
// explicit-parse-result internal/sentiment package).
package builtin

import (
	"fmt"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// primaryCandles picks the candle series an agent should reason over: the
// run's own timeframe if present, else the shortest interval available.
// Returns false if no market data was supplied at all.
func primaryCandles(pc *pipeline.PipelineContext) ([]pipeline.Candle, bool) {
	if candles, ok := pc.MarketData[pc.Timeframe]; ok && len(candles) > 0 {
		return candles, true
	}
	for _, interval := range []string{"15m", "1h", "4h", "1d"} {
		if candles := pc.MarketData[interval]; len(candles) > 0 {
			return candles, true
		}
	}
	for _, candles := range pc.MarketData {
		if len(candles) > 0 {
			return candles, true
		}
	}
	return nil, false
}

func closes(candles []pipeline.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func highs(candles []pipeline.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func lows(candles []pipeline.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// toInterfaceSlice converts a float64 slice into the []interface{} shape
// internal/indicators' arg-extraction helpers expect.
func toInterfaceSlice(prices []float64) []interface{} {
	vals := make([]interface{}, len(prices))
	for i, p := range prices {
		vals[i] = p
	}
	return vals
}

func toArgs(prices []float64) map[string]interface{} {
	return map[string]interface{}{"prices": toInterfaceSlice(prices)}
}

// insufficientDataResult is what every agent returns when it has too few
// candles to reason over: a neutral, low-confidence signal rather than an
// error, so one thin symbol doesn't abort the whole chain.
func insufficientDataResult(reason string) pipeline.AgentResult {
	return pipeline.AgentResult{
		Score:      0,
		Confidence: 0,
		Payload:    map[string]any{"reason": reason},
	}
}

func errNoMarketData(agent string) error {
	return fmt.Errorf("%s: no market data available for this symbol/timeframe", agent)
}
