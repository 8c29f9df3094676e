package decision

import (
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const (
	higherInterval  = "4h"
	currentInterval = "1h"
	lowerInterval   = "15m"

	mtfFastWindow = 10
	mtfSlowWindow = 20
)

// analyzeMultiTimeframe is stage 1: derive a trend/signal/strength view for
// the three fixed interval labels directly from their candle sequences (a
// fast/slow moving-average read), then score how well they agree.
//
// Trend attribution here reads straight off price action rather than the
// nine chain agents, because an AgentResult carries one score for the whole
// run, not one per interval — there is no "agent anchored to an interval"
// to read a per-interval confidence from otherwise.
func analyzeMultiTimeframe(pc *pipeline.PipelineContext) MultiTimeframeAnalysis {
	higher := timeframeView(higherInterval, pc.MarketData[higherInterval])
	current := timeframeView(currentInterval, pc.MarketData[currentInterval])
	lower := timeframeView(lowerInterval, pc.MarketData[lowerInterval])

	alignment := 0.0
	if higher.Signal == current.Signal {
		alignment += 40
	}
	if current.Signal == lower.Signal {
		alignment += 30
	}
	if higher.Signal == lower.Signal {
		alignment += 30
	}

	confidence := 30.0
	switch {
	case alignment > 80:
		confidence = 90
	case alignment > 60:
		confidence = 70
	case alignment > 40:
		confidence = 50
	}

	return MultiTimeframeAnalysis{
		Higher:     higher,
		Current:    current,
		Lower:      lower,
		Alignment:  alignment,
		Confidence: confidence,
	}
}

func timeframeView(interval string, candles []pipeline.Candle) TimeframeView {
	if len(candles) < mtfSlowWindow {
		return TimeframeView{Interval: interval, Trend: "sideways", Signal: "neutral", Strength: 0}
	}

	closeSeries := closes(candles)
	fast := average(closeSeries[len(closeSeries)-mtfFastWindow:])
	slow := average(closeSeries[len(closeSeries)-mtfSlowWindow:])

	var trend, signal string
	switch {
	case fast > slow*1.001:
		trend, signal = "bullish", "buy"
	case fast < slow*0.999:
		trend, signal = "bearish", "sell"
	default:
		trend, signal = "sideways", "neutral"
	}

	strength := clamp(abs(percentChange(slow, fast))*1000, 0, 100)

	return TimeframeView{Interval: interval, Trend: trend, Signal: signal, Strength: strength}
}

func closes(candles []pipeline.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
