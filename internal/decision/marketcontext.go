package decision

import "github.com/ajitpratap0/cryptofunk/internal/pipeline"

const (
	marketContextMomentumWindow = 20
	marketContextKeyLevelWindow = 20

	volatilityLowThresholdPct  = 1.0
	volatilityHighThresholdPct = 3.0
)

// deriveMarketContext is stage 2: price, volume, trend, a volatility
// classification, momentum as a percentage deviation from its own SMA, and
// the nearest support/resistance read off the recent trading range. Trend
// is taken from the current-timeframe view computed in stage 1, per the
// engine's "pure function of context plus prior stage outputs" contract.
func deriveMarketContext(pc *pipeline.PipelineContext, mtf MultiTimeframeAnalysis) MarketContext {
	candles := pc.MarketData[currentInterval]
	if len(candles) == 0 {
		return MarketContext{Trend: mtf.Current.Trend, Volatility: "low"}
	}

	latest := candles[len(candles)-1]
	closeSeries := closes(candles)

	window := marketContextMomentumWindow
	if len(closeSeries) < window {
		window = len(closeSeries)
	}
	sma := average(closeSeries[len(closeSeries)-window:])
	momentum := clamp(percentChange(sma, latest.Close)*100, -100, 100)

	returns := priceReturns(closeSeries)
	volStdDev := stdDevPopulation(returns) * 100
	volatility := "med"
	switch {
	case volStdDev < volatilityLowThresholdPct:
		volatility = "low"
	case volStdDev > volatilityHighThresholdPct:
		volatility = "high"
	}

	levelWindow := marketContextKeyLevelWindow
	if len(candles) < levelWindow {
		levelWindow = len(candles)
	}
	recent := candles[len(candles)-levelWindow:]
	support, resistance := recent[0].Low, recent[0].High
	var volumeSum float64
	for _, c := range recent {
		if c.Low < support {
			support = c.Low
		}
		if c.High > resistance {
			resistance = c.High
		}
		volumeSum += c.Volume
	}
	avgVolume := volumeSum / float64(len(recent))

	return MarketContext{
		Price:      latest.Close,
		Volume:     latest.Volume,
		AvgVolume:  avgVolume,
		Trend:      mtf.Current.Trend,
		Volatility: volatility,
		Momentum:   momentum,
		Support:    support,
		Resistance: resistance,
	}
}

func priceReturns(closeSeries []float64) []float64 {
	if len(closeSeries) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closeSeries)-1)
	for i := 1; i < len(closeSeries); i++ {
		out = append(out, percentChange(closeSeries[i-1], closeSeries[i]))
	}
	return out
}
