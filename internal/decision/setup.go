package decision

import (
	"math"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const (
	setupMinConfluence  = 3
	setupQualityGate    = 70.0
	setupQualityOptimal = 85.0
	setupTimingLateMax  = 40.0

	agentAgreementSpreadMax = 0.3
	proximityToLevelPct     = 0.01
)

// identifySetup is stage 3: build the confluence list, reject outright if
// it has fewer than three factors, otherwise classify and quality-score the
// setup and reject again if quality falls under the gate.
func identifySetup(pc *pipeline.PipelineContext, mtf MultiTimeframeAnalysis, mc MarketContext) *TradeSetup {
	var confluence []string

	if mtf.Alignment > 60 {
		confluence = append(confluence, "timeframe-alignment")
	}
	if agentsAgree(pc.AgentResults) {
		confluence = append(confluence, "multi-agent-agreement")
	}
	if math.Abs(mc.Momentum) > 30 {
		confluence = append(confluence, "momentum")
	}
	volumeConfirmed := mc.Volume > mc.AvgVolume
	if volumeConfirmed {
		confluence = append(confluence, "volume")
	}
	nearSupport := mc.Support > 0 && math.Abs(percentChange(mc.Support, mc.Price)) < proximityToLevelPct
	nearResistance := mc.Resistance > 0 && math.Abs(percentChange(mc.Resistance, mc.Price)) < proximityToLevelPct
	if nearSupport || nearResistance {
		confluence = append(confluence, "key-level-proximity")
	}

	if len(confluence) < setupMinConfluence {
		return nil
	}

	direction := mtf.Current.Signal
	if direction == "neutral" {
		if mc.Momentum >= 0 {
			direction = "buy"
		} else {
			direction = "sell"
		}
	}

	setupType := classifySetupType(mtf, mc)

	quality := 50 + 8*float64(len(confluence)) + (mtf.Alignment-50)/2
	if mc.Volatility == "low" {
		quality += 5
	}
	if mc.Volatility == "high" && volumeConfirmed {
		quality += 10
	}

	quality = clamp(quality, 0, 100)
	if quality < setupQualityGate {
		return nil
	}

	invalidation := mc.Support
	if direction == "sell" {
		invalidation = mc.Resistance
	}

	timing := "early"
	switch {
	case quality >= setupQualityOptimal:
		timing = "optimal"
	case mtf.Alignment <= setupTimingLateMax:
		timing = "late"
	}

	return &TradeSetup{
		Confluence:   confluence,
		Type:         setupType,
		Quality:      quality,
		Invalidation: invalidation,
		Direction:    direction,
		Timing:       timing,
	}
}

func classifySetupType(mtf MultiTimeframeAnalysis, mc MarketContext) string {
	switch {
	case mtf.Higher.Signal != mtf.Current.Signal:
		return "reversal"
	case math.Abs(mc.Momentum) > 60:
		return "momentum"
	case mtf.Alignment > 80:
		return "continuation"
	case mc.Trend == "sideways" && mc.Volatility == "low":
		return "mean-reversion"
	default:
		return "breakout"
	}
}

// agentsAgree reports whether the chain's scores cluster tightly enough to
// count as multi-agent agreement (spec's "multi-agent agreement" confluence
// factor), using the same population-stddev read as the rest of this
// package.
func agentsAgree(results map[string]pipeline.AgentResult) bool {
	if len(results) < 2 {
		return false
	}
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		scores = append(scores, r.Score)
	}
	return stdDevPopulation(scores) < agentAgreementSpreadMax
}
