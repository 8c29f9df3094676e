package decision

import "github.com/ajitpratap0/cryptofunk/internal/pipeline"

const (
	riskRewardRequiredRR = 2.0

	riskPctHighQuality = 2.0
	riskPctStandard    = 1.5

	winProbabilityFloor = 30.0
	winProbabilityCeil  = 85.0
)

var targetOffsetsPct = []float64{0.02, 0.04, 0.06}
var targetExitPcts = []float64{33, 33, 34}
var targetProbabilities = []float64{75, 50, 25}

// computeRiskReward is stage 4: fixed-offset targets, a risk amount sized
// off the account balance and setup quality, and the worth-taking gate
// (R:R >= 2.0 and positive expected value).
func computeRiskReward(pc *pipeline.PipelineContext, mtf MultiTimeframeAnalysis, mc MarketContext, setup *TradeSetup) *RiskReward {
	if setup == nil {
		return nil
	}

	entry := mc.Price
	stop := setup.Invalidation
	sign := 1.0
	if setup.Direction == "sell" {
		sign = -1.0
	}

	targets := make([]Target, len(targetOffsetsPct))
	var targetSum float64
	for i, pct := range targetOffsetsPct {
		price := entry * (1 + sign*pct)
		targets[i] = Target{Price: price, ExitPct: targetExitPcts[i], Probability: targetProbabilities[i]}
		targetSum += price
	}
	avgTarget := targetSum / float64(len(targets))

	riskPct := riskPctStandard
	if setup.Quality > 85 {
		riskPct = riskPctHighQuality
	}
	riskAmount := pc.Account.CurrentBalance * riskPct / 100

	stopDist := abs(entry - stop)
	var reward float64
	if stopDist > 0 {
		reward = abs(avgTarget-entry) * (riskAmount / stopDist)
	}

	risks := identifyRisks(mtf, mc, setup)

	winProbability := 50 + (setup.Quality-50)/2 - 5*float64(len(risks))
	if mc.Trend != "sideways" {
		winProbability += 10
	}
	winProbability = clamp(winProbability, winProbabilityFloor, winProbabilityCeil)

	p := winProbability / 100
	expectedValue := p*reward - (1-p)*riskAmount

	rr := 0.0
	if riskAmount > 0 {
		rr = reward / riskAmount
	}

	return &RiskReward{
		Entry:          entry,
		Stop:           stop,
		Targets:        targets,
		Risks:          risks,
		RiskAmount:     riskAmount,
		RiskPct:        riskPct,
		Reward:         reward,
		RR:             rr,
		WinProbability: winProbability,
		ExpectedValue:  expectedValue,
		WorthTaking:    rr >= riskRewardRequiredRR && expectedValue > 0,
	}
}

// identifyRisks names the risk factors the decision checklist counts
// against a setup; it has no spec-given enumeration, so it is built from
// the same signals the confluence and quality scoring already read.
func identifyRisks(mtf MultiTimeframeAnalysis, mc MarketContext, setup *TradeSetup) []string {
	var risks []string
	if mtf.Alignment < 60 {
		risks = append(risks, "weak-alignment")
	}
	if mc.Volatility == "high" {
		risks = append(risks, "high-volatility")
	}
	if len(setup.Confluence) < 4 {
		risks = append(risks, "thin-confluence")
	}
	if setup.Direction == "buy" && mc.Trend == "bearish" {
		risks = append(risks, "counter-trend")
	}
	if setup.Direction == "sell" && mc.Trend == "bullish" {
		risks = append(risks, "counter-trend")
	}
	return risks
}
