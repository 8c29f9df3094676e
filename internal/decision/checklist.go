package decision

import "github.com/ajitpratap0/cryptofunk/internal/pipeline"

const (
	checklistConfidenceGate = 75.0
	highWeightThreshold     = 90.0
	smartMoneyConfidenceMin = 60.0

	weightAlignment  = 90.0
	weightSetup      = 100.0
	weightRR         = 95.0
	weightEV         = 85.0
	weightTiming     = 70.0
	weightPsychology = 60.0
	weightFewRisks   = 75.0
	weightSmartMoney = 65.0
)

// evaluateChecklist is stage 7, the final gate: eight weighted pass/fail
// items. Action is enter-long/enter-short only when at least two
// weight->=90 items pass and the weighted confidence clears the gate;
// direction comes from the current-timeframe signal.
func evaluateChecklist(pc *pipeline.PipelineContext, mtf MultiTimeframeAnalysis, setup *TradeSetup, rr *RiskReward, psych Psychology) Decision {
	qualityOK := setup != nil && setup.Quality > 70
	rrOK := rr != nil && rr.RR >= 2.0
	evOK := rr != nil && rr.ExpectedValue > 0
	timingOK := setup != nil && setup.Timing != "late"
	psychologyOK := psych.Sentiment != "extreme-fear" && psych.Sentiment != "extreme-greed"
	fewRisksOK := rr != nil && len(rr.Risks) < 3

	// "Smart money" reads as the risk-manager agent: it is the chain's own
	// institutional-style consensus vote, and the last agent to run. A
	// meaningful opposite-direction call from it is also an outright veto,
	// below, not just a missed checklist point.
	intendedSign := 0.0
	switch mtf.Current.Signal {
	case "buy":
		intendedSign = 1
	case "sell":
		intendedSign = -1
	}
	riskManager := pc.AgentResults["risk-manager"]
	smartMoneyOK := riskManager.Confidence > smartMoneyConfidenceMin && riskManager.Score*intendedSign >= 0
	vetoed := intendedSign != 0 && riskManager.Score*intendedSign < -0.3

	items := []ChecklistItem{
		{Name: "multi-timeframe-alignment", Weight: weightAlignment, Passed: mtf.Alignment > 60},
		{Name: "high-quality-setup", Weight: weightSetup, Passed: qualityOK},
		{Name: "risk-reward-2-to-1", Weight: weightRR, Passed: rrOK},
		{Name: "positive-expected-value", Weight: weightEV, Passed: evOK},
		{Name: "timing-optimal-or-early", Weight: weightTiming, Passed: timingOK},
		{Name: "psychology-favorable", Weight: weightPsychology, Passed: psychologyOK},
		{Name: "few-risks", Weight: weightFewRisks, Passed: fewRisksOK},
		{Name: "smart-money-aligned", Weight: weightSmartMoney, Passed: smartMoneyOK},
	}

	var passedWeight, totalWeight float64
	var highWeightPasses int
	for _, item := range items {
		totalWeight += item.Weight
		if item.Passed {
			passedWeight += item.Weight
			if item.Weight >= highWeightThreshold {
				highWeightPasses++
			}
		}
	}

	confidence := 0.0
	if totalWeight > 0 {
		confidence = passedWeight / totalWeight * 100
	}

	action := "wait"
	direction := ""
	if !vetoed && highWeightPasses >= 2 && confidence >= checklistConfidenceGate && mtf.Current.Signal != "neutral" {
		direction = mtf.Current.Signal
		if direction == "buy" {
			action = "enter-long"
		} else {
			action = "enter-short"
		}
	}

	return Decision{
		Checklist:  items,
		Confidence: confidence,
		Action:     action,
		Direction:  direction,
	}
}
