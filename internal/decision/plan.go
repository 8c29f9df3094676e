package decision

const (
	planQualityLeverage3 = 85.0
	planQualityLeverage2 = 75.0

	planScaledOffsetPct1 = 0.005
	planScaledOffsetPct2 = 0.01
)

// buildTradePlan is stage 6: produced only when a setup exists and the
// risk-reward gate says it is worth taking.
func buildTradePlan(setup *TradeSetup, rr *RiskReward, accountBalance float64) *TradePlan {
	if setup == nil || rr == nil || !rr.WorthTaking {
		return nil
	}

	entry := entryStrategyFor(setup, rr)
	exit := ExitPlan{
		Stop:                rr.Stop,
		Targets:             rr.Targets,
		TrailingStopEnabled: setup.Type == "momentum" || setup.Type == "breakout",
	}

	leverage := 1.0
	switch {
	case setup.Quality >= planQualityLeverage3:
		leverage = 3
	case setup.Quality >= planQualityLeverage2:
		leverage = 2
	}

	stopDist := abs(rr.Entry - rr.Stop)
	usdValue := 0.0
	if rr.Entry > 0 && stopDist > 0 {
		usdValue = rr.RiskAmount / (stopDist / rr.Entry)
	}

	percentOfAccount := 0.0
	if accountBalance > 0 {
		percentOfAccount = usdValue / accountBalance * 100
	}

	sizing := PositionSizing{
		USDValue:         usdValue,
		PercentOfAccount: percentOfAccount,
		Leverage:         leverage,
		RiskPct:          rr.RiskPct,
	}

	scenarios := buildScenarios(setup, rr)

	return &TradePlan{
		Entry:            entry,
		Exit:             exit,
		Sizing:           sizing,
		ExpectedDuration: expectedDurationFor(setup.Type),
		Scenarios:        scenarios,
	}
}

func entryStrategyFor(setup *TradeSetup, rr *RiskReward) EntryStrategy {
	if setup.Timing == "optimal" {
		return EntryStrategy{Type: "limit", Prices: []float64{rr.Entry}, Sizing: []float64{100}}
	}

	sign := 1.0
	if setup.Direction == "sell" {
		sign = -1.0
	}
	prices := []float64{
		rr.Entry,
		rr.Entry * (1 - sign*planScaledOffsetPct1),
		rr.Entry * (1 - sign*planScaledOffsetPct2),
	}
	return EntryStrategy{Type: "scaled", Prices: prices, Sizing: []float64{40, 30, 30}}
}

func expectedDurationFor(setupType string) string {
	switch setupType {
	case "momentum", "breakout":
		return "intraday"
	case "reversal":
		return "swing"
	default:
		return "multi-day"
	}
}

func buildScenarios(setup *TradeSetup, rr *RiskReward) []Scenario {
	bull := rr.WinProbability
	bear := (100 - rr.WinProbability) * 0.6
	base := 100 - bull - bear
	if base < 0 {
		base = 0
	}
	return []Scenario{
		{Name: "bull", Probability: bull, Description: "targets fill in sequence, trend continuation holds"},
		{Name: "base", Probability: base, Description: "price chops near entry, partial target reached"},
		{Name: "bear", Probability: bear, Description: "invalidation hit before any target"},
	}
}
