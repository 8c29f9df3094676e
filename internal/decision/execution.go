package decision

// buildExecution is stage 8. A wait decision always gets the patient/limit
// default; otherwise urgency derives from setup timing and method from
// volatility/entry shape.
func buildExecution(decision Decision, setup *TradeSetup, mc MarketContext, plan *TradePlan) Execution {
	if decision.Action == "wait" || setup == nil {
		return Execution{Priority: "patient", Method: "limit", Urgency: 0}
	}

	urgency := 40.0
	switch setup.Timing {
	case "optimal":
		urgency = 80
	case "late":
		urgency = 60
	}

	priority := "conditional"
	switch {
	case urgency >= 80:
		priority = "immediate"
	case urgency <= 40:
		priority = "patient"
	}

	method := "limit"
	if mc.Volatility == "high" {
		method = "twap"
	} else if plan != nil && plan.Entry.Type == "scaled" {
		method = "iceberg"
	}

	return Execution{Priority: priority, Method: method, Urgency: urgency}
}
