// Package decision implements the eight-stage professional decision engine:
// each stage is a pure function of the PipelineContext plus the outputs of
// the stages before it. The engine's output is a single ProfessionalReasoning
// record, not a dictionary — every stage gets its own tagged struct rather
// than a shared untyped payload bag.
package decision

// TimeframeView is one row of the multi-timeframe analysis: the dominant
// agent-implied trend/signal for a single interval and how strongly the
// chain agrees with it.
type TimeframeView struct {
	Interval string
	Trend    string // "bullish", "bearish", "sideways"
	Signal   string // "buy", "sell", "neutral"
	Strength float64
}

// MultiTimeframeAnalysis is stage 1's output.
type MultiTimeframeAnalysis struct {
	Higher     TimeframeView
	Current    TimeframeView
	Lower      TimeframeView
	Alignment  float64
	Confidence float64
}

// MarketContext is stage 2's output.
type MarketContext struct {
	Price      float64
	Volume     float64
	AvgVolume  float64
	Trend      string
	Volatility string // "low", "med", "high"
	Momentum   float64
	Support    float64
	Resistance float64
}

// TradeSetup is stage 3's output. A nil *TradeSetup downstream means no
// setup was found (fewer than 3 confluence factors) or it failed the
// quality gate; both cases stop the engine short of enter-long/enter-short.
type TradeSetup struct {
	Confluence   []string
	Type         string // "reversal", "momentum", "continuation", "mean-reversion", "breakout"
	Quality      float64
	Invalidation float64
	Direction    string // "buy" or "sell": the current-timeframe signal, or the momentum sign when that signal is neutral
	Timing       string // "optimal", "early", "late"
}

// Target is one scaled take-profit level within a RiskReward/TradePlan.
type Target struct {
	Price       float64
	ExitPct     float64
	Probability float64
}

// RiskReward is stage 4's output.
type RiskReward struct {
	Entry          float64
	Stop           float64
	Targets        []Target
	Risks          []string
	RiskAmount     float64
	RiskPct        float64
	Reward         float64
	RR             float64
	WinProbability float64
	ExpectedValue  float64
	WorthTaking    bool
}

// Psychology is stage 5's output.
type Psychology struct {
	FearGreedIndex      float64
	Sentiment           string // "extreme-fear","fear","neutral","greed","extreme-greed"
	ContrarianSignal    bool
	ContrarianDirection string
	Regime              string // Wyckoff-style: accumulation/markup/distribution/markdown/consolidation
}

// EntryStrategy describes how the plan enters the position.
type EntryStrategy struct {
	Type   string // "limit" or "scaled"
	Prices []float64
	Sizing []float64 // percent of position per price, parallel to Prices
}

// ExitPlan describes how the plan exits the position.
type ExitPlan struct {
	Stop                float64
	Targets             []Target
	TrailingStopEnabled bool
}

// PositionSizing is the plan's sizing recommendation.
type PositionSizing struct {
	USDValue         float64
	PercentOfAccount float64
	Leverage         float64
	RiskPct          float64
}

// Scenario is one bull/base/bear projection in the trade plan.
type Scenario struct {
	Name        string
	Probability float64
	Description string
}

// TradePlan is stage 6's output; nil when no setup exists or it is not
// worth taking.
type TradePlan struct {
	Entry            EntryStrategy
	Exit             ExitPlan
	Sizing           PositionSizing
	ExpectedDuration string
	Scenarios        []Scenario
}

// ChecklistItem is one row of the final decision gate.
type ChecklistItem struct {
	Name   string
	Weight float64
	Passed bool
}

// Decision is stage 7's output: the final gate.
type Decision struct {
	Checklist  []ChecklistItem
	Confidence float64
	Action     string // "enter-long", "enter-short", "wait"
	Direction  string // "buy", "sell", "" for wait
}

// Execution is stage 8's output.
type Execution struct {
	Priority string // "immediate", "patient", "conditional"
	Method   string // "market", "limit", "twap", "iceberg"
	Urgency  float64
}

// ProfessionalReasoning is the full record the engine produces for one run.
// Setup, RiskReward, and Plan are nil when the corresponding stage could not
// produce one; Decision and Execution are always populated, even for wait.
type ProfessionalReasoning struct {
	MTF        MultiTimeframeAnalysis
	MarketCtx  MarketContext
	Setup      *TradeSetup
	RiskReward *RiskReward
	Psychology Psychology
	Plan       *TradePlan
	Decision   Decision
	Execution  Execution
}
