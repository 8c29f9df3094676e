package builtin

import (
	"context"
	"math"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const statisticalEdgeLookback = 30

// StatisticalEdgeAgent scores how far the latest close sits from its
// recent mean, in units of standard deviation (a z-score read): a price
// stretched far from its mean is read as reversion pressure opposite its
// own direction, the way a mean-reversion desk would frame "statistical
// edge" absent a full backtested strategy.
type StatisticalEdgeAgent struct{}

// NewStatisticalEdgeAgent builds the statistical-edge agent.
func NewStatisticalEdgeAgent() *StatisticalEdgeAgent { return &StatisticalEdgeAgent{} }

// Name returns the agent's registered name.
func (a *StatisticalEdgeAgent) Name() string { return "statistical-edge" }

// Evaluate computes a z-score of the latest close against the lookback
// window's mean/stddev and maps it to a reversion-flavored score.
func (a *StatisticalEdgeAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	candles, ok := primaryCandles(pc)
	if !ok {
		return pipeline.AgentResult{}, errNoMarketData(a.Name())
	}
	if len(candles) < statisticalEdgeLookback {
		return insufficientDataResult("fewer candles than the lookback window"), nil
	}

	window := candles[len(candles)-statisticalEdgeLookback:]
	closePrices := closes(window)

	mean := average(closePrices)
	stddev := stdDev(closePrices, mean)
	if stddev == 0 {
		return insufficientDataResult("zero variance over the lookback window"), nil
	}

	latest := closePrices[len(closePrices)-1]
	z := (latest - mean) / stddev

	// A positive z (price above mean) reads as downside reversion
	// pressure and vice versa; clamp the raw z into score range.
	score := -z / 3
	confidence := 30 + math.Min(math.Abs(z), 3)*20

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"z_score": z,
			"mean":    mean,
			"stddev":  stddev,
		},
	}), nil
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
