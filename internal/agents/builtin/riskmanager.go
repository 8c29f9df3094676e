package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// lowRiskAllowanceThreshold below which the risk manager treats the
// account's own envelope as a reason to damp conviction regardless of
// what the other eight agents concluded.
const lowRiskAllowanceThreshold = 0.5 // percent

// RiskManagerAgent is the final step of the fixed chain: it reads the
// eight prior agent results and the account's own risk envelope and
// produces a risk-adjusted score. It is not itself the trade/no-trade
// gate — that is the decision engine's job — but a conviction-damping
// vote the decision engine's risk-reward and psychology stages weigh
// alongside everything else.
type RiskManagerAgent struct{}

// NewRiskManagerAgent builds the risk-manager agent.
func NewRiskManagerAgent() *RiskManagerAgent { return &RiskManagerAgent{} }

// Name returns the agent's registered name.
func (a *RiskManagerAgent) Name() string { return "risk-manager" }

// Evaluate aggregates the confidence-weighted mean of every prior agent's
// score, then damps both score and confidence when the account's own risk
// allowance is thin or when the prior agents disagree sharply.
func (a *RiskManagerAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	if len(pc.AgentResults) == 0 {
		return insufficientDataResult("no prior agent results to assess"), nil
	}

	var weightedScore, totalWeight float64
	var minScore, maxScore = 1.0, -1.0
	for _, result := range pc.AgentResults {
		weight := result.Confidence
		weightedScore += result.Score * weight
		totalWeight += weight
		if result.Score < minScore {
			minScore = result.Score
		}
		if result.Score > maxScore {
			maxScore = result.Score
		}
	}

	consensusScore := 0.0
	if totalWeight > 0 {
		consensusScore = weightedScore / totalWeight
	}

	// Spread between the most bullish and most bearish prior agent; a wide
	// spread means the chain disagrees and the risk manager should damp
	// conviction rather than amplify a narrow majority.
	spread := maxScore - minScore
	agreementFactor := 1 - spread/2 // spread ranges [0,2]

	score := consensusScore * agreementFactor
	confidence := 50 + agreementFactor*40

	if pc.Account.MaxRiskPerTradePct > 0 && pc.Account.MaxRiskPerTradePct < lowRiskAllowanceThreshold {
		score *= 0.5
		confidence *= 0.7
	}

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      score,
		Confidence: confidence,
		Payload: map[string]any{
			"consensus_score":   consensusScore,
			"agreement_factor":  agreementFactor,
			"agents_considered": len(pc.AgentResults),
		},
	}), nil
}
