package builtin

import (
	"context"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
	"github.com/ajitpratap0/cryptofunk/internal/sentiment"
)

// NewsSentimentAgent converts a symbol's news/social sentiment feed into a
// score, via internal/sentiment's explicit parse-result type rather than a
// model call.
type NewsSentimentAgent struct {
	fetcher *sentiment.Fetcher
}

// NewNewsSentimentAgent builds the news-sentiment agent.
func NewNewsSentimentAgent(fetcher *sentiment.Fetcher) *NewsSentimentAgent {
	return &NewsSentimentAgent{fetcher: fetcher}
}

// Name returns the agent's registered name.
func (a *NewsSentimentAgent) Name() string { return "news-sentiment" }

// Evaluate fetches and parses the sentiment feed. A parse/fetch failure is
// not an agent error: it surfaces as the feed's own documented neutral
// fallback (score=0, confidence=30) so one unreachable provider doesn't
// abort the chain.
func (a *NewsSentimentAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	result := a.fetcher.FetchAndParse(ctx, pc.Symbol)

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      result.Score,
		Confidence: result.Confidence,
		Payload: map[string]any{
			"parsed":    result.OK,
			"headlines": result.Headlines,
		},
	}), nil
}
