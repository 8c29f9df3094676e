package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cryptofunk/internal/indicators"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
	"github.com/ajitpratap0/cryptofunk/internal/sentiment"
)

func uptrendCandles(n int) []pipeline.Candle {
	candles := make([]pipeline.Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price += 1.0
		close := price
		candles[i] = pipeline.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     close + 0.5,
			Low:      open - 0.5,
			Close:    close,
			Volume:   100 + float64(i),
		}
	}
	return candles
}

func downtrendCandles(n int) []pipeline.Candle {
	candles := make([]pipeline.Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 200.0
	for i := 0; i < n; i++ {
		open := price
		price -= 1.0
		close := price
		candles[i] = pipeline.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     open + 0.5,
			Low:      close - 0.5,
			Close:    close,
			Volume:   100 + float64(i),
		}
	}
	return candles
}

func newContext(timeframe string, candles []pipeline.Candle) *pipeline.PipelineContext {
	return &pipeline.PipelineContext{
		RunID:     "run-1",
		AccountID: "acct-1",
		Symbol:    "BTCUSDT",
		Timeframe: timeframe,
		Account:   pipeline.Account{ID: "acct-1", MaxLeverage: 10, MaxRiskPerTradePct: 1},
		MarketData: map[string][]pipeline.Candle{
			timeframe: candles,
		},
		AgentResults: map[string]pipeline.AgentResult{},
	}
}

func TestMarketStructureAgent_UptrendScoresPositive(t *testing.T) {
	svc := indicators.NewService()
	agent := NewMarketStructureAgent(svc)
	pc := newContext("1h", uptrendCandles(60))

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 100.0)
}

func TestMarketStructureAgent_InsufficientData(t *testing.T) {
	svc := indicators.NewService()
	agent := NewMarketStructureAgent(svc)
	pc := newContext("1h", uptrendCandles(5))

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestMarketStructureAgent_NoMarketDataErrors(t *testing.T) {
	svc := indicators.NewService()
	agent := NewMarketStructureAgent(svc)
	pc := newContext("1h", nil)
	pc.MarketData = map[string][]pipeline.Candle{}

	_, err := agent.Evaluate(context.Background(), pc)
	assert.Error(t, err)
}

func TestOrderFlowAgent_BuyingPressureScoresPositive(t *testing.T) {
	agent := NewOrderFlowAgent()
	pc := newContext("1h", uptrendCandles(25))

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
}

func TestOrderFlowAgent_SellingPressureScoresNegative(t *testing.T) {
	agent := NewOrderFlowAgent()
	pc := newContext("1h", downtrendCandles(25))

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Less(t, result.Score, 0.0)
}

func TestMomentumAgent_Uptrend(t *testing.T) {
	svc := indicators.NewService()
	agent := NewMomentumAgent(svc)
	pc := newContext("1h", uptrendCandles(50))

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
}

func TestVolatilityRegimeAgent_ProducesClampedResult(t *testing.T) {
	svc := indicators.NewService()
	agent := NewVolatilityRegimeAgent(svc)
	pc := newContext("1h", uptrendCandles(30))

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Score, -1.0)
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestNewsSentimentAgent_ParseFailureFallsBackToNeutral(t *testing.T) {
	fetcher := sentiment.NewFetcher("http://127.0.0.1:1") // unreachable
	agent := NewNewsSentimentAgent(fetcher)
	pc := newContext("1h", nil)

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 30.0, result.Confidence)
}

func TestMultiTimeframeAgent_AgreementAcrossIntervals(t *testing.T) {
	svc := indicators.NewService()
	agent := NewMultiTimeframeAgent(svc)
	pc := &pipeline.PipelineContext{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		MarketData: map[string][]pipeline.Candle{
			"15m": uptrendCandles(30),
			"1h":  uptrendCandles(30),
			"4h":  uptrendCandles(30),
		},
		AgentResults: map[string]pipeline.AgentResult{},
	}

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
	assert.Greater(t, result.Confidence, 50.0)
}

func TestMultiTimeframeAgent_NoMarketDataErrors(t *testing.T) {
	svc := indicators.NewService()
	agent := NewMultiTimeframeAgent(svc)
	pc := &pipeline.PipelineContext{MarketData: map[string][]pipeline.Candle{}}

	_, err := agent.Evaluate(context.Background(), pc)
	assert.Error(t, err)
}

func TestPatternRecognitionAgent_BullishEngulfing(t *testing.T) {
	agent := NewPatternRecognitionAgent()
	candles := []pipeline.Candle{
		{Open: 105, Close: 100, High: 106, Low: 99},
		{Open: 99, Close: 106, High: 107, Low: 98},
	}
	pc := newContext("1h", candles)

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Equal(t, "bullish-engulfing", result.Payload["pattern"])
	assert.Greater(t, result.Score, 0.0)
}

func TestPatternRecognitionAgent_NoPattern(t *testing.T) {
	agent := NewPatternRecognitionAgent()
	candles := []pipeline.Candle{
		{Open: 100, Close: 101, High: 102, Low: 99},
		{Open: 101, Close: 101.5, High: 102, Low: 100},
	}
	pc := newContext("1h", candles)

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Equal(t, "none", result.Payload["pattern"])
}

func TestStatisticalEdgeAgent_StretchedPriceScoresReversion(t *testing.T) {
	agent := NewStatisticalEdgeAgent()
	candles := uptrendCandles(40)
	// Push the latest close far above the recent mean.
	candles[len(candles)-1].Close += 50
	pc := newContext("1h", candles)

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Less(t, result.Score, 0.0)
}

func TestRiskManagerAgent_AgreementAmplifiesConsensus(t *testing.T) {
	agent := NewRiskManagerAgent()
	pc := newContext("1h", nil)
	pc.AgentResults = map[string]pipeline.AgentResult{
		"market-structure": {Score: 0.8, Confidence: 80},
		"momentum":         {Score: 0.7, Confidence: 70},
		"order-flow":       {Score: 0.6, Confidence: 60},
	}

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
}

func TestRiskManagerAgent_DisagreementDampsScore(t *testing.T) {
	agent := NewRiskManagerAgent()
	pc := newContext("1h", nil)
	pc.AgentResults = map[string]pipeline.AgentResult{
		"market-structure": {Score: 1, Confidence: 80},
		"momentum":         {Score: -1, Confidence: 80},
	}

	result, err := agent.Evaluate(context.Background(), pc)

	require.NoError(t, err)
	assert.InDelta(t, 0, result.Score, 0.05)
}

func TestRiskManagerAgent_ThinRiskAllowanceDampsConfidence(t *testing.T) {
	agent := NewRiskManagerAgent()
	pc := newContext("1h", nil)
	pc.Account.MaxRiskPerTradePct = 0.1
	pc.AgentResults = map[string]pipeline.AgentResult{
		"market-structure": {Score: 0.8, Confidence: 80},
	}

	withLowRisk, err := agent.Evaluate(context.Background(), pc)
	require.NoError(t, err)

	pc.Account.MaxRiskPerTradePct = 2.0
	withHighRisk, err := agent.Evaluate(context.Background(), pc)
	require.NoError(t, err)

	assert.Less(t, withLowRisk.Confidence, withHighRisk.Confidence)
}
