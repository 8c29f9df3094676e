package agents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

func newTestContext() *pipeline.PipelineContext {
	return &pipeline.PipelineContext{
		RunID:        "run-1",
		AccountID:    "acct-1",
		Symbol:       "BTCUSDT",
		Timeframe:    "1h",
		Account:      pipeline.Account{ID: "acct-1", CurrentBalance: 1000, MaxLeverage: 10, MaxRiskPerTradePct: 1},
		MarketData:   map[string][]pipeline.Candle{},
		AgentResults: map[string]pipeline.AgentResult{},
	}
}

func TestRemoteAgent_Evaluate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 0.6, "confidence": 80, "payload": {"reason": "uptrend"}}`))
	}))
	defer srv.Close()

	agent := NewRemoteAgent("momentum", srv.URL, time.Second)
	result, err := agent.Evaluate(context.Background(), newTestContext())

	require.NoError(t, err)
	assert.Equal(t, 0.6, result.Score)
	assert.Equal(t, 80.0, result.Confidence)
	assert.Equal(t, "uptrend", result.Payload["reason"])
}

func TestRemoteAgent_Evaluate_ClampsOutOfRangeResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 5, "confidence": 500}`))
	}))
	defer srv.Close()

	agent := NewRemoteAgent("momentum", srv.URL, time.Second)
	result, err := agent.Evaluate(context.Background(), newTestContext())

	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 100.0, result.Confidence)
}

func TestRemoteAgent_Evaluate_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	agent := NewRemoteAgent("momentum", srv.URL, time.Second)
	_, err := agent.Evaluate(context.Background(), newTestContext())

	assert.Error(t, err)
}

func TestRemoteAgent_Evaluate_DeadlineExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 0, "confidence": 0}`))
	}))
	defer srv.Close()

	agent := NewRemoteAgent("momentum", srv.URL, 5*time.Millisecond)
	_, err := agent.Evaluate(context.Background(), newTestContext())

	assert.Error(t, err)
}

func TestRemoteHost_Resolve(t *testing.T) {
	host := NewRemoteHost(map[string]string{
		"momentum": "http://localhost:9001",
	}, time.Second)

	agent, err := host.Resolve("momentum", pipeline.ModeRemote)
	require.NoError(t, err)
	assert.Equal(t, "momentum", agent.Name())

	_, err = host.Resolve("unknown-agent", pipeline.ModeRemote)
	assert.Error(t, err)
}

func TestInProcessHost_Resolve(t *testing.T) {
	host := NewInProcessHost(&fakeAgent{name: "risk-manager"})

	agent, err := host.Resolve("risk-manager", pipeline.ModeInProcess)
	require.NoError(t, err)
	assert.Equal(t, "risk-manager", agent.Name())

	_, err = host.Resolve("missing", pipeline.ModeInProcess)
	assert.Error(t, err)
}

type fakeAgent struct{ name string }

func (f *fakeAgent) Name() string { return f.name }
func (f *fakeAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	return pipeline.AgentResult{Score: 0.1, Confidence: 50}, nil
}
