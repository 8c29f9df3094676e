package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const defaultRemoteCallTimeout = 10 * time.Second

// RemoteAgent calls a single agent microservice's POST /run endpoint.
type RemoteAgent struct {
	name       string
	url        string
	httpClient *http.Client
	timeout    time.Duration
}

// remoteRunRequest is the wire body sent to an agent microservice.
type remoteRunRequest struct {
	RunID        string                          `json:"run_id"`
	AccountID    string                          `json:"account_id"`
	Symbol       string                          `json:"symbol"`
	Timeframe    string                          `json:"timeframe"`
	Account      pipeline.Account                `json:"account"`
	MarketData   map[string][]pipeline.Candle    `json:"market_data"`
	AgentResults map[string]pipeline.AgentResult `json:"agent_results"`
}

// remoteRunResponse is the wire body returned by POST /run.
type remoteRunResponse struct {
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewRemoteAgent builds a RemoteAgent calling url for the named agent, with
// a bounded per-call deadline.
func NewRemoteAgent(name, url string, timeout time.Duration) *RemoteAgent {
	if timeout <= 0 {
		timeout = defaultRemoteCallTimeout
	}
	return &RemoteAgent{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Name returns the agent's registered name.
func (r *RemoteAgent) Name() string { return r.name }

// Evaluate POSTs the context to the remote agent and decodes its result.
// A remote failure (network error, non-200, malformed body) is returned as
// an error for the orchestrator to record against this step — it is never
// silently converted into a zero-valued result here.
func (r *RemoteAgent) Evaluate(ctx context.Context, pc *pipeline.PipelineContext) (pipeline.AgentResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body := remoteRunRequest{
		RunID:        pc.RunID,
		AccountID:    pc.AccountID,
		Symbol:       pc.Symbol,
		Timeframe:    pc.Timeframe,
		Account:      pc.Account,
		MarketData:   pc.MarketData,
		AgentResults: pc.AgentResults,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return pipeline.AgentResult{}, fmt.Errorf("marshal remote agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return pipeline.AgentResult{}, fmt.Errorf("build remote agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("agent", r.name).Str("url", r.url).Msg("remote agent call failed")
		return pipeline.AgentResult{}, fmt.Errorf("remote agent %s call failed: %w", r.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return pipeline.AgentResult{}, fmt.Errorf("remote agent %s returned status %d: %s", r.name, resp.StatusCode, respBody)
	}

	var out remoteRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return pipeline.AgentResult{}, fmt.Errorf("decode remote agent %s response: %w", r.name, err)
	}

	return pipeline.ClampAgentResult(pipeline.AgentResult{
		Score:      out.Score,
		Confidence: out.Confidence,
		Payload:    out.Payload,
	}), nil
}

// RemoteHost resolves agent names to RemoteAgent instances using a static
// name-to-URL table, typically loaded from config (one entry per
// cmd/agentsvc/* deployment).
type RemoteHost struct {
	agents map[string]*RemoteAgent
}

// NewRemoteHost builds a host from a name->base-URL table, appending
// /run to each URL and using a shared per-call timeout.
func NewRemoteHost(endpoints map[string]string, timeout time.Duration) *RemoteHost {
	h := &RemoteHost{agents: make(map[string]*RemoteAgent, len(endpoints))}
	for name, baseURL := range endpoints {
		h.agents[name] = NewRemoteAgent(name, baseURL+"/run", timeout)
	}
	return h
}

// Resolve returns the remote agent registered for name.
func (h *RemoteHost) Resolve(name string, mode pipeline.Mode) (Agent, error) {
	a, ok := h.agents[name]
	if !ok {
		return nil, errUnknownAgent(name)
	}
	return a, nil
}
