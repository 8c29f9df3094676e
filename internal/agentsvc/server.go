// Package agentsvc wraps a single builtin trading agent behind an HTTP
// server, so it can be deployed as its own process and resolved by the
// engine through agents.RemoteHost instead of an in-process call.
package agentsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// Server exposes one agent's Evaluate behind POST /run, plus GET /health
// and GET /metrics for orchestration tooling.
type Server struct {
	router  *gin.Engine
	agent   agents.Agent
	metrics *agents.Metrics
	addr    string
	server  *http.Server
}

// NewServer builds the HTTP wrapper for agent, listening on port.
func NewServer(agent agents.Agent, metrics *agents.Metrics, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(agent.Name()))

	s := &Server{
		router:  router,
		agent:   agent,
		metrics: metrics,
		addr:    fmt.Sprintf(":%d", port),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/run", s.handleRun)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start runs the HTTP server, blocking until it is shut down or fails.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("agent", s.agent.Name()).Str("addr", s.addr).Msg("starting agent microservice")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("agent microservice %s failed: %w", s.agent.Name(), err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Str("agent", s.agent.Name()).Msg("stopping agent microservice")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop agent microservice %s: %w", s.agent.Name(), err)
	}
	return nil
}

func requestLogger(agentName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("agent", agentName).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("agent microservice request")
	}
}

// healthResponse is the body returned by GET /health.
type healthResponse struct {
	Status string `json:"status"`
	Agent  string `json:"agent"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Agent: s.agent.Name()})
}

// runRequest mirrors agents.remoteRunRequest's wire shape; it is decoded
// independently here since that type is unexported in package agents.
type runRequest struct {
	RunID        string                          `json:"run_id"`
	AccountID    string                          `json:"account_id"`
	Symbol       string                          `json:"symbol"`
	Timeframe    string                          `json:"timeframe"`
	Account      pipeline.Account                `json:"account"`
	MarketData   map[string][]pipeline.Candle    `json:"market_data"`
	AgentResults map[string]pipeline.AgentResult `json:"agent_results"`
}

type runResponse struct {
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleRun decodes the pipeline context, runs the wrapped agent, and
// returns its clamped result. Agent evaluation errors surface as 422 so the
// caller's RemoteAgent can distinguish them from transport failures.
func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	pc := &pipeline.PipelineContext{
		RunID:        req.RunID,
		AccountID:    req.AccountID,
		Symbol:       req.Symbol,
		Timeframe:    req.Timeframe,
		Account:      req.Account,
		MarketData:   req.MarketData,
		AgentResults: req.AgentResults,
	}

	start := time.Now()
	result, err := s.agent.Evaluate(c.Request.Context(), pc)
	if s.metrics != nil {
		s.metrics.Observe(s.agent.Name(), pipeline.ModeRemote, start, err)
	}
	if err != nil {
		log.Error().Err(err).Str("agent", s.agent.Name()).Str("run_id", req.RunID).Msg("agent evaluation failed")
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	result = pipeline.ClampAgentResult(result)
	c.JSON(http.StatusOK, runResponse{
		Score:      result.Score,
		Confidence: result.Confidence,
		Payload:    result.Payload,
	})
}
