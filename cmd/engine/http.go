package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/ajitpratap0/cryptofunk/internal/orchestrator"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
	"github.com/ajitpratap0/cryptofunk/internal/validation"
)

const defaultListLimit = 50

var allowedTimeframes = []string{"15m", "1h", "4h", "1d"}

// controlPlaneStore is the subset of *db.DB the control plane reads from.
// Declared locally so this file depends on behavior, not the concrete
// *db.DB type.
type controlPlaneStore interface {
	ListPipelineRuns(ctx context.Context, limit int) ([]pipeline.PipelineRun, error)
	ListPipelineSteps(ctx context.Context, runID string) ([]pipeline.PipelineStep, error)
	GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error)
	ListTradeSignals(ctx context.Context, accountID string, limit int) ([]db.TradeSignal, error)
	ListTradeHistory(ctx context.Context, accountID string, limit int) ([]db.TradeHistory, error)
	ListBrainDecisions(ctx context.Context, accountID, symbol string, limit int) ([]db.BrainDecision, error)
}

// httpServer is the engine's control plane: the UI-facing surface for
// triggering and inspecting pipeline runs, plus read-only projections over
// accounts, trade signals, and brain decisions.
type httpServer struct {
	router    *gin.Engine
	db        controlPlaneStore
	orch      *orchestrator.Orchestrator
	scheduler *scheduler
	server    *http.Server
	addr      string
}

func newHTTPServer(cfg *config.Config, database controlPlaneStore, orch *orchestrator.Orchestrator, sched *scheduler) *httpServer {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(metrics.GinMiddleware())

	s := &httpServer{
		router:    router,
		db:        database,
		orch:      orch,
		scheduler: sched,
		addr:      cfg.API.GetAPIAddr(),
	}
	s.setupRoutes()
	return s
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("control-plane request")
	}
}

func (s *httpServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.router.POST("/pipeline/run", s.handlePipelineRun)
	s.router.GET("/pipeline/runs", s.handlePipelineRuns)

	s.router.GET("/accounts/:id", s.handleGetAccount)
	s.router.GET("/accounts/:id/trade-signals", s.handleTradeSignals)
	s.router.GET("/accounts/:id/trade-history", s.handleTradeHistory)
	s.router.GET("/accounts/:id/brain-decisions", s.handleBrainDecisions)
}

// Start runs the control-plane HTTP server, blocking until it is shut down
// or fails.
func (s *httpServer) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Info().Str("addr", s.addr).Msg("starting control-plane server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control-plane server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the control-plane server.
func (s *httpServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop control-plane server: %w", err)
	}
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *httpServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Version: config.Version})
}

type pipelineRunRequest struct {
	AccountID     string `json:"accountId" binding:"required"`
	Symbol        string `json:"symbol" binding:"required"`
	Timeframe     string `json:"timeframe" binding:"required"`
	UseHTTPAgents bool   `json:"useHttpAgents"`
}

type pipelineRunResponse struct {
	RunID  string             `json:"runId"`
	Status pipeline.RunStatus `json:"status"`
}

func (s *httpServer) handlePipelineRun(c *gin.Context) {
	var req pipelineRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	v := validation.NewValidator()
	v.Alphanumeric("symbol", req.Symbol)
	v.OneOf("timeframe", req.Timeframe, allowedTimeframes)
	if v.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Errors().Error()})
		return
	}

	mode := pipeline.ModeInProcess
	if req.UseHTTPAgents {
		mode = pipeline.ModeRemote
	}

	run, err := s.scheduler.Trigger(c.Request.Context(), req.AccountID, req.Symbol, req.Timeframe, mode)
	if err != nil {
		log.Error().Err(err).Str("account_id", req.AccountID).Msg("pipeline run failed")
		metrics.RecordError("pipeline_run_failed", "control_plane")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pipelineRunResponse{RunID: run.ID, Status: run.Status})
}

// pipelineRunWithSteps bundles a run with its step rows, the shape the
// control plane's recent-runs listing returns.
type pipelineRunWithSteps struct {
	pipeline.PipelineRun
	Steps []pipeline.PipelineStep `json:"steps"`
}

func (s *httpServer) handlePipelineRuns(c *gin.Context) {
	runs, err := s.db.ListPipelineRuns(c.Request.Context(), defaultListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]pipelineRunWithSteps, 0, len(runs))
	for _, run := range runs {
		steps, err := s.db.ListPipelineSteps(c.Request.Context(), run.ID)
		if err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("failed to load pipeline steps")
			steps = nil
		}
		out = append(out, pipelineRunWithSteps{PipelineRun: run, Steps: steps})
	}

	c.JSON(http.StatusOK, out)
}

func (s *httpServer) handleGetAccount(c *gin.Context) {
	account, err := s.db.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *httpServer) handleTradeSignals(c *gin.Context) {
	signals, err := s.db.ListTradeSignals(c.Request.Context(), c.Param("id"), defaultListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (s *httpServer) handleTradeHistory(c *gin.Context) {
	history, err := s.db.ListTradeHistory(c.Request.Context(), c.Param("id"), defaultListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *httpServer) handleBrainDecisions(c *gin.Context) {
	symbol := c.Query("symbol")
	decisions, err := s.db.ListBrainDecisions(c.Request.Context(), c.Param("id"), symbol, defaultListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decisions)
}
