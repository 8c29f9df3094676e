package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/agents/builtin"
	"github.com/ajitpratap0/cryptofunk/internal/alerts"
	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/decision"
	"github.com/ajitpratap0/cryptofunk/internal/exchange"
	"github.com/ajitpratap0/cryptofunk/internal/execution"
	"github.com/ajitpratap0/cryptofunk/internal/indicators"
	"github.com/ajitpratap0/cryptofunk/internal/market"
	"github.com/ajitpratap0/cryptofunk/internal/orchestrator"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
	"github.com/ajitpratap0/cryptofunk/internal/queue"
	"github.com/ajitpratap0/cryptofunk/internal/sentiment"
)

const (
	remoteAgentTimeout  = 30 * time.Second
	candleCacheTTL      = 30 * time.Second
	shutdownGracePeriod = 5 * time.Second
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.App.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	gateway := market.NewCachedGateway(
		market.NewHTTPGateway(cfg.Pipeline.MarketDataBaseURL, ""),
		rdb,
		candleCacheTTL,
	)

	host := buildAgentHost(cfg)

	execQueue := queue.NewRedisQueue(rdb)
	engine := decision.NewEngine(database, execQueue)
	metrics := agents.NewMetrics()
	orch := orchestrator.New(gateway, database, host, engine, metrics)

	venue, venueName := buildVenue(cfg, database)
	alerter := buildAlerter()
	worker := execution.New(database, execQueue, venue, venueName, database.GetCircuitBreaker().Exchange(), alerter, cfg.Venue.LiveExecutionEnabled)

	workerErrCh := make(chan error, 1)
	go func() {
		log.Info().Str("venue", venueName).Msg("starting execution worker")
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			workerErrCh <- err
		}
	}()

	scheduler := newScheduler(orch, cfg.Pipeline)
	go scheduler.Run(ctx)

	httpServer := newHTTPServer(cfg, database, orch, scheduler)
	httpErrCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			httpErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-workerErrCh:
		log.Error().Err(err).Msg("execution worker failed")
	case err := <-httpErrCh:
		log.Error().Err(err).Msg("control-plane server failed")
	}

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during control-plane shutdown")
	}

	log.Info().Msg("engine stopped")
}

// buildAgentHost wires the nine fixed agents either in-process or as HTTP
// calls to their cmd/agentsvc/* microservices, depending on cfg.Pipeline.Mode.
func buildAgentHost(cfg *config.Config) agents.Host {
	if cfg.Pipeline.Mode == string(pipeline.ModeRemote) {
		endpoints := make(map[string]string, len(pipeline.AgentOrder))
		for _, name := range pipeline.AgentOrder {
			port := cfg.RemoteAgents.Ports[name]
			if port == 0 {
				port = config.GetAgentPort(name)
			}
			endpoints[name] = fmt.Sprintf("%s:%d", cfg.RemoteAgents.BaseURL, port)
		}
		return agents.NewRemoteHost(endpoints, remoteAgentTimeout)
	}

	indicatorSvc := indicators.NewService()
	return agents.NewInProcessHost(
		builtin.NewMarketStructureAgent(indicatorSvc),
		builtin.NewOrderFlowAgent(),
		builtin.NewMomentumAgent(indicatorSvc),
		builtin.NewVolatilityRegimeAgent(indicatorSvc),
		builtin.NewNewsSentimentAgent(sentiment.NewFetcher(os.Getenv("CRYPTOFUNK_SENTIMENT_FEED_URL"))),
		builtin.NewMultiTimeframeAgent(indicatorSvc),
		builtin.NewPatternRecognitionAgent(),
		builtin.NewStatisticalEdgeAgent(),
		builtin.NewRiskManagerAgent(),
	)
}

// buildVenue selects the execution worker's venue adapter by cfg.Venue.Name,
// defaulting to the in-memory mock (paper trading) when unset or unrecognized.
func buildVenue(cfg *config.Config, database *db.DB) (exchange.Exchange, string) {
	switch cfg.Venue.Name {
	case "venue_a":
		return exchange.NewVenueA(exchange.VenueAConfig{
			APIKey:     cfg.Venue.APIKey,
			APISecret:  cfg.Venue.APISecret,
			BaseURL:    cfg.Venue.BaseURL,
			RecvWindow: cfg.Venue.RecvWindow,
		}), "venue-a"
	case "venue_b":
		return exchange.NewVenueB(exchange.VenueBConfig{
			APIKey:    cfg.Venue.APIKey,
			APISecret: cfg.Venue.APISecret,
			BaseURL:   cfg.Venue.BaseURL,
		}), "venue-b"
	default:
		return exchange.NewMockExchange(database), "mock"
	}
}

// buildAlerter wires a Telegram alerter when credentials are present in the
// environment, alongside the always-on log alerter. Telegram credentials
// have no field on config.Config, so they are read directly from the
// environment here rather than through viper.
func buildAlerter() *alerts.Manager {
	alerters := []alerts.Alerter{alerts.NewLogAlerter()}

	botToken := os.Getenv("CRYPTOFUNK_TELEGRAM_BOT_TOKEN")
	chatIDsEnv := os.Getenv("CRYPTOFUNK_TELEGRAM_CHAT_IDS")
	if botToken != "" && chatIDsEnv != "" {
		var chatIDs []int64
		parseFailed := false
		for _, raw := range strings.Split(chatIDsEnv, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				log.Warn().Err(err).Str("value", raw).Msg("invalid telegram chat id, skipping telegram alerter")
				parseFailed = true
				break
			}
			chatIDs = append(chatIDs, id)
		}
		if !parseFailed {
			telegram, err := alerts.NewTelegramAlerter(botToken, chatIDs)
			if err != nil {
				log.Warn().Err(err).Msg("failed to build telegram alerter")
			} else {
				alerters = append(alerters, telegram)
			}
		}
	}

	return alerts.NewManager(alerters...)
}
