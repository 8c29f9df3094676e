package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/agents"
	"github.com/ajitpratap0/cryptofunk/internal/agents/builtin"
	"github.com/ajitpratap0/cryptofunk/internal/agentsvc"
	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/indicators"
)

func main() {
	port := flag.Int("port", config.GetAgentPort("market-structure"), "listen port")

	flag.Parse()

	log.Logger = config.NewRemoteAgentLogger("market-structure")

	agent := builtin.NewMarketStructureAgent(indicators.NewService())
	metrics := agents.NewMetrics()
	srv := agentsvc.NewServer(agent, metrics, *port)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		log.Error().Err(err).Msg("agent microservice failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("error during agent microservice shutdown")
		os.Exit(1)
	}
}
