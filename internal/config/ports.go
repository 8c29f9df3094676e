// Package config provides configuration management for CryptoFunk.
// This file centralizes all port constants to avoid duplication and ensure consistency.
package config

// ============================================================================
// CENTRALIZED PORT CONFIGURATION
// ============================================================================
//
// This file defines all ports used by CryptoFunk services.
// Update this file when adding new services or changing port assignments.
//
// Port Allocation Strategy:
//   8080-8099: API servers and web services
//   8200-8299: Infrastructure services (Vault, etc.)
//   9100-9199: Prometheus metrics / remote-agent endpoints
//
// ============================================================================

// API and Web Service Ports
const (
	// APIServerPort is the port for the main REST API server.
	APIServerPort = 8080

	// EnginePort is the port for the engine's control-plane HTTP server.
	EnginePort = 8081
)

// Infrastructure Service Ports
const (
	// VaultPort is the default port for HashiCorp Vault.
	VaultPort = 8200

	// PostgresPort is the default port for PostgreSQL.
	PostgresPort = 5432

	// RedisPort is the default port for Redis.
	RedisPort = 6379
)

// Remote Agent Microservice Ports
// Each of the nine fixed agents gets a unique port when run
// as a standalone microservice under pipeline.mode=remote.
const (
	AgentPortMarketStructure    = 9101
	AgentPortOrderFlow          = 9102
	AgentPortMomentum           = 9103
	AgentPortVolatilityRegime   = 9104
	AgentPortNewsSentiment      = 9105
	AgentPortMultiTimeframe     = 9106
	AgentPortPatternRecognition = 9107
	AgentPortStatisticalEdge    = 9108
	AgentPortRiskManager        = 9109
)

// Monitoring Service Ports
const (
	// PrometheusPort is the default port for Prometheus.
	PrometheusPort = 9090

	// GrafanaPort is the default port for Grafana.
	GrafanaPort = 3000
)

// AgentPorts provides a mapping of agent names to their microservice ports.
// It mirrors the defaults set in config.go's setDefaults() for
// remote_agents.ports, and is useful for Prometheus scrape configuration.
var AgentPorts = map[string]int{
	"market-structure":    AgentPortMarketStructure,
	"order-flow":          AgentPortOrderFlow,
	"momentum":            AgentPortMomentum,
	"volatility-regime":   AgentPortVolatilityRegime,
	"news-sentiment":      AgentPortNewsSentiment,
	"multi-timeframe":     AgentPortMultiTimeframe,
	"pattern-recognition": AgentPortPatternRecognition,
	"statistical-edge":    AgentPortStatisticalEdge,
	"risk-manager":        AgentPortRiskManager,
}

// GetAgentPort returns the microservice port for a given agent name.
// Returns 0 if the agent is not found.
func GetAgentPort(agentName string) int {
	if port, ok := AgentPorts[agentName]; ok {
		return port
	}
	return 0
}
