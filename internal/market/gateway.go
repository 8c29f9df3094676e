// Package market fetches candle sequences from a public market-data
// endpoint for the pipeline's context builder.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout = 10 * time.Second
	maxAttempts    = 3
)

// Gateway fetches OHLCV candle sequences for a (symbol, interval) pair.
type Gateway interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]pipeline.Candle, error)
}

// HTTPGateway is a Gateway backed by a public REST market-data endpoint.
// Individual fetch failures degrade to an empty sequence rather than
// propagating, per the orchestrator's context-assembly contract.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway creates a candle gateway against baseURL (empty uses the
// default public CoinGecko-shaped endpoint).
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// rawCandle mirrors the documented wire shape: ordered 6-tuples of
// [openTimeMs, open, high, low, close, volume] as strings or numbers.
type rawCandle [6]json.Number

// GetCandles fetches up to limit candles for symbol/interval, oldest first.
// A transient failure is retried with bounded backoff; exhaustion yields an
// empty sequence and a logged warning rather than an error, matching the
// orchestrator's "degrade, don't abort" contract for market data.
func (g *HTTPGateway) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]pipeline.Candle, error) {
	var candles []pipeline.Candle
	var lastErr error

fetchLoop:
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candles, lastErr = g.fetchOnce(ctx, symbol, interval, limit)
		if lastErr == nil {
			return candles, nil
		}

		log.Warn().
			Err(lastErr).
			Str("symbol", symbol).
			Str("interval", interval).
			Int("attempt", attempt).
			Msg("candle fetch failed, retrying")

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break fetchLoop
		case <-time.After(backoff(attempt)):
		}
	}

	log.Warn().
		Err(lastErr).
		Str("symbol", symbol).
		Str("interval", interval).
		Msg("candle fetch exhausted retries, degrading to empty sequence")
	return []pipeline.Candle{}, nil
}

func (g *HTTPGateway) fetchOnce(ctx context.Context, symbol, interval string, limit int) ([]pipeline.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))
	if g.apiKey != "" {
		params.Set("x_api_key", g.apiKey)
	}

	reqURL := fmt.Sprintf("%s/candles?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candle request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candle request returned status %d", resp.StatusCode)
	}

	var raw []rawCandle
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode candle response: %w", err)
	}

	candles := make([]pipeline.Candle, 0, len(raw))
	for _, r := range raw {
		c, err := parseCandle(r)
		if err != nil {
			log.Debug().Err(err).Msg("dropping malformed candle")
			continue
		}
		candles = append(candles, c)
	}

	return candles, nil
}

func parseCandle(r rawCandle) (pipeline.Candle, error) {
	openMs, err := r[0].Int64()
	if err != nil {
		return pipeline.Candle{}, fmt.Errorf("open_time: %w", err)
	}
	open, err := r[1].Float64()
	if err != nil {
		return pipeline.Candle{}, fmt.Errorf("open: %w", err)
	}
	high, err := r[2].Float64()
	if err != nil {
		return pipeline.Candle{}, fmt.Errorf("high: %w", err)
	}
	low, err := r[3].Float64()
	if err != nil {
		return pipeline.Candle{}, fmt.Errorf("low: %w", err)
	}
	closePrice, err := r[4].Float64()
	if err != nil {
		return pipeline.Candle{}, fmt.Errorf("close: %w", err)
	}
	volume, err := r[5].Float64()
	if err != nil {
		return pipeline.Candle{}, fmt.Errorf("volume: %w", err)
	}

	if !isFinite(open) || !isFinite(high) || !isFinite(low) || !isFinite(closePrice) || !isFinite(volume) {
		return pipeline.Candle{}, fmt.Errorf("non-finite candle field")
	}

	return pipeline.Candle{
		OpenTime: time.UnixMilli(openMs).UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
	}, nil
}

func isFinite(v float64) bool {
	return v == v && v < 1e308 && v > -1e308
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 200 * time.Millisecond
}
