// Package sentiment fetches and parses a news/social sentiment feed for a
// symbol. There is no LLM call here — just a plain data-fetch-and-parse
// client. Parse failure is modeled explicitly as a ParseResult field, not an
// error or exception, so a malformed or empty feed degrades to a documented
// neutral reading instead of aborting the agent chain.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultFetchTimeout = 5 * time.Second

// rawHeadline is one wire-format entry from the feed.
type rawHeadline struct {
	Title     string  `json:"title"`
	Sentiment float64 `json:"sentiment"` // provider's own [-1,1] score
}

// ParseResult is the explicit outcome of parsing a sentiment feed response.
// OK=false (malformed body, empty feed, non-200 status) always carries the
// documented neutral fallback: Score=0, Confidence=30.
type ParseResult struct {
	OK         bool
	Score      float64
	Confidence float64
	Headlines  []string
}

func neutralFallback() ParseResult {
	return ParseResult{OK: false, Score: 0, Confidence: 30}
}

// Parse converts a raw feed response body into a ParseResult. It never
// returns an error — a parse problem is represented in the result itself.
func Parse(body []byte) ParseResult {
	var raw []rawHeadline
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Debug().Err(err).Msg("sentiment feed body did not parse, using neutral fallback")
		return neutralFallback()
	}
	if len(raw) == 0 {
		return neutralFallback()
	}

	var sum float64
	headlines := make([]string, 0, len(raw))
	for _, h := range raw {
		sum += clamp(h.Sentiment, -1, 1)
		headlines = append(headlines, h.Title)
	}
	avg := sum / float64(len(raw))

	// More headlines is read as higher confidence (whether they agree on a
	// direction is not checked),
	// capped well below certainty since this is still a noisy proxy signal.
	confidence := 40.0 + float64(len(raw))*2
	if confidence > 75 {
		confidence = 75
	}

	return ParseResult{
		OK:         true,
		Score:      clamp(avg, -1, 1),
		Confidence: confidence,
		Headlines:  headlines,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Fetcher retrieves a symbol's sentiment feed over HTTP and parses it.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher builds a Fetcher against baseURL (a sentiment feed endpoint
// returning a JSON array of {title, sentiment} entries for ?symbol=).
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
	}
}

// FetchAndParse retrieves the feed for symbol and parses it. Network and
// HTTP-status failures degrade to the same neutral ParseResult a parse
// failure would produce — a down sentiment provider should not abort a run.
func (f *Fetcher) FetchAndParse(ctx context.Context, symbol string) ParseResult {
	url := fmt.Sprintf("%s/sentiment?symbol=%s", f.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Debug().Err(err).Msg("failed to build sentiment feed request")
		return neutralFallback()
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("sentiment feed request failed")
		return neutralFallback()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("sentiment feed returned non-200")
		return neutralFallback()
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("failed to read sentiment feed body")
		return neutralFallback()
	}

	return Parse(buf)
}
