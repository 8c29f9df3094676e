package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesJSON(t *testing.T, n int) []byte {
	t.Helper()
	rows := make([][6]string, 0, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := 0; i < n; i++ {
		rows = append(rows, [6]string{
			fmt.Sprintf("%d", base+int64(i)*60000),
			"100.5", "101.0", "99.5", "100.8", "12.3",
		})
	}
	raw, err := json.Marshal(rows)
	require.NoError(t, err)
	return raw
}

func TestHTTPGateway_GetCandles_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(candlesJSON(t, 3))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "")
	candles, err := gw.GetCandles(context.Background(), "BTCUSDT", "1h", 3)

	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, 100.5, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].High)
	assert.Equal(t, 99.5, candles[0].Low)
	assert.Equal(t, 100.8, candles[0].Close)
	assert.Equal(t, 12.3, candles[0].Volume)
	assert.True(t, candles[1].OpenTime.After(candles[0].OpenTime))
}

func TestHTTPGateway_GetCandles_DegradesOnPersistentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "")
	candles, err := gw.GetCandles(context.Background(), "BTCUSDT", "1h", 3)

	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestHTTPGateway_GetCandles_DropsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[["not-a-number","1","1","1","1","1"],["1700000000000","100","101","99","100.5","10"]]`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "")
	candles, err := gw.GetCandles(context.Background(), "BTCUSDT", "1h", 2)

	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 100.0, candles[0].Open)
}

func TestHTTPGateway_GetCandles_RecoversAfterRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(candlesJSON(t, 1))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "")
	candles, err := gw.GetCandles(context.Background(), "ETHUSDT", "15m", 1)

	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 2, attempts)
}
