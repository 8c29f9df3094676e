package exchange

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenueA_PlaceOrder_SignsAndSucceeds(t *testing.T) {
	var gotHeaders http.Header
	var gotBody venueARequestBody

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(venueAResponse{RetCode: 0, Result: struct {
			OrderID string `json:"orderId"`
		}{OrderID: "venue-a-123"}})
	}))
	defer server.Close()

	v := NewVenueA(VenueAConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol:   "BTCUSDT",
		Side:     OrderSideBuy,
		Type:     OrderTypeMarket,
		Quantity: 0.5,
	})

	require.NoError(t, err)
	assert.Equal(t, "venue-a-123", resp.OrderID)
	assert.Equal(t, OrderStatusOpen, resp.Status)

	assert.Equal(t, "key", gotHeaders.Get("X-BAPI-API-KEY"))
	assert.NotEmpty(t, gotHeaders.Get("X-BAPI-SIGN"))
	assert.NotEmpty(t, gotHeaders.Get("X-BAPI-TIMESTAMP"))
	assert.Equal(t, "5000", gotHeaders.Get("X-BAPI-RECV-WINDOW"))

	assert.Equal(t, "linear", gotBody.Category)
	assert.Equal(t, "BTCUSDT", gotBody.Symbol)
	assert.Equal(t, "Buy", gotBody.Side)
	assert.Equal(t, "Market", gotBody.OrderType)
	assert.Equal(t, "IOC", gotBody.TimeInForce)
}

func TestVenueA_PlaceOrder_NonZeroRetCodeRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(venueAResponse{RetCode: 10001, RetMsg: "insufficient balance"})
	}))
	defer server.Close()

	v := NewVenueA(VenueAConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol:   "BTCUSDT",
		Side:     OrderSideBuy,
		Type:     OrderTypeMarket,
		Quantity: 0.5,
	})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusRejected, resp.Status)
	assert.Contains(t, resp.Message, "insufficient balance")
}

func TestVenueA_PlaceOrder_ValidationRejectsBeforeAnyHTTPCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	v := NewVenueA(VenueAConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{Symbol: "BTCUSDT", Side: OrderSideBuy, Quantity: 0})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusRejected, resp.Status)
	assert.False(t, called, "invalid request must not reach the venue")
}

func TestVenueA_PlaceOrder_MissingCredentialsRejectsBeforeAnyHTTPCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	v := NewVenueA(VenueAConfig{BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol:   "BTCUSDT",
		Side:     OrderSideBuy,
		Type:     OrderTypeMarket,
		Quantity: 0.5,
	})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusRejected, resp.Status)
	assert.Contains(t, resp.Message, "missing API credentials")
	assert.False(t, called, "missing credentials must not reach the venue")
}
