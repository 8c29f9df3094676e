package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenueB_PlaceOrder_SignsAndSucceeds(t *testing.T) {
	var gotQuery string
	var gotAPIKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("X-MBX-APIKEY")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(venueBResponse{OrderID: 998877})
	}))
	defer server.Close()

	v := NewVenueB(VenueBConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol:   "BTCUSDT",
		Side:     OrderSideSell,
		Type:     OrderTypeMarket,
		Quantity: 1.25,
	})

	require.NoError(t, err)
	assert.Equal(t, "998877", resp.OrderID)
	assert.Equal(t, OrderStatusOpen, resp.Status)

	assert.Equal(t, "key", gotAPIKey)
	assert.Contains(t, gotQuery, "symbol=BTCUSDT")
	assert.Contains(t, gotQuery, "side=SELL")
	assert.Contains(t, gotQuery, "type=MARKET")
	assert.Contains(t, gotQuery, "signature=")
}

func TestVenueB_PlaceOrder_PrefersClientOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(venueBResponse{OrderID: 1, ClientOrderID: "client-abc"})
	}))
	defer server.Close()

	v := NewVenueB(VenueBConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol: "ETHUSDT", Side: OrderSideBuy, Type: OrderTypeMarket, Quantity: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "client-abc", resp.OrderID)
}

func TestVenueB_PlaceOrder_HTTPErrorRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(venueBResponse{Code: -2010, Msg: "account has insufficient balance"})
	}))
	defer server.Close()

	v := NewVenueB(VenueBConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol: "BTCUSDT", Side: OrderSideBuy, Type: OrderTypeMarket, Quantity: 1,
	})

	assert.Error(t, err)
	assert.Equal(t, OrderStatusRejected, resp.Status)
	assert.Contains(t, resp.Message, "insufficient balance")
}

func TestVenueB_PlaceOrder_MissingCredentialsRejectsBeforeAnyHTTPCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	v := NewVenueB(VenueBConfig{BaseURL: server.URL})

	resp, err := v.PlaceOrder(context.Background(), PlaceOrderRequest{
		Symbol: "BTCUSDT", Side: OrderSideBuy, Type: OrderTypeMarket, Quantity: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, OrderStatusRejected, resp.Status)
	assert.Contains(t, resp.Message, "missing API credentials")
	assert.False(t, called, "missing credentials must not reach the venue")
}
