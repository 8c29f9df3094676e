package exchange

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMockExchangeOrderLifecycle tests the complete order lifecycle
func TestMockExchangeOrderLifecycle(t *testing.T) {
	// Create mock exchange without database
	exchange := NewMockExchange(nil)

	// Set market price
	exchange.SetMarketPrice("BTCUSDT", 50000.0)

	// Set session
	sessionID := uuid.New()
	exchange.SetSession(&sessionID)

	t.Run("Place market buy order", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideBuy,
			Type:     OrderTypeMarket,
			Quantity: 0.1,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.OrderID)
		assert.Equal(t, OrderStatusFilled, resp.Status)
	})

	t.Run("Place limit sell order", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideSell,
			Type:     OrderTypeLimit,
			Quantity: 0.05,
			Price:    51000.0,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.OrderID)
		assert.Equal(t, OrderStatusOpen, resp.Status)

		// Get order
		order, err := exchange.GetOrder(context.Background(), resp.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusOpen, order.Status)

		// Cancel order
		cancelledOrder, err := exchange.CancelOrder(context.Background(), resp.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusCancelled, cancelledOrder.Status)
	})

	t.Run("Place market sell order", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideSell,
			Type:     OrderTypeMarket,
			Quantity: 0.02,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.OrderID)
		assert.Equal(t, OrderStatusFilled, resp.Status)

		// Get fills
		fills, err := exchange.GetOrderFills(context.Background(), resp.OrderID)
		require.NoError(t, err)
		assert.NotEmpty(t, fills)

		totalQty := 0.0
		for _, fill := range fills {
			totalQty += fill.Quantity
		}
		assert.InDelta(t, 0.02, totalQty, 0.0001)
	})
}

// TestMockExchangeValidation tests order validation
func TestMockExchangeValidation(t *testing.T) {
	exchange := NewMockExchange(nil)
	exchange.SetMarketPrice("BTCUSDT", 50000.0)

	t.Run("Empty symbol", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "",
			Side:     OrderSideBuy,
			Type:     OrderTypeMarket,
			Quantity: 0.1,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err) // No error, but status is rejected
		assert.Equal(t, OrderStatusRejected, resp.Status)
	})

	t.Run("Invalid side", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSide("INVALID"),
			Type:     OrderTypeMarket,
			Quantity: 0.1,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusRejected, resp.Status)
	})

	t.Run("Zero quantity", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideBuy,
			Type:     OrderTypeMarket,
			Quantity: 0,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusRejected, resp.Status)
	})

	t.Run("Limit order without price", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideBuy,
			Type:     OrderTypeLimit,
			Quantity: 0.1,
			Price:    0,
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusRejected, resp.Status)
	})
}

// TestMockExchangeSlippage tests slippage simulation
func TestMockExchangeSlippage(t *testing.T) {
	exchange := NewMockExchange(nil)
	exchange.SetMarketPrice("BTCUSDT", 50000.0)

	t.Run("Small order has minimal slippage", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideBuy,
			Type:     OrderTypeMarket,
			Quantity: 0.01, // Small quantity
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)

		order, err := exchange.GetOrder(context.Background(), resp.OrderID)
		require.NoError(t, err)

		// Slippage should be minimal (< 0.1%)
		slippage := (order.AvgFillPrice - 50000.0) / 50000.0 * 100
		assert.Less(t, slippage, 0.1)
	})

	t.Run("Large order has more slippage", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideBuy,
			Type:     OrderTypeMarket,
			Quantity: 5.0, // Large quantity
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)

		order, err := exchange.GetOrder(context.Background(), resp.OrderID)
		require.NoError(t, err)

		// Large orders should have more slippage than small orders
		slippage := (order.AvgFillPrice - 50000.0) / 50000.0 * 100
		assert.Greater(t, slippage, 0.05, "Large order slippage should be greater than 0.05%")
	})
}

// TestMockExchangePartialFills tests partial fill simulation
func TestMockExchangePartialFills(t *testing.T) {
	exchange := NewMockExchange(nil)
	exchange.SetMarketPrice("BTCUSDT", 50000.0)

	t.Run("Large order gets partial fills", func(t *testing.T) {
		req := PlaceOrderRequest{
			Symbol:   "BTCUSDT",
			Side:     OrderSideBuy,
			Type:     OrderTypeMarket,
			Quantity: 10.0, // Very large quantity
		}

		resp, err := exchange.PlaceOrder(context.Background(), req)
		require.NoError(t, err)

		// Get fills
		fills, err := exchange.GetOrderFills(context.Background(), resp.OrderID)
		require.NoError(t, err)

		// Should have multiple fills
		assert.Greater(t, len(fills), 1, "Large order should have multiple fills")

		// Total filled quantity should match requested
		totalQty := 0.0
		for _, fill := range fills {
			totalQty += fill.Quantity
		}
		assert.InDelta(t, 10.0, totalQty, 0.001)
	})
}

