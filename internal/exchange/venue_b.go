package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/metrics"
)

// VenueBConfig holds the credentials and endpoint for the futures venue
// adapter.
type VenueBConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// venueBResponse covers the two shapes the venue may return an order id
// under; either field alone is enough to consider the order accepted.
type venueBResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Code          int    `json:"code"`
	Msg           string `json:"msg"`
}

// VenueB places market orders on a Binance-shaped futures venue: the
// request is a URL-encoded query string with an HMAC-SHA256 signature
// appended as its own parameter, and the API key travels in a header
// rather than the signed payload.
type VenueB struct {
	cfg        VenueBConfig
	httpClient *http.Client
	retryCfg   RetryConfig

	mu               sync.RWMutex
	currentSessionID *uuid.UUID
}

// NewVenueB builds a VenueB adapter.
func NewVenueB(cfg VenueBConfig) *VenueB {
	return &VenueB{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryCfg:   DefaultRetryConfig(),
	}
}

// PlaceOrder places a market order on venue B, retrying transient failures.
func (v *VenueB) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	if err := validateMarketOrder(req); err != nil {
		return &PlaceOrderResponse{Status: OrderStatusRejected, Message: err.Error()}, nil
	}
	if v.cfg.APIKey == "" || v.cfg.APISecret == "" {
		return &PlaceOrderResponse{Status: OrderStatusRejected, Message: "venue-b: missing API credentials"}, nil
	}

	start := time.Now()
	resp, err := v.placeOrder(ctx, req)
	metrics.RecordExchangeAPICall("venue-b", "/fapi/v1/order", float64(time.Since(start).Milliseconds()), err)
	return resp, err
}

func (v *VenueB) placeOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	side := "BUY"
	if req.Side == OrderSideSell {
		side = "SELL"
	}

	var reply venueBResponse
	err := WithRetry(ctx, v.retryCfg, func() error {
		resp, doErr := v.doSignedRequest(ctx, req.Symbol, side, req.Quantity)
		if doErr != nil {
			return doErr
		}
		reply = *resp
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("venue-b: order placement failed after retries")
		return &PlaceOrderResponse{Status: OrderStatusRejected, Message: err.Error()}, err
	}

	if reply.Code != 0 {
		return &PlaceOrderResponse{
			Status:  OrderStatusRejected,
			Message: fmt.Sprintf("venue-b rejected order (code=%d): %s", reply.Code, reply.Msg),
		}, nil
	}

	orderID := reply.ClientOrderID
	if orderID == "" {
		orderID = strconv.FormatInt(reply.OrderID, 10)
	}

	return &PlaceOrderResponse{
		OrderID: orderID,
		Status:  OrderStatusOpen,
		Message: "order accepted by venue-b",
	}, nil
}

func (v *VenueB) doSignedRequest(ctx context.Context, symbol, side string, quantity float64) (*venueBResponse, error) {
	values := url.Values{}
	values.Set("symbol", symbol)
	values.Set("side", side)
	values.Set("type", "MARKET")
	values.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))
	values.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	query := values.Encode()
	signature := v.sign(query)
	query += "&signature=" + signature

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+"/fapi/v1/order?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("venue-b: build request: %w", err)
	}
	httpReq.Header.Set("X-MBX-APIKEY", v.cfg.APIKey)

	httpResp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("venue-b: request failed: %w", err), Retryable: true}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("venue-b: read response: %w", err)
	}

	if httpResp.StatusCode >= 500 || httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, &RetryableError{Err: fmt.Errorf("venue-b: http %d: %s", httpResp.StatusCode, raw), Retryable: true}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var reply venueBResponse
		if jsonErr := json.Unmarshal(raw, &reply); jsonErr == nil && reply.Msg != "" {
			return nil, fmt.Errorf("venue-b: http %d: %s", httpResp.StatusCode, reply.Msg)
		}
		return nil, fmt.Errorf("venue-b: http %d: %s", httpResp.StatusCode, raw)
	}

	var reply venueBResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("venue-b: decode response: %w", err)
	}
	return &reply, nil
}

// sign computes the HMAC-SHA256 signature over the URL-encoded query string.
func (v *VenueB) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(v.cfg.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// CancelOrder is not part of the execution path.
func (v *VenueB) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	return nil, fmt.Errorf("venue-b: cancel order not implemented")
}

// GetOrder is not part of the execution path.
func (v *VenueB) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return nil, fmt.Errorf("venue-b: get order not implemented")
}

// GetOrderFills is not part of the execution path.
func (v *VenueB) GetOrderFills(ctx context.Context, orderID string) ([]Fill, error) {
	return nil, fmt.Errorf("venue-b: get order fills not implemented")
}

// SetMarketPrice is a no-op for a live venue: prices come from the venue itself.
func (v *VenueB) SetMarketPrice(symbol string, price float64) {}

// SetSession sets the current trading session.
func (v *VenueB) SetSession(sessionID *uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentSessionID = sessionID
}

// GetSession returns the current trading session id.
func (v *VenueB) GetSession() *uuid.UUID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.currentSessionID
}
