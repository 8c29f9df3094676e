package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/metrics"
)

// VenueAConfig holds the credentials and endpoint for the linear-perpetual
// venue adapter.
type VenueAConfig struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	RecvWindow string
}

// venueARequestBody is the JSON body placed on the wire, field order
// matching the venue's documented request shape.
type venueARequestBody struct {
	Category    string `json:"category"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Qty         string `json:"qty"`
	TimeInForce string `json:"timeInForce"`
}

// venueAResponse is the venue's documented reply envelope.
type venueAResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		OrderID string `json:"orderId"`
	} `json:"result"`
}

// VenueA places market orders on a Bybit-shaped linear-perpetual venue:
// HMAC-SHA256 signed over timestamp|apiKey|recvWindow|body, with the
// signature and credentials carried in X-BAPI-* headers rather than the
// body itself.
type VenueA struct {
	cfg        VenueAConfig
	httpClient *http.Client
	retryCfg   RetryConfig

	mu               sync.RWMutex
	currentSessionID *uuid.UUID
}

// NewVenueA builds a VenueA adapter. recvWindow defaults to "5000" ms when
// unset.
func NewVenueA(cfg VenueAConfig) *VenueA {
	if cfg.RecvWindow == "" {
		cfg.RecvWindow = "5000"
	}
	return &VenueA{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryCfg:   DefaultRetryConfig(),
	}
}

// PlaceOrder places a market order on venue A, retrying transient failures.
func (v *VenueA) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	if err := validateMarketOrder(req); err != nil {
		return &PlaceOrderResponse{Status: OrderStatusRejected, Message: err.Error()}, nil
	}
	if v.cfg.APIKey == "" || v.cfg.APISecret == "" {
		return &PlaceOrderResponse{Status: OrderStatusRejected, Message: "venue-a: missing API credentials"}, nil
	}

	start := time.Now()
	resp, err := v.placeOrder(ctx, req)
	metrics.RecordExchangeAPICall("venue-a", "/v5/order/create", float64(time.Since(start).Milliseconds()), err)
	return resp, err
}

func (v *VenueA) placeOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	side := "Buy"
	if req.Side == OrderSideSell {
		side = "Sell"
	}
	body := venueARequestBody{
		Category:    "linear",
		Symbol:      req.Symbol,
		Side:        side,
		OrderType:   "Market",
		Qty:         strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		TimeInForce: "IOC",
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("venue-a: marshal order request: %w", err)
	}

	var reply venueAResponse
	err = WithRetry(ctx, v.retryCfg, func() error {
		resp, doErr := v.doSignedRequest(ctx, payload)
		if doErr != nil {
			return doErr
		}
		reply = *resp
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("venue-a: order placement failed after retries")
		return &PlaceOrderResponse{Status: OrderStatusRejected, Message: err.Error()}, err
	}

	if reply.RetCode != 0 {
		return &PlaceOrderResponse{
			Status:  OrderStatusRejected,
			Message: fmt.Sprintf("venue-a rejected order (retCode=%d): %s", reply.RetCode, reply.RetMsg),
		}, nil
	}

	return &PlaceOrderResponse{
		OrderID: reply.Result.OrderID,
		Status:  OrderStatusOpen,
		Message: "order accepted by venue-a",
	}, nil
}

func (v *VenueA) doSignedRequest(ctx context.Context, body []byte) (*venueAResponse, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := v.sign(timestamp, body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+"/v5/order/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("venue-a: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-BAPI-API-KEY", v.cfg.APIKey)
	httpReq.Header.Set("X-BAPI-SIGN", signature)
	httpReq.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	httpReq.Header.Set("X-BAPI-RECV-WINDOW", v.cfg.RecvWindow)

	httpResp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("venue-a: request failed: %w", err), Retryable: true}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("venue-a: read response: %w", err)
	}

	if httpResp.StatusCode >= 500 || httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, &RetryableError{Err: fmt.Errorf("venue-a: http %d: %s", httpResp.StatusCode, raw), Retryable: true}
	}

	var reply venueAResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("venue-a: decode response: %w", err)
	}
	return &reply, nil
}

// sign computes the HMAC-SHA256 signature over timestamp|apiKey|recvWindow|body.
func (v *VenueA) sign(timestamp string, body []byte) string {
	preimage := timestamp + v.cfg.APIKey + v.cfg.RecvWindow + string(body)
	mac := hmac.New(sha256.New, []byte(v.cfg.APISecret))
	mac.Write([]byte(preimage))
	return hex.EncodeToString(mac.Sum(nil))
}

// CancelOrder is not part of the execution path (the worker only
// places orders); venue A does not need it wired yet.
func (v *VenueA) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	return nil, fmt.Errorf("venue-a: cancel order not implemented")
}

// GetOrder is not part of the execution path.
func (v *VenueA) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return nil, fmt.Errorf("venue-a: get order not implemented")
}

// GetOrderFills is not part of the execution path.
func (v *VenueA) GetOrderFills(ctx context.Context, orderID string) ([]Fill, error) {
	return nil, fmt.Errorf("venue-a: get order fills not implemented")
}

// SetMarketPrice is a no-op for a live venue: prices come from the venue itself.
func (v *VenueA) SetMarketPrice(symbol string, price float64) {}

// SetSession sets the current trading session.
func (v *VenueA) SetSession(sessionID *uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentSessionID = sessionID
}

// GetSession returns the current trading session id.
func (v *VenueA) GetSession() *uuid.UUID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.currentSessionID
}

func validateMarketOrder(req PlaceOrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if req.Side != OrderSideBuy && req.Side != OrderSideSell {
		return fmt.Errorf("invalid order side: %s", req.Side)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return nil
}
