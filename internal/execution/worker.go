package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ajitpratap0/cryptofunk/internal/alerts"
	"github.com/ajitpratap0/cryptofunk/internal/db"
	"github.com/ajitpratap0/cryptofunk/internal/exchange"
	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// Store is the subset of *db.DB the worker needs. Declared locally so this
// package depends on behavior, not the concrete *db.DB type.
type Store interface {
	GetTradeSignal(ctx context.Context, id string) (*db.TradeSignal, error)
	UpdateTradeSignalStatus(ctx context.Context, id string, status db.TradeSignalStatus) error
	GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error)
	InsertTradeHistory(ctx context.Context, t *db.TradeHistory) error
}

// Queue is the subset of the execution queue the worker needs.
type Queue interface {
	DequeueBlocking(ctx context.Context) (string, error)
	TryAcquireLock(ctx context.Context, signalID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, signalID string)
}

// State is the worker's current run state, queryable rather than inferred
// from a mutable boolean elsewhere in the process.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

const dequeueRetryBackoff = time.Second

// signalLockTTL is the lock window spec.md §4.5 step 1 requires:
// TryAcquireLock("signal:"+id, 60s).
const signalLockTTL = 60 * time.Second

// Worker is the long-running consumer that pops signal ids off the Queue,
// acquires the per-signal lock, loads and validates the TradeSignal, computes
// a notional quantity, and places the order on the configured venue.
type Worker struct {
	store                Store
	queue                Queue
	venue                exchange.Exchange
	venueName            string
	breaker              *gobreaker.CircuitBreaker
	alerter              *alerts.Manager
	liveExecutionEnabled bool

	mu     sync.RWMutex
	state  State
	stopCh chan struct{}
}

// New builds an execution worker bound to a store, queue, and venue
// adapter. venueName labels trade_history rows and log lines ("venue-a",
// "venue-b", or "mock"). breaker may be nil, in which case venue calls are
// made directly. liveExecutionEnabled gates whether the worker ever calls
// the venue at all; a decision still produces a pending TradeSignal when
// disabled, but the worker must reject it without making an HTTP call.
func New(store Store, queue Queue, venue exchange.Exchange, venueName string, breaker *gobreaker.CircuitBreaker, alerter *alerts.Manager, liveExecutionEnabled bool) *Worker {
	return &Worker{
		store:                store,
		queue:                queue,
		venue:                venue,
		venueName:            venueName,
		breaker:              breaker,
		alerter:              alerter,
		liveExecutionEnabled: liveExecutionEnabled,
		state:                StateStopped,
	}
}

// State returns the worker's current run state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Run blocks, dequeuing and processing signals until ctx is cancelled or
// Stop is called. It returns nil on a clean Stop and ctx.Err() on
// cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	w.state = StateRunning
	stop := make(chan struct{})
	w.stopCh = stop
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.state = StateStopped
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		id, err := w.queue.DequeueBlocking(ctx)
		if err != nil {
			log.Error().Err(err).Msg("execution worker: dequeue failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-stop:
				return nil
			case <-time.After(dequeueRetryBackoff):
			}
			continue
		}
		if id == "" {
			continue
		}

		w.processOne(ctx, id)
	}
}

// Stop signals Run to return after finishing any in-flight signal.
func (w *Worker) Stop() {
	w.mu.RLock()
	ch := w.stopCh
	w.mu.RUnlock()
	if ch != nil {
		close(ch)
	}
}

func (w *Worker) processOne(ctx context.Context, id string) {
	acquired, err := w.queue.TryAcquireLock(ctx, id, signalLockTTL)
	if err != nil {
		log.Error().Err(err).Str("signal_id", id).Msg("execution worker: lock acquisition failed")
		return
	}
	if !acquired {
		log.Debug().Str("signal_id", id).Msg("execution worker: signal locked by another worker, skipping")
		return
	}
	defer w.queue.ReleaseLock(ctx, id)

	sig, err := w.store.GetTradeSignal(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("signal_id", id).Msg("execution worker: failed to load trade signal")
		return
	}

	if sig.Status != db.TradeSignalStatusPending {
		log.Debug().Str("signal_id", id).Str("status", string(sig.Status)).Msg("execution worker: signal no longer pending, skipping")
		return
	}

	account, err := w.store.GetAccount(ctx, sig.AccountID)
	if err != nil {
		w.reject(ctx, sig, fmt.Sprintf("account %s unavailable: %v", sig.AccountID, err))
		return
	}

	if !w.liveExecutionEnabled {
		w.reject(ctx, sig, "live execution is disabled")
		return
	}

	qty := computeQuantity(account, sig)
	if qty <= 0 {
		w.reject(ctx, sig, "computed notional quantity is non-positive")
		return
	}

	resp, err := w.placeOrder(ctx, sig, qty)
	if err != nil {
		w.reject(ctx, sig, err.Error())
		return
	}
	if resp.Status == exchange.OrderStatusRejected {
		w.reject(ctx, sig, resp.Message)
		return
	}

	w.markExecuted(ctx, sig, resp, qty)
}

// computeQuantity sizes the order as qty = (balance × risk_fraction ×
// leverage) / reference_price. The signal's own entry_price stands in for
// a live reference price — an acknowledged gap carried over unchanged from
// the source system; see DESIGN.md.
func computeQuantity(account *pipeline.Account, sig *db.TradeSignal) float64 {
	if sig.EntryPrice == nil || *sig.EntryPrice <= 0 {
		return 0
	}
	riskFraction := account.MaxRiskPerTradePct / 100
	notional := account.CurrentBalance * riskFraction * sig.Leverage
	return notional / *sig.EntryPrice
}

func (w *Worker) placeOrder(ctx context.Context, sig *db.TradeSignal, qty float64) (*exchange.PlaceOrderResponse, error) {
	start := time.Now()
	defer func() { metrics.RecordOrderExecution(float64(time.Since(start).Milliseconds())) }()

	side := exchange.OrderSideBuy
	if sig.Direction == db.TradeDirectionSell {
		side = exchange.OrderSideSell
	}
	req := exchange.PlaceOrderRequest{
		Symbol:   sig.Symbol,
		Side:     side,
		Type:     exchange.OrderTypeMarket,
		Quantity: qty,
	}

	if w.breaker == nil {
		return w.venue.PlaceOrder(ctx, req)
	}

	result, err := w.breaker.Execute(func() (interface{}, error) {
		return w.venue.PlaceOrder(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*exchange.PlaceOrderResponse), nil
}

func (w *Worker) markExecuted(ctx context.Context, sig *db.TradeSignal, resp *exchange.PlaceOrderResponse, qty float64) {
	if err := w.store.UpdateTradeSignalStatus(ctx, sig.ID, db.TradeSignalStatusExecuted); err != nil {
		log.Error().Err(err).Str("signal_id", sig.ID).Msg("execution worker: failed to mark signal executed")
		return
	}

	fillPrice := 0.0
	if sig.EntryPrice != nil {
		fillPrice = *sig.EntryPrice
	}

	hist := &db.TradeHistory{
		ID:            uuid.New().String(),
		TradeSignalID: sig.ID,
		AccountID:     sig.AccountID,
		Symbol:        sig.Symbol,
		Venue:         w.venueName,
		Side:          string(sig.Direction),
		Quantity:      qty,
		FillPrice:     fillPrice,
		VenueOrderID:  resp.OrderID,
		ExecutedAt:    time.Now(),
	}
	if err := w.store.InsertTradeHistory(ctx, hist); err != nil {
		log.Error().Err(err).Str("signal_id", sig.ID).Msg("execution worker: failed to record trade history")
	}

	log.Info().Str("signal_id", sig.ID).Str("venue_order_id", resp.OrderID).Msg("execution worker: order executed")
}

func (w *Worker) reject(ctx context.Context, sig *db.TradeSignal, reason string) {
	if err := w.store.UpdateTradeSignalStatus(ctx, sig.ID, db.TradeSignalStatusRejected); err != nil {
		log.Error().Err(err).Str("signal_id", sig.ID).Msg("execution worker: failed to mark signal rejected")
	}
	log.Warn().Str("signal_id", sig.ID).Str("reason", reason).Msg("execution worker: signal rejected")

	if w.alerter != nil {
		_ = w.alerter.SendCritical(ctx, "trade signal rejected", reason, map[string]interface{}{
			"signal_id":  sig.ID,
			"account_id": sig.AccountID,
			"symbol":     sig.Symbol,
		})
	}
}
