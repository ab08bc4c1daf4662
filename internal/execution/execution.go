// Package execution handles order submission and the fills it produces.
package execution

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/metrics"
)

var (
	// ErrZeroQuantity reports an order with nothing to fill.
	ErrZeroQuantity = errors.New("order quantity must be non-zero")
	// ErrNoSymbol reports an order without a symbol.
	ErrNoSymbol = errors.New("order symbol is empty")
)

// Fill is an executed order. Quantity keeps the order's sign.
type Fill struct {
	ID        string        `json:"id"`
	Symbol    market.Symbol `json:"symbol"`
	Side      string        `json:"side"`
	Price     int           `json:"price"`
	Quantity  int           `json:"quantity"`
	Timestamp int64         `json:"timestamp"`
}

// Executor implements a logger-backed submitter that fills every order in full at its limit price.
type Executor struct{ log zerolog.Logger }

// NewExecutor wraps a zerolog logger for order submissions.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Submit records the order and returns its paper fill.
func (executor *Executor) Submit(order market.Order, ts int64) (Fill, error) {
	if order.Symbol == "" {
		return Fill{}, ErrNoSymbol
	}
	if order.Quantity == 0 {
		return Fill{}, ErrZeroQuantity
	}
	side := order.Side()
	metrics.OrdersTotal.WithLabelValues(string(order.Symbol), side).Inc()
	fill := Fill{
		ID:        uuid.NewString(),
		Symbol:    order.Symbol,
		Side:      side,
		Price:     order.Price,
		Quantity:  order.Quantity,
		Timestamp: ts,
	}
	executor.log.Info().
		Str("id", fill.ID).
		Str("sym", string(order.Symbol)).
		Str("side", side).
		Int("qty", order.Quantity).
		Int("px", order.Price).
		Int64("ts", ts).
		Msg("submit order (paper)")
	return fill, nil
}
