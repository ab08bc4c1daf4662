// Package paper keeps simulated positions, cash and fills for backtests.
package paper

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/teddyoweh/core-backtest-systems/internal/execution"
	"github.com/teddyoweh/core-backtest-systems/internal/market"
)

var (
	// ErrPositionLimit reports a fill that would push a position past its limit.
	ErrPositionLimit = errors.New("position limit exceeded")
	// ErrZeroFill reports a fill with no quantity.
	ErrZeroFill = errors.New("fill quantity must be non-zero")
)

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

type positionState struct {
	Qty     int
	AvgCost decimal.Decimal
}

// Book tracks cash, realized PnL and signed net positions per product.
type Book struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	realizedPnL  decimal.Decimal
	positions    map[market.Product]positionState
}

// PositionSnapshot exposes a read-only view of a single product position.
type PositionSnapshot struct {
	Qty         int
	AvgCost     decimal.Decimal
	MarketValue decimal.Decimal
	Unrealized  decimal.Decimal
}

// Snapshot is a copy of the book, marked to market with the supplied prices.
type Snapshot struct {
	Cash        decimal.Decimal
	RealizedPnL decimal.Decimal
	Equity      decimal.Decimal
	Positions   map[market.Product]PositionSnapshot
}

// NewBook constructs a book with starting cash and no positions.
func NewBook(startingCash float64) *Book {
	cash := decimal.NewFromFloat(startingCash)
	return &Book{
		startingCash: cash,
		cash:         cash,
		positions:    make(map[market.Product]positionState),
	}
}

// StartingCash returns the initial bankroll.
func (b *Book) StartingCash() decimal.Decimal { return b.startingCash }

// Apply books a fill against product, rejecting it when |position| would exceed limit.
func (b *Book) Apply(fill execution.Fill, product market.Product, limit int) error {
	if fill.Quantity == 0 {
		return ErrZeroFill
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.positions[product]
	newQty := state.Qty + fill.Quantity
	if newQty > limit || newQty < -limit {
		return fmt.Errorf("%w: %s %d%+d outside ±%d", ErrPositionLimit, product, state.Qty, fill.Quantity, limit)
	}

	price := decimal.NewFromInt(int64(fill.Price))
	qty := decimal.NewFromInt(int64(fill.Quantity))
	b.cash = b.cash.Sub(price.Mul(qty))

	switch {
	case state.Qty == 0 || sameSign(state.Qty, fill.Quantity):
		oldAbs := decimal.NewFromInt(int64(abs(state.Qty)))
		addAbs := decimal.NewFromInt(int64(abs(fill.Quantity)))
		total := state.AvgCost.Mul(oldAbs).Add(price.Mul(addAbs))
		state.AvgCost = total.Div(oldAbs.Add(addAbs))
	default:
		closing := abs(fill.Quantity)
		if abs(state.Qty) < closing {
			closing = abs(state.Qty)
		}
		pnl := price.Sub(state.AvgCost).Mul(decimal.NewFromInt(int64(closing)))
		if state.Qty < 0 {
			pnl = pnl.Neg()
		}
		b.realizedPnL = b.realizedPnL.Add(pnl)
		if newQty != 0 && !sameSign(newQty, state.Qty) {
			state.AvgCost = price
		}
	}

	if newQty == 0 {
		delete(b.positions, product)
		return nil
	}
	state.Qty = newQty
	b.positions[product] = state
	return nil
}

// Positions returns the signed net position per product.
func (b *Book) Positions() map[market.Product]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[market.Product]int, len(b.positions))
	for product, pos := range b.positions {
		out[product] = pos.Qty
	}
	return out
}

// Position returns the signed net position for product.
func (b *Book) Position(product market.Product) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positions[product].Qty
}

// RealizedPnL returns total closed-trade profit and loss.
func (b *Book) RealizedPnL() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.realizedPnL
}

// Snapshot returns a copy of balances marked with marks; unmarked positions count as zero value.
func (b *Book) Snapshot(marks map[market.Product]float64) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	positions := make(map[market.Product]PositionSnapshot, len(b.positions))
	equity := b.cash
	for product, pos := range b.positions {
		snap := PositionSnapshot{Qty: pos.Qty, AvgCost: pos.AvgCost}
		if mark, ok := marks[product]; ok {
			m := decimal.NewFromFloat(mark)
			q := decimal.NewFromInt(int64(pos.Qty))
			snap.MarketValue = m.Mul(q)
			snap.Unrealized = m.Sub(pos.AvgCost).Mul(q)
		}
		positions[product] = snap
		equity = equity.Add(snap.MarketValue)
	}

	return Snapshot{
		Cash:        b.cash,
		RealizedPnL: b.realizedPnL,
		Equity:      equity,
		Positions:   positions,
	}
}

func sameSign(a, b int) bool { return (a > 0) == (b > 0) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
