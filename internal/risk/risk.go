package risk

import (
	"errors"
	"fmt"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
)

// ErrNoLimit reports a symbol with no configured position limit.
var ErrNoLimit = errors.New("no position limit configured")

// PositionLimits bounds the absolute net position per symbol.
type PositionLimits map[market.Symbol]int

// Limit returns the configured limit for symbol.
func (l PositionLimits) Limit(symbol market.Symbol) (int, error) {
	limit, ok := l[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoLimit, symbol)
	}
	return limit, nil
}

// Bounds returns the largest buy quantity and the most negative sell quantity
// that keep position within the limit. maxBuy <= 0 or maxSell >= 0 means that side is closed.
func (l PositionLimits) Bounds(symbol market.Symbol, position int) (maxBuy, maxSell int, err error) {
	limit, err := l.Limit(symbol)
	if err != nil {
		return 0, 0, err
	}
	return limit - position, -limit - position, nil
}

// Allow reports whether adding qty to position stays inside the limit.
func (l PositionLimits) Allow(symbol market.Symbol, position, qty int) bool {
	limit, ok := l[symbol]
	if !ok {
		return false
	}
	next := position + qty
	return next <= limit && next >= -limit
}
