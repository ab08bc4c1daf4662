package strategy

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/risk"
	"github.com/teddyoweh/core-backtest-systems/internal/signal"
)

// Trader defines behaviour shared by strategies driven once per exchange snapshot.
type Trader interface {
	Run(snap market.Snapshot) (Result, error)
	Name() string
}

// Result is everything a trader hands back to the exchange for one tick.
type Result struct {
	Orders      map[market.Symbol][]market.Order
	Conversions int
	// TraderData must be passed back verbatim as the next snapshot's TraderData.
	TraderData string
	Signals    []signal.Signal
}

// OrderCount returns the number of orders across all symbols.
func (r Result) OrderCount() int {
	n := 0
	for _, batch := range r.Orders {
		n += len(batch)
	}
	return n
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	FastWindow int
	SlowWindow int
}

// Build returns a trader matching the configured mode.
func Build(mode string, params Params, limits risk.PositionLimits, log zerolog.Logger) (Trader, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "ema", "ema_crossover":
	default:
		log.Warn().Str("mode", mode).Msg("unknown strategy mode, using ema_crossover")
	}
	strat, err := NewEMACrossover(params, limits, log)
	if err != nil {
		return nil, err
	}
	return strat, nil
}
