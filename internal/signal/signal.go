// Package signal holds the smoothing and crossover primitives shared by strategies.
package signal

import "github.com/teddyoweh/core-backtest-systems/internal/market"

// Trend classifies the relationship between the fast and slow averages.
type Trend int

const (
	// Flat means the averages are equal, so no bias.
	Flat Trend = iota
	// Bullish means the fast average is above the slow one.
	Bullish
	// Bearish means the fast average is below the slow one.
	Bearish
	// Skipped marks an instrument that could not be evaluated this tick.
	Skipped
)

// String implements fmt.Stringer for log fields.
func (t Trend) String() string {
	switch t {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	case Skipped:
		return "skipped"
	default:
		return "flat"
	}
}

// Alpha returns the smoothing factor 1/(window+1) for an exponential moving average.
func Alpha(window int) float64 {
	if window < 0 {
		window = 0
	}
	return 1 / float64(window+1)
}

// EMAPair is the fast/slow exponential moving average state kept per product.
type EMAPair struct {
	Fast float64
	Slow float64
}

// Seed cold-starts both averages at price.
func Seed(price float64) EMAPair {
	return EMAPair{Fast: price, Slow: price}
}

// Update folds price into both averages.
func (p EMAPair) Update(price, alphaFast, alphaSlow float64) EMAPair {
	return EMAPair{
		Fast: alphaFast*price + (1-alphaFast)*p.Fast,
		Slow: alphaSlow*price + (1-alphaSlow)*p.Slow,
	}
}

// Gap is the signed distance fast minus slow.
func (p EMAPair) Gap() float64 { return p.Fast - p.Slow }

// Classify returns the crossover trend for the pair.
func Classify(p EMAPair) Trend {
	switch {
	case p.Fast > p.Slow:
		return Bullish
	case p.Fast < p.Slow:
		return Bearish
	default:
		return Flat
	}
}

// Signal records what a strategy saw for one instrument on one tick.
type Signal struct {
	Symbol  market.Symbol
	Product market.Product
	Mid     float64
	EMA     EMAPair
	Trend   Trend
	Order   *market.Order // nil when nothing was emitted
	Reason  string
}
