// Package strategy turns exchange snapshots into orders.
package strategy

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/risk"
	"github.com/teddyoweh/core-backtest-systems/internal/signal"
	"github.com/teddyoweh/core-backtest-systems/internal/state"
)

const (
	defaultFastWindow = 5
	defaultSlowWindow = 20
)

// ErrInvalidWindows reports a fast window that is not shorter than the slow one.
var ErrInvalidWindows = errors.New("fast window must be shorter than slow window")

// EMACrossover trades the crossover of a fast and a slow exponential moving average of the mid price,
// sizing every order to the full remaining room under the symbol's position limit.
//
// EMAs are keyed by product. Symbols that share a product share one pair, and the symbol processed
// last (ascending symbol order) wins.
type EMACrossover struct {
	fastWindow int
	slowWindow int
	alphaFast  float64
	alphaSlow  float64
	limits     risk.PositionLimits
	log        zerolog.Logger
}

// NewEMACrossover builds the strategy; non-positive windows fall back to 5 and 20.
func NewEMACrossover(params Params, limits risk.PositionLimits, log zerolog.Logger) (*EMACrossover, error) {
	fast, slow := params.FastWindow, params.SlowWindow
	if fast <= 0 {
		fast = defaultFastWindow
	}
	if slow <= 0 {
		slow = defaultSlowWindow
	}
	if fast >= slow {
		return nil, fmt.Errorf("%w: fast=%d slow=%d", ErrInvalidWindows, fast, slow)
	}
	copied := make(risk.PositionLimits, len(limits))
	for sym, lim := range limits {
		copied[sym] = lim
	}
	return &EMACrossover{
		fastWindow: fast,
		slowWindow: slow,
		alphaFast:  signal.Alpha(fast),
		alphaSlow:  signal.Alpha(slow),
		limits:     copied,
		log:        log.With().Str("strategy", "ema_crossover").Logger(),
	}, nil
}

// Name returns the identifier for logging.
func (s *EMACrossover) Name() string { return "EMACrossover" }

// Windows reports the configured fast and slow windows.
func (s *EMACrossover) Windows() (int, int) { return s.fastWindow, s.slowWindow }

// Run decides the orders for one snapshot. Unknown instruments, missing limits and malformed trader
// data abort the whole tick; an empty book only skips its instrument.
func (s *EMACrossover) Run(snap market.Snapshot) (Result, error) {
	prior, err := state.Decode(snap.TraderData)
	if err != nil {
		return Result{}, err
	}
	next := prior.Clone()

	symbols := snap.Symbols()
	orders := make(map[market.Symbol][]market.Order, len(symbols))
	signals := make([]signal.Signal, 0, len(symbols))
	fedBy := make(map[market.Product]market.Symbol, len(symbols))

	for _, symbol := range symbols {
		sig, err := s.evaluate(snap, symbol, next, fedBy)
		if err != nil {
			return Result{}, err
		}
		batch := []market.Order{}
		if sig.Order != nil {
			batch = append(batch, *sig.Order)
		}
		orders[symbol] = batch
		signals = append(signals, sig)
	}

	token, err := state.Encode(next)
	if err != nil {
		return Result{}, err
	}
	return Result{Orders: orders, Conversions: 0, TraderData: token, Signals: signals}, nil
}

func (s *EMACrossover) evaluate(snap market.Snapshot, symbol market.Symbol, emas state.EMAs, fedBy map[market.Product]market.Symbol) (signal.Signal, error) {
	product, err := snap.Product(symbol)
	if err != nil {
		return signal.Signal{}, err
	}
	if _, err := s.limits.Limit(symbol); err != nil {
		return signal.Signal{}, err
	}
	sig := signal.Signal{Symbol: symbol, Product: product}

	depth := snap.OrderDepths[symbol]
	mid, err := depth.MidPrice()
	if errors.Is(err, market.ErrEmptyBook) {
		sig.Trend = signal.Skipped
		sig.Reason = err.Error()
		if pair, ok := emas[product]; ok {
			sig.EMA = pair
		}
		s.log.Debug().Str("sym", string(symbol)).Msg("empty book, skipping")
		return sig, nil
	}
	if err != nil {
		return signal.Signal{}, err
	}

	if prev, ok := fedBy[product]; ok && prev != symbol {
		s.log.Warn().Str("product", string(product)).Str("sym", string(symbol)).Str("overrides", string(prev)).
			Msg("symbols share a product ema; last symbol wins")
	}
	fedBy[product] = symbol

	// Updating a freshly seeded pair is the identity in exact arithmetic but not always in
	// float64, so a cold start keeps the seed as is and both averages stay equal.
	pair, ok := emas[product]
	if ok {
		pair = pair.Update(mid, s.alphaFast, s.alphaSlow)
	} else {
		pair = signal.Seed(mid)
	}
	emas[product] = pair

	sig.Mid = mid
	sig.EMA = pair
	sig.Trend = signal.Classify(pair)

	position := snap.NetPosition(product)
	maxBuy, maxSell, err := s.limits.Bounds(symbol, position)
	if err != nil {
		return signal.Signal{}, err
	}

	switch sig.Trend {
	case signal.Bullish:
		ask, ok := depth.BestAsk()
		switch {
		case !ok:
			sig.Reason = "no asks"
		case maxBuy <= 0:
			sig.Reason = fmt.Sprintf("long limit reached pos=%d", position)
		default:
			sig.Order = &market.Order{Symbol: symbol, Price: ask, Quantity: maxBuy}
		}
	case signal.Bearish:
		bid, ok := depth.BestBid()
		switch {
		case !ok:
			sig.Reason = "no bids"
		case maxSell >= 0:
			sig.Reason = fmt.Sprintf("short limit reached pos=%d", position)
		default:
			sig.Order = &market.Order{Symbol: symbol, Price: bid, Quantity: maxSell}
		}
	default:
		sig.Reason = "emas equal"
	}

	if sig.Order != nil {
		sig.Reason = fmt.Sprintf("fast=%.4f slow=%.4f", pair.Fast, pair.Slow)
		s.log.Info().
			Str("sym", string(symbol)).
			Str("side", sig.Order.Side()).
			Int("qty", sig.Order.Quantity).
			Int("px", sig.Order.Price).
			Float64("ema_fast", pair.Fast).
			Msg("signal")
	}
	return sig, nil
}
