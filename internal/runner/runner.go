// Package runner drives a trader over a stream of exchange snapshots and books its orders on paper.
package runner

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/teddyoweh/core-backtest-systems/internal/execution"
	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/metrics"
	"github.com/teddyoweh/core-backtest-systems/internal/paper"
	"github.com/teddyoweh/core-backtest-systems/internal/risk"
	"github.com/teddyoweh/core-backtest-systems/internal/signal"
	"github.com/teddyoweh/core-backtest-systems/internal/state"
	"github.com/teddyoweh/core-backtest-systems/internal/strategy"
)

// Stats counts what happened over a run.
type Stats struct {
	Ticks        int
	FailedTicks  int
	Orders       int
	Fills        int
	RejectedFill int
}

// Runner owns the state a real exchange would hand back each tick: positions and the trader data token.
// It is not safe for concurrent use.
type Runner struct {
	trader     strategy.Trader
	exec       *execution.Executor
	book       *paper.Book
	limits     risk.PositionLimits
	recorders  []paper.FillRecorder
	log        zerolog.Logger
	traderData string
	marks      map[market.Product]float64
	stats      Stats
}

// New wires a runner. limits are enforced again when fills hit the paper book.
func New(trader strategy.Trader, exec *execution.Executor, book *paper.Book, limits risk.PositionLimits, log zerolog.Logger, recorders ...paper.FillRecorder) *Runner {
	return &Runner{
		trader:    trader,
		exec:      exec,
		book:      book,
		limits:    limits,
		recorders: recorders,
		log:       log,
		marks:     make(map[market.Product]float64),
	}
}

// TraderData returns the token that will be handed to the trader on the next tick.
func (r *Runner) TraderData() string { return r.traderData }

// Stats returns counters accumulated so far.
func (r *Runner) Stats() Stats { return r.stats }

// Summary marks the paper book at the last seen mid prices.
func (r *Runner) Summary() paper.Snapshot { return r.book.Snapshot(r.marks) }

// Step runs one tick. A failed decision leaves the trader data untouched so the next tick retries
// from the same prior state.
func (r *Runner) Step(snap market.Snapshot) (strategy.Result, error) {
	snap.TraderData = r.traderData
	snap.Position = r.book.Positions()
	r.stats.Ticks++
	for sym := range snap.OrderDepths {
		metrics.TicksTotal.WithLabelValues(string(sym)).Inc()
	}

	res, err := r.trader.Run(snap)
	if err != nil {
		r.stats.FailedTicks++
		metrics.DecisionErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		r.log.Error().Err(err).Int64("ts", snap.Timestamp).Msg("tick aborted")
		return strategy.Result{}, err
	}

	r.observe(res.Signals)
	for _, sym := range snap.Symbols() {
		for _, order := range res.Orders[sym] {
			r.stats.Orders++
			r.place(snap, order)
		}
	}
	r.traderData = res.TraderData
	return res, nil
}

func (r *Runner) place(snap market.Snapshot, order market.Order) {
	log := r.log.With().Str("sym", string(order.Symbol)).Logger()
	product, err := snap.Product(order.Symbol)
	if err != nil {
		log.Error().Err(err).Msg("order for unlisted symbol")
		return
	}
	limit, err := r.limits.Limit(order.Symbol)
	if err != nil {
		log.Error().Err(err).Msg("order without limit")
		return
	}
	if !r.limits.Allow(order.Symbol, r.book.Position(product), order.Quantity) {
		r.stats.RejectedFill++
		log.Warn().Int("qty", order.Quantity).Int("pos", r.book.Position(product)).Msg("order breaches position limit")
		return
	}
	fill, err := r.exec.Submit(order, snap.Timestamp)
	if err != nil {
		log.Error().Err(err).Msg("submit failed")
		return
	}
	if err := r.book.Apply(fill, product, limit); err != nil {
		r.stats.RejectedFill++
		log.Warn().Err(err).Msg("fill rejected")
		return
	}
	r.stats.Fills++
	for _, rec := range r.recorders {
		rec.Record(fill)
	}
	metrics.Position.WithLabelValues(string(product)).Set(float64(r.book.Position(product)))
}

func (r *Runner) observe(signals []signal.Signal) {
	for _, sig := range signals {
		if sig.Trend == signal.Skipped {
			metrics.EmptyBooksTotal.WithLabelValues(string(sig.Symbol)).Inc()
			continue
		}
		r.marks[sig.Product] = sig.Mid
		metrics.EMA.WithLabelValues(string(sig.Product), "fast").Set(sig.EMA.Fast)
		metrics.EMA.WithLabelValues(string(sig.Product), "slow").Set(sig.EMA.Slow)
	}
}

// Run consumes snapshots until in is closed or ctx ends. Per-tick errors are logged and skipped.
func (r *Runner) Run(ctx context.Context, in <-chan market.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-in:
			if !ok {
				return nil
			}
			_, _ = r.Step(snap)
		}
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, market.ErrUnknownInstrument):
		return "unknown_instrument"
	case errors.Is(err, state.ErrMalformedState):
		return "malformed_state"
	case errors.Is(err, risk.ErrNoLimit):
		return "no_limit"
	case errors.Is(err, state.ErrInvalidProduct):
		return "invalid_product"
	default:
		return "other"
	}
}
