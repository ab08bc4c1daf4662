package exchange

import (
	"context"
	"math/rand"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
)

const (
	stubStartPrice = 10000
	stubTickStep   = 100
	stubDepth      = 3
)

// stubBook walks a mid price and lays symmetric levels around it.
type stubBook struct {
	mid    int
	spread int
}

func (f *Feed) runStub(ctx context.Context, out chan<- market.Snapshot) error {
	rng := rand.New(rand.NewSource(f.seed))
	books := make(map[market.Symbol]*stubBook, len(f.listings))
	for i, l := range f.listings {
		books[l.Symbol] = &stubBook{mid: stubStartPrice + 1000*i, spread: 1 + rng.Intn(3)}
	}

	var ts int64
	for n := 0; f.maxTicks == 0 || n < f.maxTicks; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timeAfter(f.pollInterval):
			}
		}
		snap := f.stubSnapshot(rng, books, ts)
		if err := f.emit(ctx, out, snap); err != nil {
			return err
		}
		ts += stubTickStep
	}
	return nil
}

func (f *Feed) stubSnapshot(rng *rand.Rand, books map[market.Symbol]*stubBook, ts int64) market.Snapshot {
	snap := market.Snapshot{
		Timestamp:    ts,
		Listings:     make(map[market.Symbol]market.Listing, len(f.listings)),
		OrderDepths:  make(map[market.Symbol]market.OrderDepth, len(f.listings)),
		OwnTrades:    map[market.Symbol][]market.Trade{},
		MarketTrades: map[market.Symbol][]market.Trade{},
		Position:     map[market.Product]int{},
	}
	for _, l := range f.listings {
		book := books[l.Symbol]
		book.mid += rng.Intn(5) - 2
		snap.Listings[l.Symbol] = l

		depth := market.OrderDepth{BuyOrders: map[int]int{}, SellOrders: map[int]int{}}
		// roughly one book in fifty is pulled entirely
		if rng.Intn(50) != 0 {
			for lvl := 0; lvl < stubDepth; lvl++ {
				depth.BuyOrders[book.mid-book.spread-lvl] = 1 + rng.Intn(30)
				depth.SellOrders[book.mid+book.spread+lvl] = -(1 + rng.Intn(30))
			}
		}
		snap.OrderDepths[l.Symbol] = depth
	}
	return snap
}
