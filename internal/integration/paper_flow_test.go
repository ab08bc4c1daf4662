package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/teddyoweh/core-backtest-systems/internal/exchange"
	"github.com/teddyoweh/core-backtest-systems/internal/execution"
	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/paper"
	"github.com/teddyoweh/core-backtest-systems/internal/risk"
	"github.com/teddyoweh/core-backtest-systems/internal/runner"
	"github.com/teddyoweh/core-backtest-systems/internal/state"
	"github.com/teddyoweh/core-backtest-systems/internal/strategy"
)

func runFeed(t *testing.T, feed *exchange.Feed, r *runner.Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshots := make(chan market.Snapshot, 8)
	go func() {
		defer close(snapshots)
		_ = feed.Run(ctx, snapshots)
	}()
	if err := r.Run(ctx, snapshots); err != nil {
		t.Fatalf("runner returned error: %v", err)
	}
}

func TestPaperFlowReplaysScenario(t *testing.T) {
	limits := risk.PositionLimits{"A": 20, "Z": 20}
	strat, err := strategy.Build("ema_crossover", strategy.Params{}, limits, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	book := paper.NewBook(0)
	ledger := paper.NewLedger(4)
	r := runner.New(strat, execution.NewExecutor(logger), book, limits, logger, ledger)

	feed := exchange.NewFeed(exchange.ProviderFile, nil, zerolog.Nop(),
		exchange.WithPath(filepath.Join("testdata", "scenario.jsonl")))
	runFeed(t, feed, r)

	stats := r.Stats()
	if stats.Ticks != 4 || stats.FailedTicks != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	fills := ledger.Snapshot()
	if len(fills) != 1 {
		t.Fatalf("expected exactly one fill, got %+v", fills)
	}
	if fills[0].Symbol != "A" || fills[0].Price != 9 || fills[0].Quantity != -20 {
		t.Fatalf("unexpected fill %+v", fills[0])
	}
	if book.Position("A") != -20 {
		t.Fatalf("expected short 20, got %d", book.Position("A"))
	}

	// the empty-book tick and the aborted tick both leave the tick-two averages in place
	emas, err := state.Decode(r.TraderData())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if emas["A"].Fast >= emas["A"].Slow {
		t.Fatalf("expected bearish averages, got %+v", emas["A"])
	}
	if !strings.Contains(buf.String(), "submit order") {
		t.Fatalf("expected log output to include submit order, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "tick aborted") {
		t.Fatalf("expected aborted tick to be logged, got %s", buf.String())
	}
}

func TestPaperFlowStubStaysWithinLimits(t *testing.T) {
	listings := []market.Listing{
		{Symbol: "AMETHYSTS", Product: "AMETHYSTS", Denomination: "SEASHELLS"},
		{Symbol: "STARFRUIT", Product: "STARFRUIT", Denomination: "SEASHELLS"},
	}
	limits := risk.PositionLimits{"AMETHYSTS": 20, "STARFRUIT": 20}
	strat, err := strategy.NewEMACrossover(strategy.Params{FastWindow: 3, SlowWindow: 8}, limits, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEMACrossover returned error: %v", err)
	}
	book := paper.NewBook(0)
	r := runner.New(strat, execution.NewExecutor(zerolog.Nop()), book, limits, zerolog.Nop())

	feed := exchange.NewFeed(exchange.ProviderStub, listings, zerolog.Nop(),
		exchange.WithSeed(11), exchange.WithMaxTicks(300), exchange.WithPollInterval(time.Microsecond))
	runFeed(t, feed, r)

	stats := r.Stats()
	if stats.Ticks != 300 {
		t.Fatalf("expected 300 ticks, got %d", stats.Ticks)
	}
	if stats.FailedTicks != 0 || stats.RejectedFill != 0 {
		t.Fatalf("unexpected failures %+v", stats)
	}
	if stats.Fills == 0 {
		t.Fatalf("expected the random walk to trigger at least one crossover")
	}
	for product, qty := range book.Positions() {
		if qty > 20 || qty < -20 {
			t.Fatalf("%s position %d breaches limit", product, qty)
		}
	}
}
