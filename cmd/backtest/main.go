package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/teddyoweh/core-backtest-systems/internal/config"
	"github.com/teddyoweh/core-backtest-systems/internal/exchange"
	"github.com/teddyoweh/core-backtest-systems/internal/execution"
	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/metrics"
	"github.com/teddyoweh/core-backtest-systems/internal/paper"
	"github.com/teddyoweh/core-backtest-systems/internal/runner"
	"github.com/teddyoweh/core-backtest-systems/internal/strategy"
	"github.com/teddyoweh/core-backtest-systems/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = config.LoadEnv()
	configPath := flag.String("config", config.Getenv(config.EnvConfigPath, defaultConfigPath), "path to YAML config")
	flag.Parse()

	boot := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	cfg.ApplyEnv()
	log := util.NewLogger(cfg.App.LogLevel).With().Str("app", cfg.App.Name).Logger()

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if missing := cfg.MissingLimits(); len(missing) > 0 {
		syms := make([]string, len(missing))
		for i, sym := range missing {
			syms[i] = string(sym)
		}
		log.Fatal().Strs("symbols", syms).Msg("listings without a position limit")
	}
	limits := cfg.Limits()
	trader, err := strategy.Build(cfg.Strategy.Mode, cfg.StrategyParams(), limits, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build strategy")
	}

	var recorders []paper.FillRecorder
	ledger := paper.NewLedger(1024)
	recorders = append(recorders, ledger)
	if cfg.Paper.FillsPath != "" {
		rec, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills recorder")
		}
		defer rec.Close()
		recorders = append(recorders, rec)
	}

	book := paper.NewBook(cfg.Paper.StartingCash)
	run := runner.New(trader, execution.NewExecutor(log), book, limits, log, recorders...)

	listings := make([]market.Listing, 0, len(cfg.Feed.Listings))
	for _, l := range cfg.ListingTable() {
		listings = append(listings, l)
	}
	feed := exchange.NewFeed(cfg.Feed.Provider, listings, log,
		exchange.WithPollInterval(time.Duration(cfg.Feed.PollInterval)*time.Millisecond),
		exchange.WithPath(cfg.Feed.Path),
		exchange.WithURL(cfg.Feed.URL),
		exchange.WithSeed(cfg.Feed.Seed),
		exchange.WithMaxTicks(cfg.Feed.MaxTicks),
	)

	snapshots := make(chan market.Snapshot, 64)
	go func() {
		defer close(snapshots)
		if err := feed.Run(ctx, snapshots); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
		}
	}()

	log.Info().Str("strategy", trader.Name()).Str("feed", cfg.Feed.Provider).Msg("backtest started")
	if err := run.Run(ctx, snapshots); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("runner stopped")
	}

	stats := run.Stats()
	summary := run.Summary()
	log.Info().
		Int("ticks", stats.Ticks).
		Int("failed_ticks", stats.FailedTicks).
		Int("orders", stats.Orders).
		Int("fills", stats.Fills).
		Int("rejected", stats.RejectedFill).
		Str("cash", summary.Cash.StringFixed(2)).
		Str("equity", summary.Equity.StringFixed(2)).
		Str("realized_pnl", summary.RealizedPnL.StringFixed(2)).
		Msg("backtest finished")
	for product, pos := range summary.Positions {
		log.Info().Str("product", string(product)).Int("qty", pos.Qty).Str("avg_cost", pos.AvgCost.StringFixed(2)).
			Str("unrealized", pos.Unrealized.StringFixed(2)).Msg("open position")
	}
	for sym, qty := range ledger.Volume() {
		log.Debug().Str("sym", string(sym)).Int("net_traded", qty).Msg("volume")
	}
}
