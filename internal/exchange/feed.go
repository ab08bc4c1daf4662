// Package exchange hosts the snapshot sources that stand in for the exchange during backtests.
package exchange

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
)

const (
	// ProviderStub emits deterministic synthetic books (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderFile replays JSON-lines snapshots from disk.
	ProviderFile = "file"
	// ProviderWebsocket reads snapshot frames pushed by a remote simulator.
	ProviderWebsocket = "websocket"
)

const defaultPollInterval = 500 * time.Millisecond

var timeAfter = time.After

// Feed represents a pluggable snapshot stream implementation.
type Feed struct {
	provider     string
	listings     []market.Listing
	log          zerolog.Logger
	pollInterval time.Duration
	path         string
	url          string
	seed         int64
	maxTicks     int
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithPollInterval overrides the pacing of the stub feed.
func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithPath sets the JSON-lines file replayed by the file provider.
func WithPath(path string) Option {
	return func(f *Feed) { f.path = strings.TrimSpace(path) }
}

// WithURL sets the websocket endpoint.
func WithURL(url string) Option {
	return func(f *Feed) { f.url = strings.TrimSpace(url) }
}

// WithSeed fixes the stub random walk.
func WithSeed(seed int64) Option {
	return func(f *Feed) { f.seed = seed }
}

// WithMaxTicks stops the feed after n snapshots; zero means unbounded.
func WithMaxTicks(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.maxTicks = n
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, listings []market.Listing, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		log:          log,
		pollInterval: defaultPollInterval,
		seed:         1,
	}
	f.setListings(listings)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// setListings deduplicates by symbol and sorts for determinism.
func (f *Feed) setListings(listings []market.Listing) {
	unique := make(map[market.Symbol]market.Listing, len(listings))
	for _, l := range listings {
		l.Symbol = market.Symbol(strings.TrimSpace(string(l.Symbol)))
		if l.Symbol == "" {
			continue
		}
		if l.Product == "" {
			l.Product = market.Product(l.Symbol)
		}
		unique[l.Symbol] = l
	}
	f.listings = f.listings[:0]
	for _, l := range unique {
		f.listings = append(f.listings, l)
	}
	sort.Slice(f.listings, func(i, j int) bool { return f.listings[i].Symbol < f.listings[j].Symbol })
}

// Run pushes snapshots onto out until the source is exhausted or the context is canceled.
// Finite sources return nil when done.
func (f *Feed) Run(ctx context.Context, out chan<- market.Snapshot) error {
	switch f.provider {
	case ProviderFile:
		return f.runFile(ctx, out)
	case ProviderWebsocket:
		return f.runWebsocket(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- market.Snapshot, snap market.Snapshot) error {
	select {
	case out <- snap:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
