// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/risk"
	"github.com/teddyoweh/core-backtest-systems/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes where snapshots come from and which listings they carry.
type Feed struct {
	Provider     string           `yaml:"provider"`
	Listings     []market.Listing `yaml:"listings"`
	Path         string           `yaml:"path"`
	URL          string           `yaml:"url"`
	PollInterval int              `yaml:"poll_interval_ms"`
	Seed         int64            `yaml:"seed"`
	MaxTicks     int              `yaml:"max_ticks"`
}

// StrategyParams groups tunable knobs for a strategy implementation.
type StrategyParams struct {
	FastWindow int `yaml:"fast_window"`
	SlowWindow int `yaml:"slow_window"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"`
	Params StrategyParams `yaml:"params"`
}

// Risk holds the absolute net position limit per symbol.
type Risk struct {
	PositionLimits map[string]int `yaml:"position_limits"`
}

// Paper captures paper-trading settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	FillsPath    string  `yaml:"fills_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Feed     Feed     `yaml:"feed"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Paper    Paper    `yaml:"paper"`
}

// Limits converts configured position limits into the risk type used by strategies.
func (c *Config) Limits() risk.PositionLimits {
	out := make(risk.PositionLimits, len(c.Risk.PositionLimits))
	for sym, limit := range c.Risk.PositionLimits {
		out[market.Symbol(sym)] = limit
	}
	return out
}

// ListingTable indexes the configured listings by symbol. A listing without a product trades itself.
func (c *Config) ListingTable() map[market.Symbol]market.Listing {
	out := make(map[market.Symbol]market.Listing, len(c.Feed.Listings))
	for _, l := range c.Feed.Listings {
		if l.Symbol == "" {
			continue
		}
		if l.Product == "" {
			l.Product = market.Product(l.Symbol)
		}
		out[l.Symbol] = l
	}
	return out
}

// MissingLimits returns the listed symbols that have no position limit, sorted.
func (c *Config) MissingLimits() []market.Symbol {
	var missing []market.Symbol
	for sym := range c.ListingTable() {
		if _, ok := c.Risk.PositionLimits[string(sym)]; !ok {
			missing = append(missing, sym)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// StrategyParams converts the YAML knobs into constructor params.
func (c *Config) StrategyParams() strategy.Params {
	return strategy.Params{
		FastWindow: c.Strategy.Params.FastWindow,
		SlowWindow: c.Strategy.Params.SlowWindow,
	}
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
