package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teddyoweh/core-backtest-systems/internal/config"
	"github.com/teddyoweh/core-backtest-systems/internal/strategy"
	"github.com/teddyoweh/core-backtest-systems/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = config.LoadEnv()
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== EMA Backtest Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit EMA windows")
		fmt.Println("3) Edit position limits")
		fmt.Println("4) Edit feed settings")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch backtest")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editWindows(reader, cfg)
		case "3":
			editLimits(reader, cfg)
		case "4":
			editFeed(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchBacktest(reader)
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Strategy: %s (fast %d / slow %d)\n", cfg.Strategy.Mode, cfg.Strategy.Params.FastWindow, cfg.Strategy.Params.SlowWindow)
	fmt.Printf("Feed: %s", cfg.Feed.Provider)
	if cfg.Feed.Path != "" {
		fmt.Printf(" path=%s", cfg.Feed.Path)
	}
	if cfg.Feed.URL != "" {
		fmt.Printf(" url=%s", cfg.Feed.URL)
	}
	fmt.Printf(" max_ticks=%d\n", cfg.Feed.MaxTicks)
	fmt.Printf("Log level: %s | metrics: %s\n", cfg.App.LogLevel, cfg.App.MetricsAddr)

	fmt.Println("Listings:")
	for _, l := range cfg.Feed.Listings {
		fmt.Printf("  %-14s product=%-12s denom=%s\n", l.Symbol, l.Product, l.Denomination)
	}
	fmt.Println("Position limits:")
	syms := make([]string, 0, len(cfg.Risk.PositionLimits))
	for sym := range cfg.Risk.PositionLimits {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	for _, sym := range syms {
		fmt.Printf("  %-14s ±%d\n", sym, cfg.Risk.PositionLimits[sym])
	}
}

func editWindows(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit EMA Windows ---")
	fast := promptInt(reader, "Fast window (ticks)", cfg.Strategy.Params.FastWindow)
	slow := promptInt(reader, "Slow window (ticks)", cfg.Strategy.Params.SlowWindow)
	params := strategy.Params{FastWindow: fast, SlowWindow: slow}
	if _, err := strategy.NewEMACrossover(params, nil, util.NewLogger("disabled")); err != nil {
		fmt.Printf("rejected: %v\n", err)
		return
	}
	cfg.Strategy.Params.FastWindow = fast
	cfg.Strategy.Params.SlowWindow = slow
}

func editLimits(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Position Limits ---")
	if cfg.Risk.PositionLimits == nil {
		cfg.Risk.PositionLimits = make(map[string]int)
	}
	for _, l := range cfg.Feed.Listings {
		sym := string(l.Symbol)
		limit := promptInt(reader, "Limit for "+sym, cfg.Risk.PositionLimits[sym])
		if limit < 0 {
			fmt.Println("limit must be non-negative, keeping previous value")
			continue
		}
		cfg.Risk.PositionLimits[sym] = limit
	}
}

func editFeed(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Feed ---")
	cfg.Feed.Provider = promptString(reader, "Provider (stub|file|websocket)", cfg.Feed.Provider)
	cfg.Feed.Path = promptString(reader, "Snapshot file path", cfg.Feed.Path)
	cfg.Feed.URL = promptString(reader, "Websocket URL", cfg.Feed.URL)
	cfg.Feed.MaxTicks = promptInt(reader, "Max ticks (0 = unbounded)", cfg.Feed.MaxTicks)
}

func launchBacktest(reader *bufio.Reader) {
	fmt.Println("Launching backtest (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/backtest", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start backtest: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the backtest and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil {
		fmt.Printf("invalid number, keeping %d\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	return filepath.Clean(config.Getenv(config.EnvConfigPath, defaultConfigPath))
}
