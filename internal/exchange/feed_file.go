package exchange

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
)

const maxSnapshotLine = 8 << 20

func (f *Feed) runFile(ctx context.Context, out chan<- market.Snapshot) error {
	if f.path == "" {
		return fmt.Errorf("file feed requires a path")
	}
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open snapshots: %w", err)
	}
	defer file.Close()

	f.log.Info().Str("provider", ProviderFile).Str("path", f.path).Msg("replaying snapshots")

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSnapshotLine)
	line, sent := 0, 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var snap market.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			f.log.Warn().Err(err).Int("line", line).Msg("failed to decode snapshot")
			continue
		}
		if err := f.emit(ctx, out, snap); err != nil {
			return err
		}
		sent++
		if f.maxTicks > 0 && sent >= f.maxTicks {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read snapshots: %w", err)
	}
	return nil
}
