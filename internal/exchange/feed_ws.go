package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
)

const (
	wsReadTimeout  = 30 * time.Second
	wsPingInterval = 15 * time.Second
	wsMaxBackoff   = 30 * time.Second
)

func (f *Feed) runWebsocket(ctx context.Context, out chan<- market.Snapshot) error {
	if f.url == "" {
		return fmt.Errorf("websocket feed requires a url")
	}

	backoff := time.Second
	sent := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		connected, done, err := f.consumeWebsocket(ctx, &sent, out)
		if done {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = time.Second
		}
		f.log.Warn().Err(err).Dur("backoff", backoff).Msg("snapshot feed disconnected, retrying")
		select {
		case <-timeAfter(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return time.Duration(math.Min(float64(wsMaxBackoff), float64(d)*1.8))
}

// consumeWebsocket reads frames until the connection drops. connected reports a successful dial;
// done is true once maxTicks snapshots were sent.
func (f *Feed) consumeWebsocket(ctx context.Context, sent *int, out chan<- market.Snapshot) (connected, done bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return false, false, err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderWebsocket).Str("url", f.url).Msg("connected snapshot feed")

	conn.SetReadLimit(maxSnapshotLine)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					f.log.Warn().Err(err).Msg("snapshot feed ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	// unblock ReadMessage when the context ends
	go func() {
		<-pingCtx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, false, ctx.Err()
			}
			return true, false, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var snap market.Snapshot
		if err := json.Unmarshal(message, &snap); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode snapshot frame")
			continue
		}
		if err := f.emit(ctx, out, snap); err != nil {
			return true, false, err
		}
		*sent++
		if f.maxTicks > 0 && *sent >= f.maxTicks {
			return true, true, nil
		}
	}
}
