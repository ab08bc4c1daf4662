// Package state encodes the per-product EMA state carried between ticks in the opaque trader data string.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"unicode/utf8"

	"github.com/teddyoweh/core-backtest-systems/internal/market"
	"github.com/teddyoweh/core-backtest-systems/internal/signal"
)

// Version is the only envelope version Decode accepts.
const Version = 1

var (
	// ErrMalformedState reports trader data that is not a token produced by Encode.
	ErrMalformedState = errors.New("malformed trader state")
	// ErrNonFinite reports an EMA value that cannot be serialized.
	ErrNonFinite = errors.New("non-finite ema value")
	// ErrInvalidProduct reports a product key that would not survive a JSON round trip.
	ErrInvalidProduct = errors.New("invalid product key")
)

// EMAs maps each product to its fast/slow average pair.
type EMAs map[market.Product]signal.EMAPair

// Clone returns an independent copy.
func (e EMAs) Clone() EMAs {
	out := make(EMAs, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

type envelope struct {
	Version int             `json:"v"`
	EMA     json.RawMessage `json:"ema"`
	CRC     string          `json:"crc"`
}

// Encode serializes emas into a versioned, checksummed token. Output is deterministic.
func Encode(emas EMAs) (string, error) {
	body := make(map[string][2]float64, len(emas))
	for product, pair := range emas {
		if product == "" || !utf8.ValidString(string(product)) {
			return "", fmt.Errorf("%w: %q", ErrInvalidProduct, product)
		}
		if !finite(pair.Fast) || !finite(pair.Slow) {
			return "", fmt.Errorf("%w: product %s", ErrNonFinite, product)
		}
		body[string(product)] = [2]float64{pair.Fast, pair.Slow}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal ema: %w", err)
	}
	token, err := json.Marshal(envelope{Version: Version, EMA: raw, CRC: checksum(raw)})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(token), nil
}

// Decode parses a token produced by Encode. The empty string is a first tick and yields an empty map.
func Decode(token string) (EMAs, error) {
	if token == "" {
		return EMAs{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(token)))
	dec.DisallowUnknownFields()
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedState)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedState, env.Version)
	}
	if len(env.EMA) == 0 || bytes.Equal(env.EMA, []byte("null")) {
		return nil, fmt.Errorf("%w: missing ema payload", ErrMalformedState)
	}
	if got := checksum(env.EMA); env.CRC != got {
		return nil, fmt.Errorf("%w: checksum %q does not match %q", ErrMalformedState, env.CRC, got)
	}

	var body map[string][]float64
	if err := json.Unmarshal(env.EMA, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	out := make(EMAs, len(body))
	for product, pair := range body {
		if product == "" {
			return nil, fmt.Errorf("%w: empty product key", ErrMalformedState)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: product %s has %d values, want 2", ErrMalformedState, product, len(pair))
		}
		out[market.Product(product)] = signal.EMAPair{Fast: pair[0], Slow: pair[1]}
	}
	return out, nil
}

func checksum(b []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(b))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
