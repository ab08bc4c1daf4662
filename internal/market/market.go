// Package market describes the per-tick exchange snapshot consumed by traders and the orders they emit.
package market

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownInstrument reports an order book whose symbol has no listing.
	ErrUnknownInstrument = errors.New("unknown instrument")
	// ErrEmptyBook reports an order book with no price levels on either side.
	ErrEmptyBook = errors.New("empty order book")
)

// Symbol identifies a tradable listing.
type Symbol string

// Product identifies the underlying asset a listing denominates.
type Product string

// Listing maps a symbol onto its product.
type Listing struct {
	Symbol       Symbol  `json:"symbol" yaml:"symbol"`
	Product      Product `json:"product" yaml:"product"`
	Denomination Product `json:"denomination" yaml:"denomination"`
}

// OrderDepth holds resting quantity per price for both sides of a book.
type OrderDepth struct {
	BuyOrders  map[int]int `json:"buy_orders"`
	SellOrders map[int]int `json:"sell_orders"`
}

// BestBid scans the bids for the highest price.
func (d OrderDepth) BestBid() (int, bool) {
	best, ok := 0, false
	for px := range d.BuyOrders {
		if !ok || px > best {
			best, ok = px, true
		}
	}
	return best, ok
}

// BestAsk scans the asks for the lowest price.
func (d OrderDepth) BestAsk() (int, bool) {
	best, ok := 0, false
	for px := range d.SellOrders {
		if !ok || px < best {
			best, ok = px, true
		}
	}
	return best, ok
}

// MidPrice averages every price level across both sides, unweighted by quantity.
func (d OrderDepth) MidPrice() (float64, error) {
	n := len(d.BuyOrders) + len(d.SellOrders)
	if n == 0 {
		return 0, ErrEmptyBook
	}
	var sum float64
	for px := range d.BuyOrders {
		sum += float64(px)
	}
	for px := range d.SellOrders {
		sum += float64(px)
	}
	return sum / float64(n), nil
}

// Order is a limit order; positive quantity buys, negative quantity sells.
type Order struct {
	Symbol   Symbol `json:"symbol"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// Side reports the order direction derived from the quantity sign.
func (o Order) Side() string {
	if o.Quantity < 0 {
		return "SELL"
	}
	return "BUY"
}

func (o Order) String() string {
	return fmt.Sprintf("(%s, %d, %d)", o.Symbol, o.Price, o.Quantity)
}

// Trade is an executed trade reported by the exchange.
type Trade struct {
	Symbol    Symbol `json:"symbol"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Buyer     string `json:"buyer,omitempty"`
	Seller    string `json:"seller,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ConversionObservation carries the external quotes used for conversion requests.
type ConversionObservation struct {
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
	TransportFees float64 `json:"transportFees"`
	ExportTariff  float64 `json:"exportTariff"`
	ImportTariff  float64 `json:"importTariff"`
	Sunlight      float64 `json:"sunlight"`
	Humidity      float64 `json:"humidity"`
}

// Observation bundles external market signals delivered with a snapshot.
type Observation struct {
	PlainValueObservations map[Product]int                   `json:"plainValueObservations"`
	ConversionObservations map[Product]ConversionObservation `json:"conversionObservations"`
}

// Snapshot is the immutable exchange state handed to a trader once per tick.
type Snapshot struct {
	TraderData   string                `json:"traderData"`
	Timestamp    int64                 `json:"timestamp"`
	Listings     map[Symbol]Listing    `json:"listings"`
	OrderDepths  map[Symbol]OrderDepth `json:"order_depths"`
	OwnTrades    map[Symbol][]Trade    `json:"own_trades"`
	MarketTrades map[Symbol][]Trade    `json:"market_trades"`
	Position     map[Product]int       `json:"position"`
	Observations Observation           `json:"observations"`
}

// Product resolves the product behind a listed symbol.
func (s Snapshot) Product(symbol Symbol) (Product, error) {
	listing, ok := s.Listings[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	return listing.Product, nil
}

// Symbols returns the order-book symbols in ascending order.
func (s Snapshot) Symbols() []Symbol {
	out := make([]Symbol, 0, len(s.OrderDepths))
	for sym := range s.OrderDepths {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NetPosition returns the current position for product, zero when absent.
func (s Snapshot) NetPosition(product Product) int {
	return s.Position[product]
}
