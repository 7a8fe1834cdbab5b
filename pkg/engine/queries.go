package engine

import "github.com/tbessho/matchbook/pkg/ledger"

// Read-only query surface. None of these mutate engine state.

// BestBid returns the top bid price, or false if there are no bids.
func (e *Engine) BestBid() (float64, bool) { return e.book.BestBid() }

// BestAsk returns the top ask price, or false if there are no asks.
func (e *Engine) BestAsk() (float64, bool) { return e.book.BestAsk() }

// MidPrice averages best bid and ask. With only one side populated it
// returns that side's best; with an empty book it returns 0.
func (e *Engine) MidPrice() float64 {
	bid, okBid := e.book.BestBid()
	ask, okAsk := e.book.BestAsk()
	switch {
	case okBid && okAsk:
		return (bid + ask) / 2
	case okBid:
		return bid
	case okAsk:
		return ask
	default:
		return 0
	}
}

// Spread returns ask minus bid, or 0 unless both sides are populated.
func (e *Engine) Spread() float64 {
	bid, okBid := e.book.BestBid()
	ask, okAsk := e.book.BestAsk()
	if !okBid || !okAsk {
		return 0
	}
	return ask - bid
}

// LastPrice returns the price of the most recent trade, or false if no
// trade has happened.
func (e *Engine) LastPrice() (float64, bool) { return e.lastPrice, e.hasLast }

// Order returns a copy of the order with the given id. Orders stay
// queryable after leaving the book.
func (e *Engine) Order(id int64) (Order, error) {
	o, ok := e.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return *o, nil
}

// Trades returns the full trade history in execution order.
func (e *Engine) Trades() []Trade {
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// Position returns the client's ledger position.
func (e *Engine) Position(client string) (ledger.Position, bool) {
	return e.ledger.Position(client)
}

// FeesPaid returns the client's cumulative fees.
func (e *Engine) FeesPaid(client string) float64 {
	return e.ledger.FeesPaid(client)
}

// AvgFillPrice returns the volume-weighted execution price across every
// trade the order took part in, or 0 if it never traded.
func (e *Engine) AvgFillPrice(id int64) (float64, error) {
	if _, ok := e.orders[id]; !ok {
		return 0, ErrOrderNotFound
	}
	cost, qty := 0.0, 0.0
	for _, t := range e.trades {
		if t.BuyOrderID == id || t.SellOrderID == id {
			cost += t.Price * t.Quantity
			qty += t.Quantity
		}
	}
	if qty == 0 {
		return 0, nil
	}
	return cost / qty, nil
}

// DepthLevel is one row of the depth view: resting quantity at the price
// plus the cumulative notional from the top of the side down to it.
type DepthLevel struct {
	Price       float64
	Quantity    float64
	CumNotional float64
}

// Depth returns up to n levels per side, best-first, with cumulative
// notional running from the top of the book.
func (e *Engine) Depth(n int) (bids, asks []DepthLevel) {
	build := func(levels []Level) []DepthLevel {
		out := make([]DepthLevel, 0, n)
		cum := 0.0
		for i, lv := range levels {
			if i >= n {
				break
			}
			cum += lv.Price * lv.Quantity
			out = append(out, DepthLevel{Price: lv.Price, Quantity: lv.Quantity, CumNotional: cum})
		}
		return out
	}
	return build(e.book.Levels(Buy)), build(e.book.Levels(Sell))
}

// VolumeLevel is one row of the cumulative-volume depth listing.
type VolumeLevel struct {
	Price     float64
	CumVolume float64
}

// VolumeDepth lists every level of both sides with cumulative resting
// volume, best-first per side.
func (e *Engine) VolumeDepth() (bids, asks []VolumeLevel) {
	build := func(levels []Level) []VolumeLevel {
		out := make([]VolumeLevel, 0, len(levels))
		cum := 0.0
		for _, lv := range levels {
			cum += lv.Quantity
			out = append(out, VolumeLevel{Price: lv.Price, CumVolume: cum})
		}
		return out
	}
	return build(e.book.Levels(Buy)), build(e.book.Levels(Sell))
}

// SupportResistance returns bid levels (supports) and ask levels
// (resistances) whose resting quantity meets the threshold.
func (e *Engine) SupportResistance(threshold float64) (supports, resistances []Level) {
	for _, lv := range e.book.Levels(Buy) {
		if lv.Quantity >= threshold {
			supports = append(supports, lv)
		}
	}
	for _, lv := range e.book.Levels(Sell) {
		if lv.Quantity >= threshold {
			resistances = append(resistances, lv)
		}
	}
	return supports, resistances
}
