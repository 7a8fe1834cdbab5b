package engine

import "sort"

// Level is an aggregated view of one price level: total resting quantity
// across the FIFO queue at that price.
type Level struct {
	Price    float64
	Quantity float64
}

// Book holds the two sides of the order book: price -> FIFO queue of
// resting orders, bids matched best-first descending and asks ascending.
// An id index gives O(1) membership checks for cancellation. Best bid and
// ask are cached and refreshed after every mutation.
//
// The Book carries no locking: the engine runs each public operation to
// completion under a single-writer discipline.
type Book struct {
	bids map[float64][]*Order
	asks map[float64][]*Order

	resting map[int64]Side // id -> side currently holding the order

	bestBid, bestAsk float64
	hasBid, hasAsk   bool
}

func NewBook() *Book {
	return &Book{
		bids:    make(map[float64][]*Order),
		asks:    make(map[float64][]*Order),
		resting: make(map[int64]Side),
	}
}

func (b *Book) sideLevels(s Side) map[float64][]*Order {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// Insert appends the order to the FIFO queue at its price, creating the
// level if absent, and refreshes the best prices.
func (b *Book) Insert(o *Order) {
	levels := b.sideLevels(o.Side)
	levels[o.Price] = append(levels[o.Price], o)
	b.resting[o.ID] = o.Side
	b.Refresh()
}

// Remove locates and removes the order via the id index, deleting an
// emptied level. Returns the removed order, or nil if it is not resting.
func (b *Book) Remove(id int64) *Order {
	side, ok := b.resting[id]
	if !ok {
		return nil
	}
	levels := b.sideLevels(side)
	for price, queue := range levels {
		for i, o := range queue {
			if o.ID == id {
				levels[price] = append(queue[:i], queue[i+1:]...)
				if len(levels[price]) == 0 {
					delete(levels, price)
				}
				delete(b.resting, id)
				b.Refresh()
				return o
			}
		}
	}
	delete(b.resting, id)
	return nil
}

// dequeue removes the front order of the queue at price on the given side.
// Used by the matching loop once an order is fully filled.
func (b *Book) dequeue(s Side, price float64) {
	levels := b.sideLevels(s)
	queue := levels[price]
	if len(queue) == 0 {
		return
	}
	delete(b.resting, queue[0].ID)
	levels[price] = queue[1:]
	if len(levels[price]) == 0 {
		delete(levels, price)
		b.Refresh()
	}
}

// front returns the FIFO-front order at the side's best price, or nil if
// the side is empty.
func (b *Book) front(s Side) *Order {
	var price float64
	var ok bool
	if s == Buy {
		price, ok = b.BestBid()
	} else {
		price, ok = b.BestAsk()
	}
	if !ok {
		return nil
	}
	queue := b.sideLevels(s)[price]
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

// Refresh recomputes the cached best bid and ask.
func (b *Book) Refresh() {
	b.hasBid = false
	for p := range b.bids {
		if !b.hasBid || p > b.bestBid {
			b.bestBid, b.hasBid = p, true
		}
	}
	b.hasAsk = false
	for p := range b.asks {
		if !b.hasAsk || p < b.bestAsk {
			b.bestAsk, b.hasAsk = p, true
		}
	}
}

// BestBid returns the highest bid price, or false if there are no bids.
func (b *Book) BestBid() (float64, bool) {
	return b.bestBid, b.hasBid
}

// BestAsk returns the lowest ask price, or false if there are no asks.
func (b *Book) BestAsk() (float64, bool) {
	return b.bestAsk, b.hasAsk
}

// Available sums the unfilled quantity resting on the side opposite to the
// given one. Market and FOK handlers use it as the liquidity check for an
// incoming order of side s.
func (b *Book) Available(s Side) float64 {
	total := 0.0
	for _, queue := range b.sideLevels(s.Opposite()) {
		for _, o := range queue {
			total += o.Remaining()
		}
	}
	return total
}

// Prices returns the side's level prices sorted best-first: bids
// descending, asks ascending.
func (b *Book) Prices(s Side) []float64 {
	levels := b.sideLevels(s)
	prices := make([]float64, 0, len(levels))
	for p := range levels {
		prices = append(prices, p)
	}
	if s == Buy {
		sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	} else {
		sort.Float64s(prices)
	}
	return prices
}

// Levels returns the side's aggregated price levels, best-first.
func (b *Book) Levels(s Side) []Level {
	levels := b.sideLevels(s)
	out := make([]Level, 0, len(levels))
	for _, p := range b.Prices(s) {
		qty := 0.0
		for _, o := range levels[p] {
			qty += o.Remaining()
		}
		out = append(out, Level{Price: p, Quantity: qty})
	}
	return out
}

// Orders returns the resting orders of a side in price-then-FIFO order.
// Snapshotting walks the book through this.
func (b *Book) Orders(s Side) []*Order {
	levels := b.sideLevels(s)
	var out []*Order
	for _, p := range b.Prices(s) {
		out = append(out, levels[p]...)
	}
	return out
}

// Reset drops all resting orders from both sides.
func (b *Book) Reset() {
	b.bids = make(map[float64][]*Order)
	b.asks = make(map[float64][]*Order)
	b.resting = make(map[int64]Side)
	b.Refresh()
}
