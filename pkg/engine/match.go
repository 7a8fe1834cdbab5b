package engine

import "go.uber.org/zap"

// match crosses the book while the best bid meets or exceeds the best ask.
// Strict FIFO price-time priority: the front order of each side's best
// level trades first; no pro-rata allocation, no hidden quantity.
//
// The trade prints at the price of whichever order arrived earlier (the
// resting side), with timestamp ties resolving to the bid. The resting leg
// pays the maker rate, the aggressing leg the taker rate.
func (e *Engine) match() {
	for {
		bidP, okBid := e.book.BestBid()
		askP, okAsk := e.book.BestAsk()
		if !okBid || !okAsk || bidP < askP {
			break
		}

		buy := e.book.front(Buy)
		sell := e.book.front(Sell)

		qty := minFloat(buy.Remaining(), sell.Remaining())

		var price float64
		var maker, taker *Order
		if sell.CreatedAt.Before(buy.CreatedAt) {
			price = sell.Price
			maker, taker = sell, buy
		} else {
			price = buy.Price
			maker, taker = buy, sell
		}

		e.executeTrade(buy, sell, maker, taker, price, qty)

		if buy.Remaining() <= 0 {
			e.book.dequeue(Buy, bidP)
		}
		if sell.Remaining() <= 0 {
			e.book.dequeue(Sell, askP)
		}
	}
	e.book.Refresh()
}

// sweep executes a market order against the opposite side's levels in
// price order, consuming each FIFO queue directly. The aggressor is never
// placed in the book. Returns the volume-weighted execution price, or 0 if
// nothing filled.
func (e *Engine) sweep(o *Order) float64 {
	totalCost := 0.0
	totalFilled := 0.0

	for _, price := range e.book.Prices(o.Side.Opposite()) {
		for o.Remaining() > 0 {
			resting := e.book.front(o.Side.Opposite())
			if resting == nil || resting.Price != price {
				break
			}

			qty := minFloat(o.Remaining(), resting.Remaining())
			if o.Side == Buy {
				e.executeTrade(o, resting, resting, o, price, qty)
			} else {
				e.executeTrade(resting, o, resting, o, price, qty)
			}

			totalCost += qty * price
			totalFilled += qty

			if resting.Remaining() <= 0 {
				e.book.dequeue(o.Side.Opposite(), price)
			}
		}
		if o.Remaining() <= 0 {
			break
		}
	}

	e.book.Refresh()
	if totalFilled == 0 {
		return 0
	}
	return totalCost / totalFilled
}

// executeTrade applies one fill to both legs: filled quantities, statuses,
// ledger updates for both clients, trade history and event dispatch. The
// caller is responsible for dequeueing filled orders.
func (e *Engine) executeTrade(buy, sell, maker, taker *Order, price, qty float64) {
	makerFee := e.params.MakerFeeRate * qty * price
	takerFee := e.params.TakerFeeRate * qty * price

	t := Trade{
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		Price:       price,
		Quantity:    qty,
		MakerFee:    makerFee,
		TakerFee:    takerFee,
		Timestamp:   e.clock.Now(),
	}

	buy.Filled += qty
	sell.Filled += qty

	buyFee, sellFee := makerFee, takerFee
	if taker == buy {
		buyFee, sellFee = takerFee, makerFee
	}
	e.ledger.ApplyBuy(buy.ClientID, qty, price, buyFee)
	e.ledger.ApplySell(sell.ClientID, qty, price, sellFee)

	e.trades = append(e.trades, t)
	e.lastPrice = price
	e.hasLast = true

	e.log.Info("trade",
		zap.Float64("price", price),
		zap.Float64("qty", qty),
		zap.Int64("buyID", buy.ID),
		zap.Int64("sellID", sell.ID),
		zap.Int64("makerID", maker.ID),
		zap.Float64("makerFee", makerFee),
		zap.Float64("takerFee", takerFee))

	e.events.publishTrade(t)

	if buy.Filled >= buy.Quantity {
		e.setStatus(buy, Filled)
	} else {
		e.setStatus(buy, Partial)
	}
	if sell.Filled >= sell.Quantity {
		e.setStatus(sell, Filled)
	} else {
		e.setStatus(sell, Partial)
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
