package engine

import "go.uber.org/zap"

// Stop order monitoring. Armed stops live in a watch set, not in the book.
// After every trade the watch set is scanned against the latest trade
// price; a triggered stop converts to a LIMIT at its original limit price,
// enters the book and matches. Trades produced by that match can trigger
// further stops, so the scan repeats until a full pass arms nothing.

// scanStops runs the trigger loop. A buy stop triggers when the last trade
// price rises to its stop price; a sell stop when it falls to it.
func (e *Engine) scanStops() {
	for e.hasLast {
		id, ok := e.nextTriggered()
		if !ok {
			return
		}
		e.triggerStop(id)
	}
}

func (e *Engine) nextTriggered() (int64, bool) {
	for _, id := range e.stops {
		o := e.orders[id]
		if o.Side == Buy && e.lastPrice >= o.StopPrice {
			return id, true
		}
		if o.Side == Sell && e.lastPrice <= o.StopPrice {
			return id, true
		}
	}
	return 0, false
}

// triggerStop converts the armed stop to a live LIMIT order and runs a
// matching pass. The caller re-scans afterwards, which is what makes
// chained triggering work.
func (e *Engine) triggerStop(id int64) {
	o := e.orders[id]
	e.disarmStop(id)
	o.Type = Limit

	e.log.Info("stop order triggered",
		zap.Int64("id", id),
		zap.String("side", o.Side.String()),
		zap.Float64("stopPrice", o.StopPrice),
		zap.Float64("limitPrice", o.Price),
		zap.Float64("triggeredAt", e.lastPrice))

	e.book.Insert(o)
	e.match()
}

// disarmStop removes the id from the watch set. Returns false if it was
// not armed.
func (e *Engine) disarmStop(id int64) bool {
	for i, armed := range e.stops {
		if armed == id {
			e.stops = append(e.stops[:i], e.stops[i+1:]...)
			return true
		}
	}
	return false
}
