// Package ledger tracks per-client positions and fees derived from trades.
// It consumes trade legs from the matching engine; it never touches the
// book itself, so balance-settling collaborators can sit next to it on the
// same event stream.
package ledger

// Position is a client's running state: signed net quantity (positive =
// net long) and the volume-weighted average price of that quantity.
type Position struct {
	Quantity float64
	AvgPrice float64
}

type entry struct {
	pos        Position
	feesPaid   float64
	tradeCount int64
}

// Ledger holds one Position per client id. Not safe for concurrent use;
// the engine drives it under its single-writer discipline.
type Ledger struct {
	clients map[string]*entry
}

func New() *Ledger {
	return &Ledger{clients: make(map[string]*entry)}
}

func (l *Ledger) get(client string) *entry {
	e, ok := l.clients[client]
	if !ok {
		e = &entry{}
		l.clients[client] = e
	}
	return e
}

// ApplyBuy applies the buy leg of a trade: quantity increases, average
// price is re-weighted over the new net cost. A leg with an empty client id
// is skipped.
func (l *Ledger) ApplyBuy(client string, qty, price, fee float64) {
	if client == "" {
		return
	}
	e := l.get(client)
	cost := e.pos.Quantity*e.pos.AvgPrice + qty*price
	e.pos.Quantity += qty
	if e.pos.Quantity != 0 {
		e.pos.AvgPrice = cost / e.pos.Quantity
	} else {
		e.pos.AvgPrice = 0
	}
	e.feesPaid += fee
	e.tradeCount++
}

// ApplySell applies the sell leg of a trade: the mirror of ApplyBuy.
func (l *Ledger) ApplySell(client string, qty, price, fee float64) {
	if client == "" {
		return
	}
	e := l.get(client)
	cost := e.pos.Quantity*e.pos.AvgPrice - qty*price
	e.pos.Quantity -= qty
	if e.pos.Quantity != 0 {
		e.pos.AvgPrice = cost / e.pos.Quantity
	} else {
		e.pos.AvgPrice = 0
	}
	e.feesPaid += fee
	e.tradeCount++
}

// Position returns the client's position and whether the client has traded.
func (l *Ledger) Position(client string) (Position, bool) {
	e, ok := l.clients[client]
	if !ok {
		return Position{}, false
	}
	return e.pos, true
}

// FeesPaid returns the client's cumulative fees across both legs.
func (l *Ledger) FeesPaid(client string) float64 {
	e, ok := l.clients[client]
	if !ok {
		return 0
	}
	return e.feesPaid
}

// TradeCount returns how many trade legs the client has been part of.
func (l *Ledger) TradeCount(client string) int64 {
	e, ok := l.clients[client]
	if !ok {
		return 0
	}
	return e.tradeCount
}
