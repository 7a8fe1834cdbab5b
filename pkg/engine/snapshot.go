package engine

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tbessho/matchbook/pkg/snapshot"
)

// Snapshot persistence. Save and load assume no mutating call is in
// flight; both run stop-the-world under the engine's single-writer
// discipline.

func recordFromOrder(o *Order) snapshot.Record {
	return snapshot.Record{
		ID:         o.ID,
		Side:       o.Side.String(),
		Price:      o.Price,
		Quantity:   o.Quantity,
		Filled:     o.Filled,
		TypeCode:   int(o.Type),
		StatusCode: int(o.Status),
		ClientID:   o.ClientID,
		StopPrice:  o.StopPrice,
	}
}

// SaveSnapshot writes the resting book to path in the flat-text format.
// Armed stop orders are not part of the book and are not saved; this is a
// known limitation of the format.
func (e *Engine) SaveSnapshot(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}
	defer f.Close()

	var s snapshot.Snapshot
	for _, o := range e.book.Orders(Buy) {
		s.Bids = append(s.Bids, recordFromOrder(o))
	}
	for _, o := range e.book.Orders(Sell) {
		s.Asks = append(s.Asks, recordFromOrder(o))
	}

	if err := snapshot.Write(f, s); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}
	e.log.Info("snapshot saved",
		zap.String("path", path),
		zap.Int("bids", len(s.Bids)),
		zap.Int("asks", len(s.Asks)))
	return nil
}

// LoadSnapshot replaces the book and id index with the snapshot's
// contents. The file is parsed in full before any state is touched, so a
// failed load leaves the engine unchanged. Stop-typed rows are indexed for
// status queries but not restored into the live book.
func (e *Engine) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}
	defer f.Close()

	s, err := snapshot.Read(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}

	e.book.Reset()
	e.orders = make(map[int64]*Order)
	e.stops = nil

	maxID := int64(0)
	restore := func(records []snapshot.Record) {
		for _, r := range records {
			side := Buy
			if r.Side == "sell" {
				side = Sell
			}
			o := &Order{
				ID:        r.ID,
				ClientID:  r.ClientID,
				Side:      side,
				Type:      OrderType(r.TypeCode),
				Price:     r.Price,
				StopPrice: r.StopPrice,
				Quantity:  r.Quantity,
				Filled:    r.Filled,
				Status:    OrderStatus(r.StatusCode),
				CreatedAt: e.clock.Now(),
			}
			e.orders[o.ID] = o
			if o.ID > maxID {
				maxID = o.ID
			}
			if o.Type != Stop {
				e.book.Insert(o)
			}
		}
	}
	restore(s.Bids)
	restore(s.Asks)

	e.nextID = maxID + 1
	e.book.Refresh()

	e.log.Info("snapshot loaded",
		zap.String("path", path),
		zap.Int("bids", len(s.Bids)),
		zap.Int("asks", len(s.Asks)),
		zap.Int64("nextID", e.nextID))
	return nil
}
