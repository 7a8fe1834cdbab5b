// Package storage persists executed trades in a Pebble database so the
// fill history survives restarts. The book itself is persisted separately
// via flat-text snapshots; this journal only grows.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/tbessho/matchbook/pkg/engine"
)

type TradeStore struct {
	db *pebble.DB
}

func OpenTradeStore(path string) (*TradeStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade store: %w", err)
	}
	return &TradeStore{db: db}, nil
}

func (s *TradeStore) Close() error { return s.db.Close() }

// Append journals one trade. NoSync keeps the hot path cheap; durability
// of the tail is bounded by Pebble's WAL flush interval.
func (s *TradeStore) Append(t engine.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	key := tradeKey(t.Timestamp.UnixNano(), t.BuyOrderID, t.SellOrderID)
	if err := s.db.Set(key, data, pebble.NoSync); err != nil {
		return fmt.Errorf("append trade: %w", err)
	}
	return nil
}

// Recent returns up to limit trades, newest first.
func (s *TradeStore) Recent(limit int) ([]engine.Trade, error) {
	prefix := tradePrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	defer iter.Close()

	var trades []engine.Trade
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var t engine.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			continue // skip unreadable entries
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// Count walks the journal and reports the number of stored trades.
func (s *TradeStore) Count() (int, error) {
	prefix := tradePrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return 0, fmt.Errorf("iterate trades: %w", err)
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, nil
}
