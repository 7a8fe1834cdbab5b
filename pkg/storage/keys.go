package storage

import "fmt"

// Trade key schema for Pebble storage:
//
//   trade:<timestamp>:<buyID>-<sellID> → Trade (JSON)
//
// The timestamp is zero-padded to 20 digits so lexicographic key order is
// chronological order; the order-id pair disambiguates trades sharing a
// nanosecond.

const prefixTrade = "trade:"

func tradeKey(timestamp int64, buyID, sellID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%d-%d", prefixTrade, timestamp, buyID, sellID))
}

func tradePrefix() []byte {
	return []byte(prefixTrade)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
