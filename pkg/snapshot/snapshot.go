// Package snapshot encodes and decodes the flat-text book snapshot format.
//
// The format is two sections headed by the literal lines BIDS and ASKS;
// each following line is one resting order as comma-separated fields:
//
//	id,side,price,quantity,filledQuantity,typeCode,statusCode,clientId,stopPrice
//
// The codec is purely structural: it does not know how records map back
// into a live book. The engine owns that policy (stop-typed records, for
// instance, are indexed but never re-inserted).
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one resting order row.
type Record struct {
	ID         int64
	Side       string // "buy" or "sell"
	Price      float64
	Quantity   float64
	Filled     float64
	TypeCode   int
	StatusCode int
	ClientID   string
	StopPrice  float64
}

// Snapshot is the full book image: bid rows then ask rows, each in
// price-then-FIFO order as the book was walked.
type Snapshot struct {
	Bids []Record
	Asks []Record
}

const (
	headerBids = "BIDS"
	headerAsks = "ASKS"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeRecord(w *bufio.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "%d,%s,%s,%s,%s,%d,%d,%s,%s\n",
		r.ID, r.Side,
		formatFloat(r.Price), formatFloat(r.Quantity), formatFloat(r.Filled),
		r.TypeCode, r.StatusCode,
		r.ClientID, formatFloat(r.StopPrice))
	return err
}

// Write encodes the snapshot to w.
func Write(w io.Writer, s Snapshot) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, headerBids); err != nil {
		return err
	}
	for _, r := range s.Bids {
		if err := writeRecord(bw, r); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, headerAsks); err != nil {
		return err
	}
	for _, r := range s.Asks {
		if err := writeRecord(bw, r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func parseRecord(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 9 {
		return Record{}, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}

	var r Record
	var err error
	if r.ID, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return Record{}, fmt.Errorf("id: %w", err)
	}
	r.Side = fields[1]
	if r.Side != "buy" && r.Side != "sell" {
		return Record{}, fmt.Errorf("unknown side %q", r.Side)
	}
	if r.Price, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return Record{}, fmt.Errorf("price: %w", err)
	}
	if r.Quantity, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return Record{}, fmt.Errorf("quantity: %w", err)
	}
	if r.Filled, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return Record{}, fmt.Errorf("filledQuantity: %w", err)
	}
	if r.TypeCode, err = strconv.Atoi(fields[5]); err != nil {
		return Record{}, fmt.Errorf("typeCode: %w", err)
	}
	if r.StatusCode, err = strconv.Atoi(fields[6]); err != nil {
		return Record{}, fmt.Errorf("statusCode: %w", err)
	}
	r.ClientID = fields[7]
	if r.StopPrice, err = strconv.ParseFloat(fields[8], 64); err != nil {
		return Record{}, fmt.Errorf("stopPrice: %w", err)
	}
	return r, nil
}

// Read decodes a snapshot from r. The whole input is parsed before
// returning, so a decode error never leaves the caller with a partial
// snapshot.
func Read(r io.Reader) (Snapshot, error) {
	var s Snapshot
	section := ""
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == headerBids || line == headerAsks {
			section = line
			continue
		}
		if section == "" {
			return Snapshot{}, fmt.Errorf("line %d: row before section header", lineNo)
		}
		rec, err := parseRecord(line)
		if err != nil {
			return Snapshot{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if section == headerBids {
			s.Bids = append(s.Bids, rec)
		} else {
			s.Asks = append(s.Asks, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
