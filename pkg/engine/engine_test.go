package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/tbessho/matchbook/pkg/util"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(DefaultParams(), WithClock(util.NewFakeClock()))
}

func limit(e *Engine, client string, side Side, price, qty float64) int64 {
	id, err := e.Submit(SubmitRequest{
		ClientID: client,
		Side:     side,
		Type:     Limit,
		Price:    price,
		Quantity: qty,
	})
	if err != nil {
		panic(err)
	}
	return id
}

func mustOrder(t *testing.T, e *Engine, id int64) Order {
	t.Helper()
	o, err := e.Order(id)
	if err != nil {
		t.Fatalf("Order(%d): %v", id, err)
	}
	return o
}

func TestLimitOrderRests(t *testing.T) {
	e := newTestEngine(t)

	id := limit(e, "alice", Buy, 100, 5)

	o := mustOrder(t, e, id)
	if o.Status != Open {
		t.Errorf("status = %v, want %v", o.Status, Open)
	}
	if bid, ok := e.BestBid(); !ok || bid != 100 {
		t.Errorf("best bid = %v,%v, want 100,true", bid, ok)
	}
	if len(e.Trades()) != 0 {
		t.Errorf("expected no trades, got %d", len(e.Trades()))
	}
}

func TestLimitCross(t *testing.T) {
	e := newTestEngine(t)

	sellID := limit(e, "maker", Sell, 100, 5)
	buyID := limit(e, "taker", Buy, 101, 5)

	trades := e.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	// The trade prints at the earlier arrival's price, not the aggressor's.
	if trades[0].Price != 100 {
		t.Errorf("trade price = %v, want 100", trades[0].Price)
	}
	if trades[0].Quantity != 5 {
		t.Errorf("trade qty = %v, want 5", trades[0].Quantity)
	}

	if mustOrder(t, e, sellID).Status != Filled {
		t.Errorf("sell not filled")
	}
	if mustOrder(t, e, buyID).Status != Filled {
		t.Errorf("buy not filled")
	}

	if _, ok := e.BestBid(); ok {
		t.Errorf("book should be empty on the bid side")
	}
	if _, ok := e.BestAsk(); ok {
		t.Errorf("book should be empty on the ask side")
	}
}

func TestFIFOPriorityAtSamePrice(t *testing.T) {
	e := newTestEngine(t)

	first := limit(e, "a", Buy, 100, 10)
	second := limit(e, "b", Buy, 100, 5)

	_, err := e.Submit(SubmitRequest{
		ClientID: "c",
		Side:     Sell,
		Type:     Market,
		Quantity: 12,
	})
	if err != nil {
		t.Fatalf("market sell: %v", err)
	}

	trades := e.Trades()
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].BuyOrderID != first || trades[0].Quantity != 10 {
		t.Errorf("trade 0 = buy %d qty %v, want buy %d qty 10",
			trades[0].BuyOrderID, trades[0].Quantity, first)
	}
	if trades[1].BuyOrderID != second || trades[1].Quantity != 2 {
		t.Errorf("trade 1 = buy %d qty %v, want buy %d qty 2",
			trades[1].BuyOrderID, trades[1].Quantity, second)
	}

	if got := mustOrder(t, e, first); got.Status != Filled {
		t.Errorf("first order status = %v, want %v", got.Status, Filled)
	}
	if got := mustOrder(t, e, second); got.Status != Partial || got.Filled != 2 {
		t.Errorf("second order = %v filled %v, want %v filled 2",
			got.Status, got.Filled, Partial)
	}
}

func TestPriceImprovementGoesToAggressor(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "maker", Buy, 102, 3)
	limit(e, "taker", Sell, 100, 3)

	trades := e.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	// Resting bid at 102 was there first; the sell executes at 102.
	if trades[0].Price != 102 {
		t.Errorf("trade price = %v, want 102", trades[0].Price)
	}
}

func TestTimestampTieUsesBidPrice(t *testing.T) {
	// A zero-step clock gives every order the same CreatedAt.
	frozen := &util.FakeClock{Current: time.Unix(1700000000, 0), Step: 0}
	e := New(DefaultParams(), WithClock(frozen))

	limit(e, "s", Sell, 100, 1)
	limit(e, "b", Buy, 101, 1)

	trades := e.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Price != 101 {
		t.Errorf("tie trade price = %v, want bid price 101", trades[0].Price)
	}
}

func TestMarketOrderSweepsLevels(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "m1", Sell, 100, 2)
	limit(e, "m2", Sell, 101, 2)
	limit(e, "m3", Sell, 102, 2)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     Market,
		Quantity: 5,
	})
	if err != nil {
		t.Fatalf("market buy: %v", err)
	}

	trades := e.Trades()
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	wantPrices := []float64{100, 101, 102}
	wantQtys := []float64{2, 2, 1}
	for i, tr := range trades {
		if tr.Price != wantPrices[i] || tr.Quantity != wantQtys[i] {
			t.Errorf("trade %d = %v@%v, want %v@%v",
				i, tr.Quantity, tr.Price, wantQtys[i], wantPrices[i])
		}
	}

	if got := mustOrder(t, e, id); got.Status != Filled {
		t.Errorf("market order status = %v, want %v", got.Status, Filled)
	}
	if ask, ok := e.BestAsk(); !ok || ask != 102 {
		t.Errorf("best ask = %v,%v, want 102,true", ask, ok)
	}

	avg, err := e.AvgFillPrice(id)
	if err != nil {
		t.Fatalf("AvgFillPrice: %v", err)
	}
	want := (2*100.0 + 2*101.0 + 1*102.0) / 5.0
	if avg != want {
		t.Errorf("avg fill price = %v, want %v", avg, want)
	}
}

func TestMarketOrderPartialLiquidity(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "m", Sell, 100, 3)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     Market,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("partial market order should not error, got %v", err)
	}

	o := mustOrder(t, e, id)
	if o.Status != Partial || o.Filled != 3 {
		t.Errorf("order = %v filled %v, want %v filled 3", o.Status, o.Filled, Partial)
	}
}

func TestMarketOrderNoLiquidity(t *testing.T) {
	e := newTestEngine(t)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     Market,
		Quantity: 1,
	})
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("err = %v, want %v", err, ErrInsufficientLiquidity)
	}
	if got := mustOrder(t, e, id); got.Status != Rejected {
		t.Errorf("status = %v, want %v", got.Status, Rejected)
	}
}

func TestIOCNeverRests(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "m", Sell, 100, 3)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     IOC,
		Price:    100,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("ioc: %v", err)
	}

	o := mustOrder(t, e, id)
	if o.Status != Partial || o.Filled != 3 {
		t.Errorf("ioc = %v filled %v, want %v filled 3", o.Status, o.Filled, Partial)
	}
	// The remainder must not stay on the bid side.
	if _, ok := e.BestBid(); ok {
		t.Errorf("ioc remainder left in the book")
	}
}

func TestIOCNoFillCancelled(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "m", Sell, 105, 3)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     IOC,
		Price:    100,
		Quantity: 2,
	})
	if err != nil {
		t.Fatalf("ioc: %v", err)
	}

	if got := mustOrder(t, e, id); got.Status != Cancelled {
		t.Errorf("status = %v, want %v", got.Status, Cancelled)
	}
	if len(e.Trades()) != 0 {
		t.Errorf("expected no trades")
	}
}

func TestFOKInsufficientLiquidity(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "m", Sell, 100, 3)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     FOK,
		Price:    100,
		Quantity: 5,
	})
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("err = %v, want %v", err, ErrInsufficientLiquidity)
	}
	if got := mustOrder(t, e, id); got.Status != Rejected {
		t.Errorf("status = %v, want %v", got.Status, Rejected)
	}
	if len(e.Trades()) != 0 {
		t.Errorf("fok rejection must not trade")
	}
	// Resting liquidity untouched.
	if ask, ok := e.BestAsk(); !ok || ask != 100 {
		t.Errorf("best ask = %v,%v, want 100,true", ask, ok)
	}
}

func TestFOKFullFill(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "m1", Sell, 100, 2)
	limit(e, "m2", Sell, 101, 3)

	id, err := e.Submit(SubmitRequest{
		ClientID: "t",
		Side:     Buy,
		Type:     FOK,
		Price:    101,
		Quantity: 5,
	})
	if err != nil {
		t.Fatalf("fok: %v", err)
	}
	if got := mustOrder(t, e, id); got.Status != Filled {
		t.Errorf("status = %v, want %v", got.Status, Filled)
	}
	if len(e.Trades()) != 2 {
		t.Errorf("expected 2 trades, got %d", len(e.Trades()))
	}
}

func TestCancel(t *testing.T) {
	e := newTestEngine(t)

	id := limit(e, "a", Buy, 100, 5)
	if err := e.Cancel(id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := mustOrder(t, e, id); got.Status != Cancelled {
		t.Errorf("status = %v, want %v", got.Status, Cancelled)
	}
	if _, ok := e.BestBid(); ok {
		t.Errorf("cancelled order still resting")
	}

	// Second cancel and unknown id both report not found.
	if err := e.Cancel(id); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("repeat cancel err = %v, want %v", err, ErrOrderNotFound)
	}
	if err := e.Cancel(9999); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("unknown cancel err = %v, want %v", err, ErrOrderNotFound)
	}
}

func TestCancelArmedStop(t *testing.T) {
	e := newTestEngine(t)

	id, err := e.Submit(SubmitRequest{
		ClientID:  "a",
		Side:      Sell,
		Type:      Stop,
		Price:     89,
		StopPrice: 90,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := e.Cancel(id); err != nil {
		t.Fatalf("cancel armed stop: %v", err)
	}
	if got := mustOrder(t, e, id); got.Status != Cancelled {
		t.Errorf("status = %v, want %v", got.Status, Cancelled)
	}

	// A trade through the stop price must not trigger the cancelled stop.
	limit(e, "m", Buy, 89, 1)
	limit(e, "t", Sell, 89, 1)
	if len(e.Trades()) != 1 {
		t.Errorf("cancelled stop fired, got %d trades", len(e.Trades()))
	}
}

func TestModify(t *testing.T) {
	e := newTestEngine(t)

	oldID := limit(e, "a", Buy, 100, 5)
	queueAhead := limit(e, "b", Buy, 101, 5)

	newID, err := e.Modify(oldID, 101, 4)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if newID == oldID {
		t.Errorf("modify must assign a new id")
	}
	if got := mustOrder(t, e, oldID); got.Status != Cancelled {
		t.Errorf("old order status = %v, want %v", got.Status, Cancelled)
	}

	o := mustOrder(t, e, newID)
	if o.Price != 101 || o.Quantity != 4 || o.Type != Limit {
		t.Errorf("new order = %+v, want limit 4@101", o)
	}

	// Priority resets: a sell crossing 101 fills the earlier bid first.
	e.Submit(SubmitRequest{ClientID: "s", Side: Sell, Type: Market, Quantity: 5})
	trades := e.Trades()
	if len(trades) != 1 || trades[0].BuyOrderID != queueAhead {
		t.Errorf("modified order kept its queue position")
	}
}

func TestModifyErrors(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Modify(42, 100, 1); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("unknown modify err = %v, want %v", err, ErrOrderNotFound)
	}

	// Partially filled orders are not modifiable.
	id := limit(e, "a", Buy, 100, 5)
	limit(e, "b", Sell, 100, 2)
	if _, err := e.Modify(id, 101, 5); !errors.Is(err, ErrOrderNotModifiable) {
		t.Errorf("partial modify err = %v, want %v", err, ErrOrderNotModifiable)
	}

	// Invalid replacement terms leave the original untouched.
	id2 := limit(e, "c", Sell, 110, 5)
	if _, err := e.Modify(id2, 110.005, 5); !errors.Is(err, ErrInvalidTick) {
		t.Errorf("bad price modify err = %v, want %v", err, ErrInvalidTick)
	}
	if got := mustOrder(t, e, id2); got.Status != Open {
		t.Errorf("failed modify changed the order: %v", got.Status)
	}
}

func TestValidationRejectionRecordsNothing(t *testing.T) {
	e := newTestEngine(t)

	id, err := e.Submit(SubmitRequest{
		ClientID: "a",
		Side:     Buy,
		Type:     Limit,
		Price:    100.005,
		Quantity: 1,
	})
	if !errors.Is(err, ErrInvalidTick) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidTick)
	}
	if id != 0 {
		t.Errorf("rejected submit returned id %d", id)
	}
	// The next accepted order still gets the first id.
	next := limit(e, "a", Buy, 100, 1)
	if next != 1 {
		t.Errorf("next id = %d, want 1", next)
	}
}

func TestBookNeverCrossed(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "a", Buy, 100, 5)
	limit(e, "b", Sell, 102, 5)
	limit(e, "c", Buy, 101, 3)
	limit(e, "d", Sell, 99, 4) // crosses, trades through
	limit(e, "e", Buy, 98, 2)

	bid, okBid := e.BestBid()
	ask, okAsk := e.BestAsk()
	if okBid && okAsk && bid >= ask {
		t.Errorf("book crossed: bid %v >= ask %v", bid, ask)
	}
}

func TestPositionsAndFees(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "maker", Sell, 100, 2)
	limit(e, "taker", Buy, 100, 2)

	pos, ok := e.Position("taker")
	if !ok {
		t.Fatalf("taker has no position")
	}
	if pos.Quantity != 2 || pos.AvgPrice != 100 {
		t.Errorf("taker position = %+v, want qty 2 avg 100", pos)
	}

	pos, ok = e.Position("maker")
	if !ok {
		t.Fatalf("maker has no position")
	}
	if pos.Quantity != -2 {
		t.Errorf("maker quantity = %v, want -2", pos.Quantity)
	}

	// notional 200: maker pays 0.1% = 0.2, taker pays 0.2% = 0.4
	if fees := e.FeesPaid("maker"); fees != 0.2 {
		t.Errorf("maker fees = %v, want 0.2", fees)
	}
	if fees := e.FeesPaid("taker"); fees != 0.4 {
		t.Errorf("taker fees = %v, want 0.4", fees)
	}
}

func TestTradeEvents(t *testing.T) {
	e := newTestEngine(t)

	var trades []Trade
	var statuses []OrderStatus
	e.Events().SubscribeTrade(func(tr Trade) { trades = append(trades, tr) })
	e.Events().SubscribeOrder(func(o Order) { statuses = append(statuses, o.Status) })

	limit(e, "a", Sell, 100, 1)
	limit(e, "b", Buy, 100, 1)

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade event, got %d", len(trades))
	}
	if trades[0].Price != 100 || trades[0].Quantity != 1 {
		t.Errorf("trade event = %+v", trades[0])
	}
	if len(statuses) != 2 {
		t.Errorf("expected 2 order events, got %d", len(statuses))
	}
}

func TestQueries(t *testing.T) {
	e := newTestEngine(t)

	if e.MidPrice() != 0 || e.Spread() != 0 {
		t.Errorf("empty book mid/spread must be 0")
	}

	limit(e, "a", Buy, 100, 5)
	if e.MidPrice() != 100 {
		t.Errorf("one-sided mid = %v, want 100", e.MidPrice())
	}

	limit(e, "b", Sell, 104, 5)
	if e.MidPrice() != 102 {
		t.Errorf("mid = %v, want 102", e.MidPrice())
	}
	if e.Spread() != 4 {
		t.Errorf("spread = %v, want 4", e.Spread())
	}

	if _, ok := e.LastPrice(); ok {
		t.Errorf("last price set before any trade")
	}
	limit(e, "c", Sell, 100, 1)
	if last, ok := e.LastPrice(); !ok || last != 100 {
		t.Errorf("last price = %v,%v, want 100,true", last, ok)
	}
}

func TestDepth(t *testing.T) {
	e := newTestEngine(t)

	limit(e, "a", Buy, 100, 2)
	limit(e, "b", Buy, 100, 1)
	limit(e, "c", Buy, 99, 4)
	limit(e, "d", Sell, 101, 3)

	bids, asks := e.Depth(2)
	if len(bids) != 2 || len(asks) != 1 {
		t.Fatalf("depth sizes = %d,%d, want 2,1", len(bids), len(asks))
	}
	if bids[0].Price != 100 || bids[0].Quantity != 3 {
		t.Errorf("bid level 0 = %+v, want 3@100", bids[0])
	}
	if bids[0].CumNotional != 300 {
		t.Errorf("bid level 0 notional = %v, want 300", bids[0].CumNotional)
	}
	if bids[1].Price != 99 || bids[1].CumNotional != 300+4*99 {
		t.Errorf("bid level 1 = %+v", bids[1])
	}

	bidVols, _ := e.VolumeDepth()
	if len(bidVols) != 2 || bidVols[1].CumVolume != 7 {
		t.Errorf("volume depth = %+v, want cumulative 7 at level 1", bidVols)
	}

	supports, resistances := e.SupportResistance(3)
	if len(supports) != 2 || len(resistances) != 1 {
		t.Errorf("support/resistance = %d,%d, want 2,1", len(supports), len(resistances))
	}
}
