// Package engine implements a single-instrument limit order book matching
// engine: price-time priority crossing, LIMIT/MARKET/IOC/FOK/STOP order
// policies, stop-trigger cascades, per-client positions and fees, and
// flat-text snapshot persistence.
//
// The engine is single-threaded and cooperative: every public operation
// runs to completion, including all matching passes and stop cascades,
// before the next begins. There is no internal locking; concurrent order
// flow needs a single-writer boundary (one dispatch goroutine or a
// mailbox) in front of the engine. Event callbacks fire in-line and must
// not re-enter the engine.
package engine

import (
	"go.uber.org/zap"

	"github.com/tbessho/matchbook/pkg/ledger"
	"github.com/tbessho/matchbook/pkg/util"
)

// Engine owns all mutable state for one instrument: the book, the id
// index, the armed-stop watch set, the trade history and the position
// ledger. Construct one per instrument and pass it by reference to
// collaborators; there are no package-level globals.
type Engine struct {
	params    Params
	validator Validator
	log       *zap.Logger
	clock     util.Clock

	book   *Book
	orders map[int64]*Order // id index; outlives book membership
	stops  []int64          // armed stop order ids, arrival order

	ledger *ledger.Ledger
	events *EventBus
	trades []Trade

	nextID    int64
	lastPrice float64
	hasLast   bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger replaces the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock replaces the wall clock, mainly for deterministic tests.
func WithClock(c util.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func New(p Params, opts ...Option) *Engine {
	e := &Engine{
		params:    p,
		validator: NewValidator(p.TickSize, p.LotSize),
		log:       zap.NewNop(),
		clock:     util.RealClock{},
		book:      NewBook(),
		orders:    make(map[int64]*Order),
		ledger:    ledger.New(),
		events:    NewEventBus(),
		nextID:    1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the engine's event bus for subscriber registration.
func (e *Engine) Events() *EventBus { return e.events }

// SubmitRequest carries one order submission. StopPrice is read for Stop
// orders only; Price is ignored for Market orders.
type SubmitRequest struct {
	ClientID  string
	Side      Side
	Type      OrderType
	Price     float64
	Quantity  float64
	StopPrice float64
}

// Submit validates the request, assigns an id and routes the order to its
// type handler. On a validation failure the order is rejected before it is
// recorded: the returned id is 0 and no state changes.
func (e *Engine) Submit(req SubmitRequest) (int64, error) {
	if err := e.validator.Validate(req.Type, req.Price, req.Quantity, req.StopPrice); err != nil {
		e.log.Info("order rejected",
			zap.String("client", req.ClientID),
			zap.String("side", req.Side.String()),
			zap.String("type", req.Type.String()),
			zap.Float64("price", req.Price),
			zap.Float64("qty", req.Quantity),
			zap.Error(err))
		return 0, err
	}

	o := &Order{
		ID:        e.nextID,
		ClientID:  req.ClientID,
		Side:      req.Side,
		Type:      req.Type,
		Price:     req.Price,
		StopPrice: req.StopPrice,
		Quantity:  req.Quantity,
		Status:    Open,
		CreatedAt: e.clock.Now(),
	}
	e.nextID++
	e.orders[o.ID] = o

	e.log.Info("order placed",
		zap.Int64("id", o.ID),
		zap.String("client", o.ClientID),
		zap.String("side", o.Side.String()),
		zap.String("type", o.Type.String()),
		zap.Float64("price", o.Price),
		zap.Float64("qty", o.Quantity))

	switch o.Type {
	case Market:
		return o.ID, e.handleMarket(o)
	case Stop:
		e.stops = append(e.stops, o.ID)
		e.log.Info("stop order armed",
			zap.Int64("id", o.ID),
			zap.Float64("stopPrice", o.StopPrice))
		return o.ID, nil
	case FOK:
		return o.ID, e.handleFOK(o)
	case IOC:
		e.book.Insert(o)
		e.match()
		e.scanStops()
		if o.Remaining() > 0 {
			e.book.Remove(o.ID)
			if o.Filled == 0 {
				e.setStatus(o, Cancelled)
			}
		}
		return o.ID, nil
	default: // Limit
		e.book.Insert(o)
		e.match()
		e.scanStops()
		return o.ID, nil
	}
}

// handleMarket walks the opposite side without ever inserting the
// aggressor into the book. A request beyond available liquidity logs a
// warning first and leaves the shortfall unexecuted.
func (e *Engine) handleMarket(o *Order) error {
	available := e.book.Available(o.Side)
	if available < o.Quantity {
		e.log.Warn("insufficient liquidity for market order",
			zap.Int64("id", o.ID),
			zap.Float64("available", available),
			zap.Float64("requested", o.Quantity))
	}

	avgPrice := e.sweep(o)

	switch {
	case o.Filled == 0:
		e.setStatus(o, Rejected)
	case o.Remaining() > 0:
		e.setStatus(o, Partial)
	default:
		e.setStatus(o, Filled)
	}

	if o.Filled > 0 {
		e.log.Info("market order executed",
			zap.Int64("id", o.ID),
			zap.Float64("avgPrice", avgPrice),
			zap.Float64("filled", o.Filled))
	}

	e.scanStops()
	if o.Filled == 0 {
		return ErrInsufficientLiquidity
	}
	return nil
}

// handleFOK pre-checks liquidity: all-or-nothing with no book mutation on
// the nothing path. With the check passed, a single matching pass fills the
// order completely.
func (e *Engine) handleFOK(o *Order) error {
	if e.book.Available(o.Side) < o.Quantity {
		e.setStatus(o, Rejected)
		e.log.Info("fok order rejected",
			zap.Int64("id", o.ID),
			zap.Float64("qty", o.Quantity))
		return ErrInsufficientLiquidity
	}
	e.book.Insert(o)
	e.match()
	e.scanStops()
	return nil
}

// Cancel removes the order from the book or the armed-stop watch set and
// marks it cancelled. Orders that are absent or already terminal report
// ErrOrderNotFound.
func (e *Engine) Cancel(id int64) error {
	o, ok := e.orders[id]
	if !ok || o.IsTerminal() {
		return ErrOrderNotFound
	}

	if o.Type == Stop && e.disarmStop(id) {
		e.setStatus(o, Cancelled)
		e.log.Info("stop order cancelled", zap.Int64("id", id))
		return nil
	}

	if e.book.Remove(id) == nil {
		return ErrOrderNotFound
	}
	e.setStatus(o, Cancelled)
	e.log.Info("order cancelled", zap.Int64("id", id))
	return nil
}

// Modify is cancel-of-old plus a fresh LIMIT submission under a new id.
// It is legal only while the order is still Open; the old id ends up
// permanently Cancelled and carries no priority into the new order.
func (e *Engine) Modify(id int64, newPrice, newQuantity float64) (int64, error) {
	o, ok := e.orders[id]
	if !ok {
		return 0, ErrOrderNotFound
	}
	if o.Status != Open {
		return 0, ErrOrderNotModifiable
	}
	if err := e.validator.Validate(Limit, newPrice, newQuantity, 0); err != nil {
		return 0, err
	}

	if err := e.Cancel(id); err != nil {
		return 0, err
	}
	newID, err := e.Submit(SubmitRequest{
		ClientID: o.ClientID,
		Side:     o.Side,
		Type:     Limit,
		Price:    newPrice,
		Quantity: newQuantity,
	})
	if err != nil {
		return 0, err
	}
	e.log.Info("order modified",
		zap.Int64("oldID", id),
		zap.Int64("newID", newID))
	return newID, nil
}

// setStatus updates the order status and notifies order subscribers with a
// copy of the order.
func (e *Engine) setStatus(o *Order, status OrderStatus) {
	o.Status = status
	e.events.publishOrder(*o)
}
