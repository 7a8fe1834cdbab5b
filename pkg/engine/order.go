package engine

import "time"

// Side is the direction of an order.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an order of side s matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType selects the execution policy for an order.
// The numeric values are stable: they are the typeCode written to snapshots.
type OrderType int8

const (
	Limit OrderType = iota
	Market
	Stop
	IOC
	FOK
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	case Stop:
		return "STOP"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus is the lifecycle state of an order.
// Filled, Cancelled and Rejected are terminal. The numeric values are the
// statusCode written to snapshots.
type OrderStatus int8

const (
	Open OrderStatus = iota
	Partial
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Open:
		return "open"
	case Partial:
		return "partial"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order is a single order tracked by the engine. Orders are mutated in
// place by matching and cancellation; they stay in the id index after
// leaving the book so status queries keep working.
type Order struct {
	ID        int64
	ClientID  string
	Side      Side
	Type      OrderType
	Price     float64 // limit price; meaningless for Market orders
	StopPrice float64 // trigger price; Stop orders only
	Quantity  float64
	Filled    float64
	Status    OrderStatus
	CreatedAt time.Time
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() float64 {
	return o.Quantity - o.Filled
}

// IsTerminal reports whether the order can no longer change state.
func (o *Order) IsTerminal() bool {
	return o.Status == Filled || o.Status == Cancelled || o.Status == Rejected
}

// Trade is a completed cross between a buy and a sell order.
//
// Price is the price of whichever order arrived earlier (the resting side),
// with timestamp ties resolving to the bid. The aggressing leg pays
// TakerFee and the resting leg pays MakerFee, both computed on
// Quantity x Price.
type Trade struct {
	BuyOrderID  int64
	SellOrderID int64
	Price       float64
	Quantity    float64
	MakerFee    float64
	TakerFee    float64
	Timestamp   time.Time
}
