package engine

// TradeHandler receives every trade as it is produced.
type TradeHandler func(Trade)

// OrderHandler receives an order snapshot on every status change.
type OrderHandler func(Order)

// EventBus is a synchronous subscriber registry. Callbacks run in-line
// during matching, so they must not call back into the engine.
type EventBus struct {
	tradeSubs []TradeHandler
	orderSubs []OrderHandler
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) SubscribeTrade(h TradeHandler) {
	b.tradeSubs = append(b.tradeSubs, h)
}

func (b *EventBus) SubscribeOrder(h OrderHandler) {
	b.orderSubs = append(b.orderSubs, h)
}

func (b *EventBus) publishTrade(t Trade) {
	for _, h := range b.tradeSubs {
		h(t)
	}
}

func (b *EventBus) publishOrder(o Order) {
	for _, h := range b.orderSubs {
		h(o)
	}
}
