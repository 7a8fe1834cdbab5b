package engine

import "math"

// epsilon is the tolerance for the tick/lot multiple checks. Prices and
// quantities arrive as float64, so exact divisibility cannot be required.
const epsilon = 1e-6

// Validator checks price and quantity constraints before an order is
// accepted. It has no side effects and is used identically for new
// submissions and for modify-as-resubmit.
type Validator struct {
	tick float64
	lot  float64
}

func NewValidator(tick, lot float64) Validator {
	return Validator{tick: tick, lot: lot}
}

// Validate applies the rules in order: quantity first, then price for the
// priced order types, then the stop trigger for stop orders. Market orders
// skip all price checks. Stop orders carry a limit price they convert to
// on trigger, so it is checked like any other limit price.
func (v Validator) Validate(typ OrderType, price, qty, stopPrice float64) error {
	if qty <= 0 || qty < v.lot {
		return ErrInvalidQuantity
	}
	if !isMultiple(qty, v.lot) {
		return ErrInvalidQuantity
	}

	if typ == Limit || typ == IOC || typ == FOK || typ == Stop {
		if price <= 0 || price < v.tick {
			return ErrInvalidPrice
		}
		if !isMultiple(price, v.tick) {
			return ErrInvalidTick
		}
	}

	if typ == Stop {
		if stopPrice <= 0 || stopPrice < v.tick {
			return ErrInvalidStopPrice
		}
	}

	return nil
}

// isMultiple reports whether x is an integer multiple of step within
// epsilon, measured on the ratio x/step.
func isMultiple(x, step float64) bool {
	ratio := x / step
	return math.Abs(ratio-math.Round(ratio)) <= epsilon
}
