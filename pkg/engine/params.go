package engine

// Params are the market parameters the engine enforces. Fee rates are
// fractional (0.001 = 10 bps); tick and lot size are the minimum price and
// quantity increments.
type Params struct {
	TickSize     float64
	LotSize      float64
	MakerFeeRate float64
	TakerFeeRate float64
}

// DefaultParams returns parameters suitable for a BTC/USDT-style book.
func DefaultParams() Params {
	return Params{
		TickSize:     0.01,
		LotSize:      0.00001,
		MakerFeeRate: 0.001,
		TakerFeeRate: 0.002,
	}
}
