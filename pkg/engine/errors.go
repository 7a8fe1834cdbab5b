package engine

import "errors"

var (
	ErrInvalidPrice          = errors.New("invalid price")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidTick           = errors.New("price not a multiple of tick size")
	ErrInvalidStopPrice      = errors.New("invalid stop price")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotModifiable    = errors.New("order not modifiable")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrSnapshotIO            = errors.New("snapshot i/o failure")
)
