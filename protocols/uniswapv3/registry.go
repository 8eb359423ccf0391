package uniswapv3

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrValidation is the root of every error caused by malformed or contradictory input.
	ErrValidation = errors.New("validation error")

	ErrUnknownFeeTier       = fmt.Errorf("%w: unknown fee tier", ErrValidation)
	ErrInvalidPositionRange = fmt.Errorf("%w: invalid position range", ErrValidation)
)

// FeeTier is a pool fee in hundredths of a basis point.
type FeeTier uint64

const (
	FeeLowest FeeTier = 100
	FeeLow    FeeTier = 500
	FeeMedium FeeTier = 3000
	FeeHigh   FeeTier = 10000
)

// TickSpacings maps each fee tier to the tick granularity its pools enforce.
var TickSpacings = map[FeeTier]int64{
	FeeLowest: 1,
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

// TickSpacing returns the tick spacing of the fee tier.
func (f FeeTier) TickSpacing() (int64, error) {
	spacing, ok := TickSpacings[f]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFeeTier, uint64(f))
	}
	return spacing, nil
}

// PoolView is a read-only snapshot of the pool state the planner needs.
// It is supplied by the caller; nothing here reads chain state.
type PoolView struct {
	Token0       common.Address `json:"token0"`
	Token1       common.Address `json:"token1"`
	Fee          FeeTier        `json:"fee"`
	SqrtPriceX96 *big.Int       `json:"sqrtPriceX96"`
}

// PositionRange is the tick interval of a concentrated-liquidity position.
type PositionRange struct {
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
}

// Width returns the number of ticks covered by the range.
func (r PositionRange) Width() int64 {
	return r.Upper - r.Lower
}

// Validate checks ordering and spacing alignment of the range.
func (r PositionRange) Validate(tickSpacing int64) error {
	if r.Lower >= r.Upper {
		return fmt.Errorf("%w: lower %d is not below upper %d", ErrInvalidPositionRange, r.Lower, r.Upper)
	}
	if tickSpacing <= 0 {
		return fmt.Errorf("%w: tick spacing %d", ErrInvalidPositionRange, tickSpacing)
	}
	if r.Lower%tickSpacing != 0 || r.Upper%tickSpacing != 0 {
		return fmt.Errorf("%w: [%d, %d] not aligned to spacing %d", ErrInvalidPositionRange, r.Lower, r.Upper, tickSpacing)
	}
	return nil
}
