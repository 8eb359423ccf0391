package liquiditymath

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/defistate-lp-go/bigmath"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
)

// Precision selects how GetLiquidityForAmount0 orders its divisions.
type Precision uint8

const (
	// Precise divides once, after the full product.
	Precise Precision = iota
	// Imprecise truncates A*B/Q96 before multiplying by the amount.
	Imprecise
)

func (p Precision) String() string {
	switch p {
	case Precise:
		return "precise"
	case Imprecise:
		return "imprecise"
	default:
		return fmt.Sprintf("Precision(%d)", uint8(p))
	}
}

var (
	ErrLiquidityOverflow = fmt.Errorf("%w: liquidity overflows uint128", bigmath.ErrArithmetic)
	ErrZeroRangeWidth    = fmt.Errorf("%w: sqrt price bounds are equal", bigmath.ErrArithmetic)
	ErrSqrtPriceZero     = fmt.Errorf("%w: sqrt price must be greater than zero", bigmath.ErrArithmetic)
	ErrNegativeAmount    = fmt.Errorf("%w: amounts, liquidity and sqrt prices must not be negative", uniswapv3.ErrValidation)
)

// liquidityMath holds reusable big.Int objects. Instances are managed by a
// sync.Pool for safe concurrent use.
type liquidityMath struct {
	numerator   *big.Int
	denominator *big.Int
	width       *big.Int
	term        *big.Int
	candidate   *big.Int
}

var pool = sync.Pool{
	New: func() any {
		return &liquidityMath{
			numerator:   new(big.Int),
			denominator: new(big.Int),
			width:       new(big.Int),
			term:        new(big.Int),
			candidate:   new(big.Int),
		}
	},
}

func checkNonNegative(values ...*big.Int) error {
	for _, v := range values {
		if v == nil || v.Sign() < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

func ordered(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

func checkLiquidity(dest *big.Int) error {
	if dest.Cmp(bigmath.MaxUint128) > 0 {
		return fmt.Errorf("%w: %s", ErrLiquidityOverflow, dest)
	}
	return nil
}

// --- Public API with Destination-Passing ---

// GetAmount0ForLiquidity writes the token0 amount backing liquidity between two
// sqrt prices into dest, rounded up.
func GetAmount0ForLiquidity(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) error {
	if err := checkNonNegative(sqrtRatioAX96, sqrtRatioBX96, liquidity); err != nil {
		return err
	}
	m := pool.Get().(*liquidityMath)
	defer pool.Put(m)
	return m.getAmount0ForLiquidity(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity)
}

// GetAmount1ForLiquidity writes the token1 amount backing liquidity between two
// sqrt prices into dest, rounded up.
func GetAmount1ForLiquidity(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) error {
	if err := checkNonNegative(sqrtRatioAX96, sqrtRatioBX96, liquidity); err != nil {
		return err
	}
	m := pool.Get().(*liquidityMath)
	defer pool.Put(m)
	return m.getAmount1ForLiquidity(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity)
}

// GetAmountsForLiquidity writes the token amounts backing liquidity at the
// current sqrt price into dest0 and dest1.
func GetAmountsForLiquidity(dest0, dest1, sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) error {
	if err := checkNonNegative(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity); err != nil {
		return err
	}
	sqrtRatioAX96, sqrtRatioBX96 = ordered(sqrtRatioAX96, sqrtRatioBX96)

	m := pool.Get().(*liquidityMath)
	defer pool.Put(m)

	switch {
	case sqrtRatioX96.Cmp(sqrtRatioAX96) <= 0:
		if err := m.getAmount0ForLiquidity(dest0, sqrtRatioAX96, sqrtRatioBX96, liquidity); err != nil {
			return err
		}
		dest1.SetUint64(0)
	case sqrtRatioX96.Cmp(sqrtRatioBX96) < 0:
		if err := m.getAmount1ForLiquidity(m.candidate, sqrtRatioAX96, sqrtRatioX96, liquidity); err != nil {
			return err
		}
		if err := m.getAmount0ForLiquidity(dest0, sqrtRatioX96, sqrtRatioBX96, liquidity); err != nil {
			return err
		}
		dest1.Set(m.candidate)
	default:
		if err := m.getAmount1ForLiquidity(dest1, sqrtRatioAX96, sqrtRatioBX96, liquidity); err != nil {
			return err
		}
		dest0.SetUint64(0)
	}
	return nil
}

// GetLiquidityForAmount0 writes the liquidity that amount0 buys between two
// sqrt prices into dest, rounded down.
func GetLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int, precision Precision) error {
	if err := checkNonNegative(sqrtRatioAX96, sqrtRatioBX96, amount0); err != nil {
		return err
	}
	m := pool.Get().(*liquidityMath)
	defer pool.Put(m)
	if err := m.getLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0, precision); err != nil {
		return err
	}
	return checkLiquidity(dest)
}

// GetLiquidityForAmount1 writes the liquidity that amount1 buys between two
// sqrt prices into dest, rounded down.
func GetLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) error {
	if err := checkNonNegative(sqrtRatioAX96, sqrtRatioBX96, amount1); err != nil {
		return err
	}
	m := pool.Get().(*liquidityMath)
	defer pool.Put(m)
	if err := m.getLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1); err != nil {
		return err
	}
	return checkLiquidity(dest)
}

// GetLiquidityForAmounts writes the largest liquidity that both amounts can
// fund at the current sqrt price into dest.
func GetLiquidityForAmounts(dest, sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *big.Int, precision Precision) error {
	if err := checkNonNegative(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1); err != nil {
		return err
	}
	sqrtRatioAX96, sqrtRatioBX96 = ordered(sqrtRatioAX96, sqrtRatioBX96)

	m := pool.Get().(*liquidityMath)
	defer pool.Put(m)

	var err error
	switch {
	case sqrtRatioX96.Cmp(sqrtRatioAX96) <= 0:
		err = m.getLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0, precision)
	case sqrtRatioX96.Cmp(sqrtRatioBX96) < 0:
		if err = m.getLiquidityForAmount0(m.candidate, sqrtRatioX96, sqrtRatioBX96, amount0, precision); err != nil {
			return err
		}
		if err = m.getLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioX96, amount1); err != nil {
			return err
		}
		if m.candidate.Cmp(dest) < 0 {
			dest.Set(m.candidate)
		}
	default:
		err = m.getLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1)
	}
	if err != nil {
		return err
	}
	return checkLiquidity(dest)
}

// --- Internal Implementations ---

func (m *liquidityMath) getAmount0ForLiquidity(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) error {
	sqrtRatioAX96, sqrtRatioBX96 = ordered(sqrtRatioAX96, sqrtRatioBX96)
	if sqrtRatioAX96.Sign() == 0 {
		return ErrSqrtPriceZero
	}

	m.numerator.Lsh(liquidity, 96)
	m.width.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if err := bigmath.MulDivRoundingUp(m.term, m.numerator, m.width, sqrtRatioBX96); err != nil {
		return err
	}
	return bigmath.DivRoundingUp(dest, m.term, sqrtRatioAX96)
}

func (m *liquidityMath) getAmount1ForLiquidity(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) error {
	sqrtRatioAX96, sqrtRatioBX96 = ordered(sqrtRatioAX96, sqrtRatioBX96)
	m.width.Sub(sqrtRatioBX96, sqrtRatioAX96)
	return bigmath.MulDivRoundingUp(dest, liquidity, m.width, bigmath.Q96)
}

func (m *liquidityMath) getLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int, precision Precision) error {
	sqrtRatioAX96, sqrtRatioBX96 = ordered(sqrtRatioAX96, sqrtRatioBX96)
	m.width.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if m.width.Sign() == 0 {
		return ErrZeroRangeWidth
	}

	switch precision {
	case Precise:
		m.numerator.Mul(amount0, sqrtRatioAX96)
		m.denominator.Mul(bigmath.Q96, m.width)
		return bigmath.MulDiv(dest, m.numerator, sqrtRatioBX96, m.denominator)
	case Imprecise:
		if err := bigmath.MulDiv(m.term, sqrtRatioAX96, sqrtRatioBX96, bigmath.Q96); err != nil {
			return err
		}
		return bigmath.MulDiv(dest, amount0, m.term, m.width)
	default:
		return fmt.Errorf("%w: unknown precision %s", uniswapv3.ErrValidation, precision)
	}
}

func (m *liquidityMath) getLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) error {
	sqrtRatioAX96, sqrtRatioBX96 = ordered(sqrtRatioAX96, sqrtRatioBX96)
	m.width.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if m.width.Sign() == 0 {
		return ErrZeroRangeWidth
	}
	return bigmath.MulDiv(dest, amount1, bigmath.Q96, m.width)
}
