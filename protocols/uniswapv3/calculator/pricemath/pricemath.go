package pricemath

import (
	"fmt"
	"math"
	"math/big"

	"github.com/defistate/defistate-lp-go/bigmath"
	"github.com/defistate/defistate-lp-go/protocols/tokenregistry"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/shopspring/decimal"
)

// floatPrec is the mantissa precision used for decimal square roots.
const floatPrec = 256

var (
	ErrInvalidPrice     = fmt.Errorf("%w: price must be positive and finite", uniswapv3.ErrValidation)
	ErrInvalidSqrtPrice = fmt.Errorf("%w: sqrt price must be greater than zero", uniswapv3.ErrValidation)
	ErrNegativePrice    = fmt.Errorf("%w: cannot encode a negative price", bigmath.ErrArithmetic)

	q96Float = new(big.Float).SetPrec(floatPrec).SetInt(bigmath.Q96)

	// logSqrtBase is ln(sqrt(1.0001)), the tick step of a sqrt price.
	logSqrtBase = math.Log(math.Sqrt(1.0001))
)

// FormatSqrtRatioX96 converts a Q96 sqrt price into the human-scale price of
// token0 denominated in token1.
func FormatSqrtRatioX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (float64, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0, ErrInvalidSqrtPrice
	}

	ratio := new(big.Float).SetPrec(floatPrec).SetInt(sqrtPriceX96)
	ratio.Quo(ratio, q96Float)
	ratio.Mul(ratio, ratio)

	price, err := decimal.NewFromString(ratio.Text('e', 40))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSqrtPrice, err)
	}
	price = price.Shift(int32(decimals0) - int32(decimals1))

	f, _ := price.Float64()
	return f, nil
}

// EncodeSqrtRatioX96 returns floor(sqrt(price) * 2^96) for a fractional price.
func EncodeSqrtRatioX96(price decimal.Decimal) (*big.Int, error) {
	if price.Sign() < 0 {
		return nil, ErrNegativePrice
	}

	root := new(big.Float).SetPrec(floatPrec).SetRat(price.Rat())
	root.Sqrt(root)
	root.Mul(root, q96Float)

	// Truncation is the floor for non-negative values.
	sqrtPriceX96, _ := root.Int(nil)
	return sqrtPriceX96, nil
}

// EncodeSqrtPriceX96 returns sqrt((amount1 << 192) / amount0), the sqrt price of a
// raw reserve ratio.
func EncodeSqrtPriceX96(amount1, amount0 *big.Int) (*big.Int, error) {
	if amount1.Sign() < 0 || amount0.Sign() < 0 {
		return nil, bigmath.ErrNegativeOperand
	}
	if amount0.Sign() == 0 {
		return nil, bigmath.ErrDivisionByZero
	}

	ratioX192 := new(big.Int).Lsh(amount1, 192)
	ratioX192.Quo(ratioX192, amount0)

	sqrtPriceX96 := new(big.Int)
	if err := bigmath.Sqrt(sqrtPriceX96, ratioX192); err != nil {
		return nil, err
	}
	return sqrtPriceX96, nil
}

// encodeExpandedRatio encodes both sides of a human price as Q96 sqrt values of
// their decimal-expanded amounts. When sorted is false the price is quoted in
// token0 per token1 and is moved into the denominator.
func encodeExpandedRatio(price float64, decimals0, decimals1 uint8, sorted bool) (numerator, denominator *big.Int, err error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	p := decimal.NewFromFloat(price)
	var num, den decimal.Decimal
	if sorted {
		num = p.Shift(int32(decimals1))
		den = decimal.New(1, int32(decimals0))
	} else {
		num = decimal.New(1, int32(decimals1))
		den = p.Shift(int32(decimals0))
	}

	if numerator, err = EncodeSqrtRatioX96(num); err != nil {
		return nil, nil, err
	}
	if denominator, err = EncodeSqrtRatioX96(den); err != nil {
		return nil, nil, err
	}
	if numerator.Sign() == 0 || denominator.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: %v is not representable at Q96 resolution", ErrInvalidPrice, price)
	}
	return numerator, denominator, nil
}

// SqrtPriceX96FromPrice encodes a human-scale price as a Q96 sqrt price.
func SqrtPriceX96FromPrice(price float64, decimals0, decimals1 uint8, sorted bool) (*big.Int, error) {
	numerator, denominator, err := encodeExpandedRatio(price, decimals0, decimals1, sorted)
	if err != nil {
		return nil, err
	}

	sqrtPriceX96 := new(big.Int)
	if err := bigmath.MulDiv(sqrtPriceX96, numerator, bigmath.Q96, denominator); err != nil {
		return nil, err
	}
	return sqrtPriceX96, nil
}

// GetTickFromPrice returns the tick closest to a human-scale price. A positive
// tickSpacing snaps the result to the nearest usable tick; zero returns the
// exact tick.
func GetTickFromPrice(price float64, decimals0, decimals1 uint8, sorted bool, tickSpacing int64) (int64, error) {
	if tickSpacing < 0 {
		return 0, tickmath.ErrInvalidTickSpacing
	}

	numerator, denominator, err := encodeExpandedRatio(price, decimals0, decimals1, sorted)
	if err != nil {
		return 0, err
	}

	ratio := new(big.Float).SetPrec(floatPrec).SetInt(numerator)
	ratio.Quo(ratio, new(big.Float).SetPrec(floatPrec).SetInt(denominator))
	sqrtRatio, _ := ratio.Float64()

	tick := math.Floor(math.Log(sqrtRatio)/logSqrtBase + 0.5)
	if tick < float64(tickmath.MinTick) || tick > float64(tickmath.MaxTick) {
		return 0, fmt.Errorf("%w: price %v maps to tick %v", tickmath.ErrTickOutOfBounds, price, tick)
	}

	if tickSpacing == 0 {
		return int64(tick), nil
	}
	return tickmath.GetNearestUsableTick(int64(tick), tickSpacing)
}

// GetPriceFromTick returns the human-scale price at a tick, quoted in token1 per
// token0 when sorted and inverted otherwise.
func GetPriceFromTick(tick int64, decimals0, decimals1 uint8, sorted bool) (float64, error) {
	sqrtPriceX96 := new(big.Int)
	if err := tickmath.GetSqrtRatioAtTick(sqrtPriceX96, tick); err != nil {
		return 0, err
	}

	price, err := FormatSqrtRatioX96(sqrtPriceX96, decimals0, decimals1)
	if err != nil {
		return 0, err
	}
	if !sorted {
		return 1 / price, nil
	}
	return price, nil
}

// FormatSqrtPriceX96 returns the exact price of one whole base token in quote
// units, rounded up at the quote token's precision.
func FormatSqrtPriceX96(sqrtPriceX96 *big.Int, base, quote tokenregistry.Token) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero, ErrInvalidSqrtPrice
	}

	baseAmount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(base.Decimals)), nil)
	ratioX192 := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)

	quoteAmount := new(big.Int)
	var err error
	if base.SortsBefore(quote) {
		err = bigmath.MulDivRoundingUp(quoteAmount, ratioX192, baseAmount, bigmath.Q192)
	} else {
		err = bigmath.MulDivRoundingUp(quoteAmount, bigmath.Q192, baseAmount, ratioX192)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(quoteAmount, -int32(quote.Decimals)), nil
}
