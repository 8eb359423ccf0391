package planner

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/defistate/defistate-lp-go/bigmath"
	"github.com/defistate/defistate-lp-go/protocols/tokenregistry"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/liquiditymath"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/pricemath"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/ethereum/go-ethereum/common"
)

// MainnetWETH is the wrapped native token used when no other is configured.
var MainnetWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

var (
	ErrIdenticalTokens   = fmt.Errorf("%w: base and quote tokens are identical", uniswapv3.ErrValidation)
	ErrNoWrappedNative   = fmt.Errorf("%w: neither token is the wrapped native token", uniswapv3.ErrValidation)
	ErrInvalidAssumption = fmt.Errorf("%w: invalid assumption", uniswapv3.ErrValidation)
	ErrUnknownDuration   = fmt.Errorf("%w: unknown duration", uniswapv3.ErrValidation)
	ErrInvalidRange      = fmt.Errorf("%w: computed range is empty", bigmath.ErrArithmetic)
)

// Assumption is the caller's directional view on the base token.
type Assumption uint8

const (
	Bullish Assumption = iota + 1
	Bearish
	Neutral
)

var assumptionNames = map[Assumption]string{
	Bullish: "bullish",
	Bearish: "bearish",
	Neutral: "neutral",
}

func (a Assumption) String() string {
	if name, ok := assumptionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Assumption(%d)", uint8(a))
}

// ParseAssumption accepts the case-insensitive name of an assumption.
func ParseAssumption(s string) (Assumption, error) {
	for a, name := range assumptionNames {
		if strings.EqualFold(s, name) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAssumption, s)
}

// Duration is how long the position is expected to be held.
type Duration uint8

const (
	Day Duration = iota + 1
	Week
	Month
	Year
)

var durationNames = map[Duration]string{
	Day:   "day",
	Week:  "week",
	Month: "month",
	Year:  "year",
}

// ScalingFactors widen the range around the target price; longer holds get wider ranges.
var ScalingFactors = map[Duration]float64{
	Day:   1.065,
	Week:  1.175,
	Month: 1.4,
	Year:  3.25,
}

func (d Duration) String() string {
	if name, ok := durationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Duration(%d)", uint8(d))
}

// ScalingFactor returns the range multiplier of the duration.
func (d Duration) ScalingFactor() (float64, error) {
	r, ok := ScalingFactors[d]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDuration, d)
	}
	return r, nil
}

// ParseDuration accepts the case-insensitive name of a duration.
func ParseDuration(s string) (Duration, error) {
	for d, name := range durationNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDuration, s)
}

// LiquidityAmounts is the liquidity a deposit mints and the amounts it consumes.
type LiquidityAmounts struct {
	Liquidity *big.Int `json:"liquidity"`
	Amount0   *big.Int `json:"amount0"`
	Amount1   *big.Int `json:"amount1"`
}

// ComputePositionRange returns the tick range for a new position in the pool
// of base and quote, using MainnetWETH as the wrapped native token.
func ComputePositionRange(
	assumption Assumption,
	duration Duration,
	base, quote tokenregistry.Token,
	fee uniswapv3.FeeTier,
	targetSqrtPriceX96 *big.Int,
) (uniswapv3.PositionRange, error) {
	return computePositionRange(MainnetWETH, assumption, duration, base, quote, fee, targetSqrtPriceX96)
}

func computePositionRange(
	wrappedNative common.Address,
	assumption Assumption,
	duration Duration,
	base, quote tokenregistry.Token,
	fee uniswapv3.FeeTier,
	targetSqrtPriceX96 *big.Int,
) (uniswapv3.PositionRange, error) {
	var rng uniswapv3.PositionRange

	if tokenregistry.IsSameAddress(base, quote) {
		return rng, ErrIdenticalTokens
	}
	if base.Address != wrappedNative && quote.Address != wrappedNative {
		return rng, fmt.Errorf("%w: %s", ErrNoWrappedNative, wrappedNative.Hex())
	}

	token0, token1, sorted := tokenregistry.Sort(base, quote)

	tickSpacing, err := fee.TickSpacing()
	if err != nil {
		return rng, err
	}
	r, err := duration.ScalingFactor()
	if err != nil {
		return rng, err
	}

	priceTarget, err := pricemath.FormatSqrtRatioX96(targetSqrtPriceX96, token0.Decimals, token1.Decimals)
	if err != nil {
		return rng, err
	}
	if !sorted {
		priceTarget = 1 / priceTarget
	}

	tickTarget, err := tickmath.GetTickAtSqrtRatio(targetSqrtPriceX96)
	if err != nil {
		return rng, err
	}

	var priceLower, priceUpper float64
	switch assumption {
	case Bullish:
		priceLower, priceUpper = priceTarget, priceTarget*(r*r)
	case Bearish:
		priceLower, priceUpper = priceTarget/(r*r), priceTarget
	case Neutral:
		priceLower, priceUpper = priceTarget/r, priceTarget*r
	default:
		return rng, fmt.Errorf("%w: %s", ErrInvalidAssumption, assumption)
	}

	tickLower, err := pricemath.GetTickFromPrice(priceLower, token0.Decimals, token1.Decimals, sorted, tickSpacing)
	if err != nil {
		return rng, err
	}
	tickUpper, err := pricemath.GetTickFromPrice(priceUpper, token0.Decimals, token1.Decimals, sorted, tickSpacing)
	if err != nil {
		return rng, err
	}
	if tickLower > tickUpper {
		tickLower, tickUpper = tickUpper, tickLower
	}

	// Snapping can carry a bound across the target; pull it back so a
	// directional range stays on its side of the current price.
	switch assumption {
	case Bullish:
		if sorted && tickLower < tickTarget {
			tickLower += tickSpacing
		}
		if !sorted && tickUpper > tickTarget {
			tickUpper -= tickSpacing
		}
	case Bearish:
		if sorted && tickUpper > tickTarget {
			tickUpper -= tickSpacing
		}
		if !sorted && tickLower < tickTarget {
			tickLower += tickSpacing
		}
	}

	rng = uniswapv3.PositionRange{Lower: tickLower, Upper: tickUpper}
	if err := rng.Validate(tickSpacing); err != nil {
		return uniswapv3.PositionRange{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return rng, nil
}

// GetLiquidityAmounts returns the largest liquidity the desired amounts can
// fund in rng at the current price, and the amounts that liquidity consumes.
// Consumed amounts never exceed the desired ones.
func GetLiquidityAmounts(sqrtPriceX96 *big.Int, rng uniswapv3.PositionRange, amount0Desired, amount1Desired *big.Int) (LiquidityAmounts, error) {
	sqrtRatioAX96 := new(big.Int)
	if err := tickmath.GetSqrtRatioAtTick(sqrtRatioAX96, rng.Lower); err != nil {
		return LiquidityAmounts{}, err
	}
	sqrtRatioBX96 := new(big.Int)
	if err := tickmath.GetSqrtRatioAtTick(sqrtRatioBX96, rng.Upper); err != nil {
		return LiquidityAmounts{}, err
	}

	amounts := LiquidityAmounts{
		Liquidity: new(big.Int),
		Amount0:   new(big.Int),
		Amount1:   new(big.Int),
	}
	if err := liquiditymath.GetLiquidityForAmounts(
		amounts.Liquidity,
		sqrtPriceX96,
		sqrtRatioAX96,
		sqrtRatioBX96,
		amount0Desired,
		amount1Desired,
		liquiditymath.Precise,
	); err != nil {
		return LiquidityAmounts{}, err
	}
	if err := liquiditymath.GetAmountsForLiquidity(
		amounts.Amount0,
		amounts.Amount1,
		sqrtPriceX96,
		sqrtRatioAX96,
		sqrtRatioBX96,
		amounts.Liquidity,
	); err != nil {
		return LiquidityAmounts{}, err
	}
	return amounts, nil
}
