package tickmath

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick on the ladder, log base 1.0001 of 2^-128.
	MinTick int64 = -887272
	// MaxTick is the highest tick on the ladder.
	MaxTick int64 = -MinTick
)

var (
	// MinSqrtRatio is the sqrt ratio at MinTick.
	MinSqrtRatio = uint256.MustFromDecimal("4295128739").ToBig()
	// MaxSqrtRatio is the sqrt ratio at MaxTick. GetTickAtSqrtRatio accepts values strictly below it.
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342").ToBig()

	ErrTickOutOfBounds      = fmt.Errorf("%w: tick out of bounds", uniswapv3.ErrValidation)
	ErrSqrtPriceOutOfBounds = fmt.Errorf("%w: sqrt price out of bounds", uniswapv3.ErrValidation)
	ErrInvalidTickSpacing   = fmt.Errorf("%w: tick spacing must be greater than zero", uniswapv3.ErrValidation)

	minSqrtRatio = uint256.MustFromBig(MinSqrtRatio)
	maxSqrtRatio = uint256.MustFromBig(MaxSqrtRatio)
	maxUint256   = new(uint256.Int).SetAllOne()

	// Starting ratio in UQ128.128, chosen by the lowest bit of |tick|.
	ratioOdd  = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	ratioEven = uint256.MustFromHex("0x100000000000000000000000000000000")

	// ladder[i] is 1/sqrt(1.0001^(2^i)) in UQ128.128, for bit i of |tick|.
	ladder = [20]*uint256.Int{
		nil,
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}
)

// tickMath holds reusable 256-bit scratch values.
type tickMath struct {
	ratio  uint256.Int
	target uint256.Int
}

var pool = sync.Pool{
	New: func() any {
		return new(tickMath)
	},
}

// sqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96, rounded up, into tm.ratio.
// The tick must already be within bounds.
func (tm *tickMath) sqrtRatioAtTick(tick int64) *uint256.Int {
	absTick := uint64(tick)
	if tick < 0 {
		absTick = uint64(-tick)
	}

	if absTick&1 != 0 {
		tm.ratio.Set(ratioOdd)
	} else {
		tm.ratio.Set(ratioEven)
	}
	for bit := 1; bit < len(ladder); bit++ {
		if absTick&(1<<bit) != 0 {
			tm.ratio.Mul(&tm.ratio, ladder[bit])
			tm.ratio.Rsh(&tm.ratio, 128)
		}
	}

	if tick > 0 {
		tm.ratio.Div(maxUint256, &tm.ratio)
	}

	// UQ128.128 -> UQ64.96, rounding up so the ratio never undershoots the tick.
	roundUp := tm.ratio.Uint64()&0xffffffff != 0
	tm.ratio.Rsh(&tm.ratio, 32)
	if roundUp {
		tm.ratio.AddUint64(&tm.ratio, 1)
	}
	return &tm.ratio
}

// GetSqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96 into dest.
func GetSqrtRatioAtTick(dest *big.Int, tick int64) error {
	if tick < MinTick || tick > MaxTick {
		return fmt.Errorf("%w: %d", ErrTickOutOfBounds, tick)
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	tm.sqrtRatioAtTick(tick).IntoBig(&dest)
	return nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *big.Int) (int64, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	tm.target.SetFromBig(sqrtPriceX96)

	// First tick whose ratio exceeds the target; the ladder is strictly increasing.
	n := int(MaxTick - MinTick + 1)
	i := sort.Search(n, func(i int) bool {
		return tm.sqrtRatioAtTick(MinTick+int64(i)).Gt(&tm.target)
	})
	return MinTick + int64(i) - 1, nil
}

// GetNearestUsableTick rounds tick to the nearest multiple of tickSpacing,
// stepping one spacing inward when rounding leaves the tick ladder.
func GetNearestUsableTick(tick, tickSpacing int64) (int64, error) {
	if tickSpacing <= 0 {
		return 0, ErrInvalidTickSpacing
	}
	if tick < MinTick || tick > MaxTick {
		return 0, fmt.Errorf("%w: %d", ErrTickOutOfBounds, tick)
	}

	// Halves round toward positive infinity.
	rounded := int64(math.Floor(float64(tick)/float64(tickSpacing)+0.5)) * tickSpacing
	switch {
	case rounded < MinTick:
		return rounded + tickSpacing, nil
	case rounded > MaxTick:
		return rounded - tickSpacing, nil
	default:
		return rounded, nil
	}
}
