package pricemath

import (
	"crypto/rand"
	"math"
	"math/big"
	"testing"

	sdkutils "github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/defistate/defistate-lp-go/bigmath"
	"github.com/defistate/defistate-lp-go/protocols/tokenregistry"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = tokenregistry.Token{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}
	weth = tokenregistry.Token{Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18}
)

func newRandInt(bits int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return n
}

func TestFormatSqrtRatioX96(t *testing.T) {
	testCases := []struct {
		name      string
		sqrtPrice *big.Int
		decimals0 uint8
		decimals1 uint8
		expected  float64
	}{
		{"parity", bigmath.Q96, 18, 18, 1},
		{"token1 has more decimals", bigmath.Q96, 6, 18, 1e-12},
		{"token1 has fewer decimals", bigmath.Q96, 18, 6, 1e12},
		{"four", new(big.Int).Lsh(bigmath.Q96, 1), 18, 18, 4},
		{"quarter", new(big.Int).Rsh(bigmath.Q96, 1), 18, 18, 0.25},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := FormatSqrtRatioX96(tc.sqrtPrice, tc.decimals0, tc.decimals1)
			require.NoError(t, err)
			assert.InEpsilon(t, tc.expected, price, 1e-12)
		})
	}

	t.Run("rejects zero", func(t *testing.T) {
		_, err := FormatSqrtRatioX96(big.NewInt(0), 18, 18)
		assert.ErrorIs(t, err, ErrInvalidSqrtPrice)
		assert.ErrorIs(t, err, uniswapv3.ErrValidation)
	})
}

func TestEncodeSqrtRatioX96(t *testing.T) {
	testCases := []struct {
		name     string
		price    decimal.Decimal
		expected *big.Int
	}{
		{"one", decimal.NewFromInt(1), bigmath.Q96},
		{"four", decimal.NewFromInt(4), new(big.Int).Lsh(bigmath.Q96, 1)},
		{"quarter", decimal.RequireFromString("0.25"), new(big.Int).Rsh(bigmath.Q96, 1)},
		{"zero", decimal.Zero, big.NewInt(0)},
		{"two floors", decimal.NewFromInt(2), new(big.Int).Sqrt(new(big.Int).Lsh(big.NewInt(2), 192))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeSqrtRatioX96(tc.price)
			require.NoError(t, err)
			assert.Zero(t, tc.expected.Cmp(got), "expected %s, got %s", tc.expected, got)
		})
	}

	t.Run("negative", func(t *testing.T) {
		_, err := EncodeSqrtRatioX96(decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.ErrorIs(t, err, bigmath.ErrArithmetic)
	})
}

func TestEncodeSqrtPriceX96(t *testing.T) {
	t.Run("parity", func(t *testing.T) {
		got, err := EncodeSqrtPriceX96(big.NewInt(1), big.NewInt(1))
		require.NoError(t, err)
		assert.Zero(t, bigmath.Q96.Cmp(got))
	})

	t.Run("hundred to one", func(t *testing.T) {
		got, err := EncodeSqrtPriceX96(big.NewInt(100), big.NewInt(1))
		require.NoError(t, err)
		assert.Zero(t, new(big.Int).Mul(bigmath.Q96, big.NewInt(10)).Cmp(got))
	})

	t.Run("zero amount0", func(t *testing.T) {
		_, err := EncodeSqrtPriceX96(big.NewInt(1), big.NewInt(0))
		assert.ErrorIs(t, err, bigmath.ErrDivisionByZero)
	})

	t.Run("matches sdk", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			amount1 := newRandInt(128)
			amount0 := newRandInt(128)
			if amount0.Sign() == 0 {
				amount0.SetInt64(1)
			}

			got, err := EncodeSqrtPriceX96(amount1, amount0)
			require.NoError(t, err)
			expected := sdkutils.EncodeSqrtRatioX96(amount1, amount0)
			assert.Zero(t, expected.Cmp(got), "amount1=%s amount0=%s", amount1, amount0)
		}
	})
}

func TestGetTickFromPrice(t *testing.T) {
	testCases := []struct {
		name      string
		price     float64
		decimals0 uint8
		decimals1 uint8
		sorted    bool
		spacing   int64
		expected  int64
	}{
		{"parity", 1, 18, 18, true, 0, 0},
		{"hundred ticks", math.Pow(1.0001, 100), 18, 18, true, 0, 100},
		{"negative ticks", math.Pow(1.0001, -2500), 18, 18, true, 0, -2500},
		{"two", 2, 18, 18, true, 0, 6932},
		{"two inverted", 2, 18, 18, false, 0, -6932},
		{"two snapped", 2, 18, 18, true, 60, 6960},
		{"two inverted snapped", 2, 18, 18, false, 60, -6960},
		{"decimal parity", 1e-12, 6, 18, true, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tick, err := GetTickFromPrice(tc.price, tc.decimals0, tc.decimals1, tc.sorted, tc.spacing)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tick)
		})
	}

	t.Run("agrees with the exact tick of the encoded price", func(t *testing.T) {
		// 1800 USDC per WETH; USDC is token0, so the pair is quoted unsorted.
		tick, err := GetTickFromPrice(1800, usdc.Decimals, weth.Decimals, false, 0)
		require.NoError(t, err)

		sqrtPriceX96, err := SqrtPriceX96FromPrice(1800, usdc.Decimals, weth.Decimals, false)
		require.NoError(t, err)
		exact, err := tickmath.GetTickAtSqrtRatio(sqrtPriceX96)
		require.NoError(t, err)

		assert.InDelta(t, exact, tick, 1)
		assert.InDelta(t, 201364, tick, 2)
	})

	invalid := []float64{0, -1, math.NaN(), math.Inf(1)}
	for _, price := range invalid {
		_, err := GetTickFromPrice(price, 18, 18, true, 0)
		assert.ErrorIs(t, err, ErrInvalidPrice, "price %v", price)
	}

	t.Run("out of range", func(t *testing.T) {
		_, err := GetTickFromPrice(1e300, 0, 0, true, 0)
		assert.ErrorIs(t, err, tickmath.ErrTickOutOfBounds)
	})

	t.Run("negative spacing", func(t *testing.T) {
		_, err := GetTickFromPrice(1, 18, 18, true, -1)
		assert.ErrorIs(t, err, tickmath.ErrInvalidTickSpacing)
	})
}

func TestPriceTickRoundTrip(t *testing.T) {
	for i := 0; i < 300; i++ {
		offset, err := rand.Int(rand.Reader, big.NewInt(800001))
		require.NoError(t, err)
		tick := offset.Int64() - 400000

		price, err := GetPriceFromTick(tick, 18, 18, true)
		require.NoError(t, err)
		recovered, err := GetTickFromPrice(price, 18, 18, true, 0)
		require.NoError(t, err)
		assert.Equal(t, tick, recovered, "tick %d -> price %v", tick, price)

		inverted, err := GetPriceFromTick(tick, 18, 18, false)
		require.NoError(t, err)
		recovered, err = GetTickFromPrice(inverted, 18, 18, false, 0)
		require.NoError(t, err)
		assert.Equal(t, tick, recovered, "inverted tick %d -> price %v", tick, inverted)
	}
}

func TestSqrtPriceX96FromPrice(t *testing.T) {
	sqrtPriceX96, err := SqrtPriceX96FromPrice(1800, usdc.Decimals, weth.Decimals, false)
	require.NoError(t, err)

	price, err := FormatSqrtRatioX96(sqrtPriceX96, usdc.Decimals, weth.Decimals)
	require.NoError(t, err)
	assert.InEpsilon(t, 1.0/1800, price, 1e-12)
}

func TestFormatSqrtPriceX96(t *testing.T) {
	a := tokenregistry.Token{Address: common.HexToAddress("0x01"), Symbol: "A", Decimals: 18}
	b := tokenregistry.Token{Address: common.HexToAddress("0x02"), Symbol: "B", Decimals: 18}
	four := new(big.Int).Lsh(bigmath.Q96, 1)

	t.Run("base is token0", func(t *testing.T) {
		price, err := FormatSqrtPriceX96(four, a, b)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(4)), "got %s", price)
	})

	t.Run("base is token1", func(t *testing.T) {
		price, err := FormatSqrtPriceX96(four, b, a)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("0.25")), "got %s", price)
	})

	t.Run("weth in usdc rounds up at six decimals", func(t *testing.T) {
		sqrtPriceX96, err := SqrtPriceX96FromPrice(1800, usdc.Decimals, weth.Decimals, false)
		require.NoError(t, err)

		price, err := FormatSqrtPriceX96(sqrtPriceX96, weth, usdc)
		require.NoError(t, err)
		assert.LessOrEqual(t, price.Exponent(), int32(0))
		assert.GreaterOrEqual(t, price.Exponent(), int32(-6))
		f, _ := price.Float64()
		assert.InEpsilon(t, 1800, f, 1e-6)
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := FormatSqrtPriceX96(big.NewInt(0), a, b)
		assert.ErrorIs(t, err, ErrInvalidSqrtPrice)
	})
}
