package bigmath

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRandInt generates a random big.Int up to a given number of bits.
func newRandInt(bits int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return n
}

func fromString(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("failed to set string for big.Int")
	}
	return n
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "79228162514264337593543950336", Q96.String())
	assert.Equal(t, 0, new(big.Int).Mul(Q96, Q96).Cmp(Q192))
	assert.Equal(t, 129, Q128.BitLen())
	assert.Equal(t, 256, MaxUint256.BitLen())
}

func TestMulDivRoundingUp(t *testing.T) {
	testCases := []struct {
		name        string
		x, y, d     *big.Int
		expected    *big.Int
		expectedErr error
	}{
		{"exact 10.5 rounds up", big.NewInt(7), big.NewInt(3), big.NewInt(2), big.NewInt(11), nil},
		{"no remainder", big.NewInt(6), big.NewInt(4), big.NewInt(3), big.NewInt(8), nil},
		{"zero numerator", big.NewInt(0), big.NewInt(4), big.NewInt(3), big.NewInt(0), nil},
		{"phantom overflow", Q128, Q128, Q96, new(big.Int).Lsh(big.NewInt(1), 160), nil},
		{"max result", MaxUint256, MaxUint256, MaxUint256, MaxUint256, nil},
		{"zero denominator", big.NewInt(1), big.NewInt(1), big.NewInt(0), nil, ErrDivisionByZero},
		{"negative operand", big.NewInt(-1), big.NewInt(1), big.NewInt(1), nil, ErrNegativeOperand},
		{"result overflow", MaxUint256, big.NewInt(2), big.NewInt(1), nil, ErrOverflow},
		{"max result after cancellation", MaxUint256, new(big.Int).Sub(MaxUint256, big.NewInt(1)), new(big.Int).Sub(MaxUint256, big.NewInt(1)), MaxUint256, nil},
		{"wide operand", new(big.Int).Lsh(big.NewInt(3), 300), big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), 100), new(big.Int).Lsh(big.NewInt(3), 200), nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dest := new(big.Int)
			err := MulDivRoundingUp(dest, tc.x, tc.y, tc.d)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.ErrorIs(t, err, ErrArithmetic)
				return
			}
			require.NoError(t, err)
			assert.Zero(t, tc.expected.Cmp(dest), "expected %s, got %s", tc.expected, dest)
		})
	}
}

func TestMulDiv_Invariants(t *testing.T) {
	for i := 0; i < 1000; i++ {
		x := newRandInt(200)
		y := newRandInt(200)
		d := newRandInt(160)
		if d.Sign() == 0 {
			d.SetInt64(1)
		}

		down := new(big.Int)
		errDown := MulDiv(down, x, y, d)
		up := new(big.Int)
		errUp := MulDivRoundingUp(up, x, y, d)

		product := new(big.Int).Mul(x, y)
		expected, rem := new(big.Int).QuoRem(product, d, new(big.Int))
		if expected.BitLen() > 256 {
			assert.ErrorIs(t, errDown, ErrOverflow)
			continue
		}
		require.NoError(t, errDown)
		assert.Zero(t, expected.Cmp(down))

		if rem.Sign() != 0 {
			expected.Add(expected, big.NewInt(1))
		}
		if expected.BitLen() > 256 {
			assert.ErrorIs(t, errUp, ErrOverflow)
			continue
		}
		require.NoError(t, errUp)
		assert.Zero(t, expected.Cmp(up), "x=%s y=%s d=%s", x, y, d)
	}
}

func TestDivRoundingUp(t *testing.T) {
	dest := new(big.Int)
	require.NoError(t, DivRoundingUp(dest, big.NewInt(10), big.NewInt(3)))
	assert.Equal(t, int64(4), dest.Int64())

	require.NoError(t, DivRoundingUp(dest, big.NewInt(9), big.NewInt(3)))
	assert.Equal(t, int64(3), dest.Int64())

	assert.ErrorIs(t, DivRoundingUp(dest, big.NewInt(9), big.NewInt(0)), ErrDivisionByZero)
}

func TestSqrt(t *testing.T) {
	testCases := []struct {
		name     string
		input    *big.Int
		expected *big.Int
	}{
		{"zero", big.NewInt(0), big.NewInt(0)},
		{"one", big.NewInt(1), big.NewInt(1)},
		{"two", big.NewInt(2), big.NewInt(1)},
		{"perfect square", big.NewInt(1 << 40), big.NewInt(1 << 20)},
		{"just below a square", big.NewInt(99), big.NewInt(9)},
		{"largest float-exact value", big.NewInt(1<<53 - 2), big.NewInt(94906265)},
		{"2^53", big.NewInt(1 << 53), big.NewInt(94906265)},
		{"Q192", Q192, Q96},
		{"Q192 - 1", new(big.Int).Sub(Q192, big.NewInt(1)), new(big.Int).Sub(Q96, big.NewInt(1))},
		{"max uint256", MaxUint256, fromString("340282366920938463463374607431768211455")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dest := new(big.Int)
			require.NoError(t, Sqrt(dest, tc.input))
			assert.Zero(t, tc.expected.Cmp(dest), "expected %s, got %s", tc.expected, dest)
		})
	}

	t.Run("negative", func(t *testing.T) {
		err := Sqrt(new(big.Int), big.NewInt(-4))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNegativeSqrt)
		assert.ErrorIs(t, err, ErrArithmetic)
	})
}

func TestSqrt_MatchesStdlib(t *testing.T) {
	for i := 0; i < 1000; i++ {
		bits := 1 + i%300
		x := newRandInt(bits)
		got := new(big.Int)
		require.NoError(t, Sqrt(got, x))
		assert.Zero(t, new(big.Int).Sqrt(x).Cmp(got), "sqrt(%s)", x)
	}
}
