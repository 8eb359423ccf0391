package bigmath

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// Q96 is the UQ64.96 fixed-point number representing 1.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q128 is 2^128.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)
	// Q192 is 2^192, the scale of a squared Q96 value.
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	// MaxUint128 is 2^128 - 1.
	MaxUint128 = new(big.Int).Sub(Q128, big.NewInt(1))
	// MaxUint256 is 2^256 - 1.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// ErrArithmetic is the root of every error returned by this package.
	ErrArithmetic = errors.New("arithmetic error")

	ErrDivisionByZero  = fmt.Errorf("%w: division by zero", ErrArithmetic)
	ErrNegativeOperand = fmt.Errorf("%w: negative operand", ErrArithmetic)
	ErrNegativeSqrt    = fmt.Errorf("%w: square root of negative value", ErrArithmetic)
	ErrOverflow        = fmt.Errorf("%w: result exceeds 256 bits", ErrArithmetic)

	one = big.NewInt(1)
	two = big.NewInt(2)

	// maxSafeInteger is the largest integer a float64 represents exactly.
	maxSafeInteger = big.NewInt(1<<53 - 1)
)

// scratch holds reusable integers for a single call.
type scratch struct {
	x, y, d   uint256.Int
	res, rem  uint256.Int
	product   *big.Int
	remainder *big.Int
}

var pool = sync.Pool{
	New: func() any {
		return &scratch{
			product:   new(big.Int),
			remainder: new(big.Int),
		}
	},
}

func checkOperands(operands ...*big.Int) error {
	for _, v := range operands {
		if v.Sign() < 0 {
			return ErrNegativeOperand
		}
	}
	return nil
}

// load copies v into dst and reports whether it fits in 256 bits.
func load(dst *uint256.Int, v *big.Int) bool {
	return !dst.SetFromBig(v)
}

func checkResult(dest *big.Int) error {
	if dest.BitLen() > 256 {
		return ErrOverflow
	}
	return nil
}

// MulDiv writes floor(x * y / denominator) into dest.
// The product is exact; only the result must fit in 256 bits.
func MulDiv(dest, x, y, denominator *big.Int) error {
	_, err := mulDiv(dest, x, y, denominator)
	return err
}

// MulDivRoundingUp writes ceil(x * y / denominator) into dest.
func MulDivRoundingUp(dest, x, y, denominator *big.Int) error {
	inexact, err := mulDiv(dest, x, y, denominator)
	if err != nil {
		return err
	}
	if inexact {
		dest.Add(dest, one)
		return checkResult(dest)
	}
	return nil
}

// mulDiv computes the floored quotient and reports whether a remainder was dropped.
func mulDiv(dest, x, y, denominator *big.Int) (bool, error) {
	if err := checkOperands(x, y, denominator); err != nil {
		return false, err
	}
	if denominator.Sign() == 0 {
		return false, ErrDivisionByZero
	}

	s := pool.Get().(*scratch)
	defer pool.Put(s)

	if load(&s.x, x) && load(&s.y, y) && load(&s.d, denominator) {
		if _, overflow := s.res.MulDivOverflow(&s.x, &s.y, &s.d); overflow {
			return false, ErrOverflow
		}
		s.rem.MulMod(&s.x, &s.y, &s.d)
		s.res.IntoBig(&dest)
		return !s.rem.IsZero(), nil
	}

	s.product.Mul(x, y)
	dest.QuoRem(s.product, denominator, s.remainder)
	if err := checkResult(dest); err != nil {
		return false, err
	}
	return s.remainder.Sign() != 0, nil
}

// DivRoundingUp writes ceil(x / denominator) into dest.
func DivRoundingUp(dest, x, denominator *big.Int) error {
	if err := checkOperands(x, denominator); err != nil {
		return err
	}
	if denominator.Sign() == 0 {
		return ErrDivisionByZero
	}

	s := pool.Get().(*scratch)
	defer pool.Put(s)

	dest.QuoRem(x, denominator, s.remainder)
	if s.remainder.Sign() != 0 {
		dest.Add(dest, one)
	}
	return checkResult(dest)
}

// Sqrt writes floor(sqrt(x)) into dest.
//
// Values below 2^53 go through a float approximation that is then corrected
// to the exact floor. Larger values use Newton's iteration from z = x.
func Sqrt(dest, x *big.Int) error {
	if x.Sign() < 0 {
		return ErrNegativeSqrt
	}

	if x.Cmp(maxSafeInteger) < 0 {
		v := x.Uint64()
		z := uint64(math.Sqrt(float64(v)))
		for z*z > v {
			z--
		}
		for (z+1)*(z+1) <= v {
			z++
		}
		dest.SetUint64(z)
		return nil
	}

	z := new(big.Int).Set(x)
	y := new(big.Int).Quo(x, two)
	y.Add(y, one)

	t := new(big.Int)
	for y.Cmp(z) < 0 {
		z.Set(y)
		t.Quo(x, y)
		y.Add(t, y)
		y.Quo(y, two)
	}

	dest.Set(z)
	return nil
}
