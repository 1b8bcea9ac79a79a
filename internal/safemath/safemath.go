package safemath

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrOverflow       = errors.New("uint64 overflow")
	ErrUnderflow      = errors.New("uint64 underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Add returns a + b, failing instead of wrapping around.
func Add(a, b uint64) (uint64, error) {
	sum := sdkmath.NewIntFromUint64(a).Add(sdkmath.NewIntFromUint64(b))
	if !sum.IsUint64() {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum.Uint64(), nil
}

// Sub returns a - b, failing when the result would go negative.
func Sub(a, b uint64) (uint64, error) {
	diff := sdkmath.NewIntFromUint64(a).Sub(sdkmath.NewIntFromUint64(b))
	if diff.IsNegative() {
		return 0, fmt.Errorf("%w: %d - %d", ErrUnderflow, a, b)
	}
	return diff.Uint64(), nil
}

// Mul returns a * b, failing instead of wrapping around. The check runs on the
// raw product, so a*b that only fits uint64 after a later division still fails.
func Mul(a, b uint64) (uint64, error) {
	product := sdkmath.NewIntFromUint64(a).Mul(sdkmath.NewIntFromUint64(b))
	if !product.IsUint64() {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, a, b)
	}
	return product.Uint64(), nil
}

// Div returns a / b truncated toward zero.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: %d / 0", ErrDivisionByZero, a)
	}
	return a / b, nil
}

// IsArithmeticErr reports whether err came out of a checked operation in this
// package.
func IsArithmeticErr(err error) bool {
	return errors.Is(err, ErrOverflow) || errors.Is(err, ErrUnderflow) || errors.Is(err, ErrDivisionByZero)
}
