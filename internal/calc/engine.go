// Package calc performs the four arithmetic operations over exact decimals.
package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

// Operations lists the known operation names in declaration order.
var Operations = []string{OpAdd, OpSubtract, OpMultiply, OpDivide}

var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrUnknownOperation = errors.New("unknown operation")
)

// IsKnownOperation reports whether op is one of the four operation names.
func IsKnownOperation(op string) bool {
	for _, known := range Operations {
		if op == known {
			return true
		}
	}
	return false
}

// ParseOperand converts a client-supplied numeric string into an exact
// decimal. Malformed input is a validation error, distinct from the domain
// errors Calculate can return.
func ParseOperand(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("missing field: %s", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number for %s: %q", field, raw)
	}
	return d, nil
}

// Calculate applies op to a and b. Divide guards against a zero divisor
// before any arithmetic.
func Calculate(a, b decimal.Decimal, op string) (decimal.Decimal, error) {
	switch op {
	case OpAdd:
		return a.Add(b), nil
	case OpSubtract:
		return a.Sub(b), nil
	case OpMultiply:
		return a.Mul(b), nil
	case OpDivide:
		if b.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return a.Div(b), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}
