package calc

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestCalculate_ExactDecimalAddition(t *testing.T) {
	t.Parallel()

	// The classic binary-float trap: 0.1 + 0.2 must be exactly 0.3.
	got, err := Calculate(mustDecimal(t, "0.1"), mustDecimal(t, "0.2"), OpAdd)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got.String() != "0.3" {
		t.Fatalf("0.1 + 0.2 = %s, want 0.3", got)
	}
}

func TestCalculate_AdditionCommutes(t *testing.T) {
	t.Parallel()

	a := mustDecimal(t, "123.456")
	b := mustDecimal(t, "-0.001")
	ab, err := Calculate(a, b, OpAdd)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	ba, err := Calculate(b, a, OpAdd)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !ab.Equal(ba) {
		t.Fatalf("a+b = %s, b+a = %s", ab, ba)
	}
}

func TestCalculate_SubtractZeroIsIdentity(t *testing.T) {
	t.Parallel()

	a := mustDecimal(t, "42.0001")
	got, err := Calculate(a, decimal.Zero, OpSubtract)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !got.Equal(a) {
		t.Fatalf("a - 0 = %s, want %s", got, a)
	}
}

func TestCalculate_DivisionByZero(t *testing.T) {
	t.Parallel()

	for _, x := range []string{"0", "1", "-3.5", "999999999"} {
		_, err := Calculate(mustDecimal(t, x), decimal.Zero, OpDivide)
		if !errors.Is(err, ErrDivisionByZero) {
			t.Fatalf("Calculate(%s, 0, divide) = %v, want ErrDivisionByZero", x, err)
		}
	}
}

func TestCalculate_Division(t *testing.T) {
	t.Parallel()

	got, err := Calculate(mustDecimal(t, "1.5"), mustDecimal(t, "0.5"), OpDivide)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got.String() != "3" {
		t.Fatalf("1.5 / 0.5 = %s, want 3", got)
	}
}

func TestCalculate_Multiply(t *testing.T) {
	t.Parallel()

	got, err := Calculate(mustDecimal(t, "0.1"), mustDecimal(t, "0.1"), OpMultiply)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got.String() != "0.01" {
		t.Fatalf("0.1 * 0.1 = %s, want 0.01", got)
	}
}

func TestCalculate_UnknownOperation(t *testing.T) {
	t.Parallel()

	_, err := Calculate(decimal.Zero, decimal.Zero, "modulo")
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestParseOperand(t *testing.T) {
	t.Parallel()

	if _, err := ParseOperand("operand1", ""); err == nil {
		t.Fatalf("empty operand accepted")
	}
	if _, err := ParseOperand("operand1", "abc"); err == nil {
		t.Fatalf("malformed operand accepted")
	}
	d, err := ParseOperand("operand2", "-12.50")
	if err != nil {
		t.Fatalf("ParseOperand: %v", err)
	}
	if d.String() != "-12.5" {
		t.Fatalf("parsed = %s", d)
	}
}
