package precision

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of significant digits used when no
// precision is configured.
const DefaultPrecision int32 = 60

// Operations accepted by Calculate. Symbol aliases are normalized in
// normalizeOperation.
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
	OpPower    = "power"
	OpSqrt     = "sqrt"
	OpAbs      = "abs"
	OpNegate   = "negate"
)

// powerExponentLimit guards the power operation against results whose
// digit count cannot be represented in memory.
const powerExponentLimit = 10_000

// Engine performs arbitrary-precision decimal arithmetic. Every result is
// quantized to the configured number of significant digits with
// round-half-to-even before it is returned. The engine holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	precision int32
}

// NewEngine returns an engine quantizing to the given significant digits.
// A non-positive precision falls back to DefaultPrecision.
func NewEngine(precision int32) *Engine {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Engine{precision: precision}
}

// NewEngineFromEnv builds an engine from CALC_PRECISION.
func NewEngineFromEnv() *Engine {
	return NewEngine(GetConfig().Precision)
}

// Precision returns the active significant-digit precision.
func (e *Engine) Precision() int32 {
	return e.precision
}

// WithPrecision returns a derived engine with a different precision,
// leaving the receiver untouched.
func (e *Engine) WithPrecision(precision int32) *Engine {
	return NewEngine(precision)
}

// Calculate parses the operands as decimal literals and applies the
// operation. An empty operand2 counts as absent; unary operations ignore
// it. All failures are *Error values.
func (e *Engine) Calculate(operation, operand1, operand2 string) (decimal.Decimal, error) {
	op, ok := normalizeOperation(operation)
	if !ok {
		return decimal.Zero, newError(KindUnsupportedOperation, operation, "unsupported operation %q", operation)
	}

	num1, err := parseOperand(op, "operand1", operand1)
	if err != nil {
		return decimal.Zero, err
	}

	var num2 decimal.Decimal
	hasNum2 := strings.TrimSpace(operand2) != ""
	if hasNum2 {
		num2, err = parseOperand(op, "operand2", operand2)
		if err != nil {
			return decimal.Zero, err
		}
	}

	if requiresTwoOperands(op) && !hasNum2 {
		return decimal.Zero, newError(KindMissingOperand, op, "%s requires two operands", op)
	}

	result, err := e.apply(op, num1, num2)
	if err != nil {
		return decimal.Zero, err
	}
	return e.Quantize(result), nil
}

func (e *Engine) apply(op string, num1, num2 decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpAdd:
		return num1.Add(num2), nil
	case OpSubtract:
		return num1.Sub(num2), nil
	case OpMultiply:
		return num1.Mul(num2), nil
	case OpDivide:
		return e.divide(num1, num2)
	case OpPower:
		return e.power(num1, num2)
	case OpSqrt:
		return e.sqrt(num1)
	case OpAbs:
		return num1.Abs(), nil
	case OpNegate:
		return num1.Neg(), nil
	}
	return decimal.Zero, newError(KindUnsupportedOperation, op, "unsupported operation %q", op)
}

// divide checks for an exact decimal zero divisor; no epsilon tolerance.
func (e *Engine) divide(num1, num2 decimal.Decimal) (decimal.Decimal, error) {
	if num2.IsZero() {
		return decimal.Zero, newError(KindDivisionByZero, OpDivide, "division by zero: divisor is exactly zero")
	}

	// Decimal places needed so the quotient carries the full significant
	// precision plus guard digits before final quantization.
	places := e.precision - (magnitude(num1) - magnitude(num2)) + 4
	if places < 0 {
		places = 0
	}
	return num1.DivRound(num2, places), nil
}

func (e *Engine) power(base, exponent decimal.Decimal) (decimal.Decimal, error) {
	if exponent.Abs().GreaterThan(decimal.NewFromInt(powerExponentLimit)) {
		return decimal.Zero, newError(KindOverflow, OpPower, "overflow: exponent %s exceeds maximum magnitude %d", exponent, powerExponentLimit)
	}
	if base.IsNegative() && !exponent.IsInteger() {
		return decimal.Zero, newError(KindNegativeRadicand, OpPower, "cannot raise negative base %s to non-integer exponent %s", base, exponent)
	}

	result, err := base.PowWithPrecision(exponent, e.precision+4)
	if err != nil {
		return decimal.Zero, newError(KindOverflow, OpPower, "overflow: %s", err)
	}
	return result, nil
}

// sqrt goes through big.Float at guard precision since decimal has no
// native square root.
func (e *Engine) sqrt(num decimal.Decimal) (decimal.Decimal, error) {
	if num.IsNegative() {
		return decimal.Zero, newError(KindNegativeRadicand, OpSqrt, "cannot calculate square root of negative number %s", num)
	}
	if num.IsZero() {
		return decimal.Zero, nil
	}

	bits := uint(float64(e.precision+8)*3.33) + 16
	f, _, err := big.ParseFloat(num.String(), 10, bits, big.ToNearestEven)
	if err != nil {
		return decimal.Zero, newError(KindInvalidLiteral, OpSqrt, "invalid decimal literal %q: %s", num.String(), err)
	}

	root := new(big.Float).SetPrec(bits).Sqrt(f)
	result, err := decimal.NewFromString(root.Text('e', int(e.precision+6)))
	if err != nil {
		return decimal.Zero, newError(KindOverflow, OpSqrt, "overflow: %s", err)
	}
	return result, nil
}

// Quantize rounds d to the engine's significant-digit precision using
// round-half-to-even. Values already within precision pass through
// unchanged.
func (e *Engine) Quantize(d decimal.Decimal) decimal.Decimal {
	return quantizeSignificant(d, e.precision)
}

func quantizeSignificant(d decimal.Decimal, precision int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	if int32(d.NumDigits()) <= precision {
		return d
	}

	q := d.RoundBank(precision - magnitude(d))
	// Rounding can carry into one extra digit (999.95 -> 1000.0).
	if int32(q.NumDigits()) > precision {
		q = q.RoundBank(precision - magnitude(q))
	}
	return q
}

// magnitude is the count of digits left of the decimal point; zero or
// negative for values below 1.
func magnitude(d decimal.Decimal) int32 {
	return int32(d.NumDigits()) + d.Exponent()
}

func parseOperand(op, name, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, newError(KindInvalidLiteral, op, "invalid decimal literal for %s: %q", name, raw)
	}
	return value, nil
}

func normalizeOperation(operation string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(operation)) {
	case OpAdd, "+":
		return OpAdd, true
	case OpSubtract, "-":
		return OpSubtract, true
	case OpMultiply, "*":
		return OpMultiply, true
	case OpDivide, "/":
		return OpDivide, true
	case OpPower, "**", "^":
		return OpPower, true
	case OpSqrt, "square_root":
		return OpSqrt, true
	case OpAbs, "absolute":
		return OpAbs, true
	case OpNegate, "negative":
		return OpNegate, true
	}
	return "", false
}

func requiresTwoOperands(op string) bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
		return true
	}
	return false
}
