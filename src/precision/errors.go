package precision

import "fmt"

// Kind identifies the class of a calculation failure. The healing registry
// matches on both the kind name and the message text, so the wording of the
// messages below is part of the contract.
type Kind string

const (
	KindMissingOperand       Kind = "MissingOperand"
	KindDivisionByZero       Kind = "DivisionByZero"
	KindNegativeRadicand     Kind = "NegativeRadicand"
	KindInvalidLiteral       Kind = "InvalidNumericLiteral"
	KindUnsupportedOperation Kind = "UnsupportedOperation"
	KindOverflow             Kind = "Overflow"
)

// Error is a typed calculation failure.
type Error struct {
	Kind   Kind
	Op     string // operation that failed, e.g. "divide"
	Detail string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// Is lets errors.Is match against a bare &Error{Kind: ...} sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks.
var (
	ErrMissingOperand       = &Error{Kind: KindMissingOperand}
	ErrDivisionByZero       = &Error{Kind: KindDivisionByZero}
	ErrNegativeRadicand     = &Error{Kind: KindNegativeRadicand}
	ErrInvalidLiteral       = &Error{Kind: KindInvalidLiteral}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
	ErrOverflow             = &Error{Kind: KindOverflow}
)
