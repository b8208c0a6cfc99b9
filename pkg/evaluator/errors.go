package evaluator

import (
	"errors"
	"fmt"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
)

// Sentinels for errors.Is. A *RuntimeError matches the sentinel of its Code.
var (
	ErrUnboundVariable = errors.New("unbound variable")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrBudgetExceeded  = errors.New("budget exceeded")
)

// RuntimeError represents a runtime error during LETREC evaluation.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span

	// Name is set for E_UNBOUND.
	Name string
	// Expected and Actual are set for E_TYPE.
	Expected ValueKind
	Actual   ValueKind
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Is(target error) bool {
	switch target {
	case ErrUnboundVariable:
		return e.Code == diagnostics.EUnbound
	case ErrTypeMismatch:
		return e.Code == diagnostics.EType
	case ErrBudgetExceeded:
		return e.Code == diagnostics.EBudget
	}
	return false
}

// Diagnostic converts the error for display alongside decode and validation
// diagnostics.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

func unboundVariable(name string) *RuntimeError {
	return &RuntimeError{
		Code:    diagnostics.EUnbound,
		Message: fmt.Sprintf("unbound variable '%s'", name),
		Name:    name,
	}
}

func typeMismatch(expected ValueKind, actual Value) *RuntimeError {
	actualKind := ValueKind("nil")
	if actual != nil {
		actualKind = actual.Kind()
	}
	return &RuntimeError{
		Code:     diagnostics.EType,
		Message:  fmt.Sprintf("expected %s, got %s", expected, actualKind),
		Expected: expected,
		Actual:   actualKind,
	}
}

func budgetExceeded(msg string, span *ast.Span) *RuntimeError {
	return &RuntimeError{
		Code:    diagnostics.EBudget,
		Message: msg,
		Span:    span,
	}
}

// at attaches span to err if it is a *RuntimeError that has none yet.
func at(err error, span ast.Span) error {
	if span == (ast.Span{}) {
		return err
	}
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) && rtErr.Span == nil {
		rtErr.Span = &span
	}
	return err
}
