// Package evaluator implements the LETREC value model, environments and the
// tree-walking evaluator.
package evaluator

import (
	"strconv"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
)

// ValueKind names a Value variant in diagnostics.
type ValueKind string

const (
	KindInt     ValueKind = "int"
	KindBool    ValueKind = "bool"
	KindClosure ValueKind = "closure"
)

// Value is the interface for all LETREC runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	Kind() ValueKind
	String() string
	value() // sealed marker
}

// Int represents an integer value.
type Int struct {
	Value int64
}

func (Int) Kind() ValueKind  { return KindInt }
func (v Int) String() string { return strconv.FormatInt(v.Value, 10) }
func (Int) value()           {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) Kind() ValueKind { return KindBool }
func (v Bool) String() string {
	if v.Value {
		return "#t"
	}
	return "#f"
}
func (Bool) value() {}

// Closure is a procedure value: a parameter and body closed over the
// environment that was active when the procedure was created.
type Closure struct {
	Param string
	Body  ast.Expr
	Env   Env
}

func (Closure) Kind() ValueKind  { return KindClosure }
func (c Closure) String() string { return "#<procedure (" + c.Param + ")>" }
func (Closure) value()           {}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewClosure creates a procedure value capturing env.
func NewClosure(param string, body ast.Expr, env Env) Value {
	if env == nil {
		env = Empty()
	}
	return Closure{Param: param, Body: body, Env: env}
}

// AsInt narrows v to an integer.
func AsInt(v Value) (int64, error) {
	if n, ok := v.(Int); ok {
		return n.Value, nil
	}
	return 0, typeMismatch(KindInt, v)
}

// AsBool narrows v to a boolean.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return b.Value, nil
	}
	return false, typeMismatch(KindBool, v)
}

// AsClosure narrows v to a procedure.
func AsClosure(v Value) (Closure, error) {
	if c, ok := v.(Closure); ok {
		return c, nil
	}
	return Closure{}, typeMismatch(KindClosure, v)
}

// Equal reports whether two values are observationally the same. Closures
// compare by parameter, body node and captured environment node, so two
// lookups of the same recursive binding are equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Int:
		y, ok := b.(Int)
		return ok && x.Value == y.Value
	case Bool:
		y, ok := b.(Bool)
		return ok && x.Value == y.Value
	case Closure:
		y, ok := b.(Closure)
		return ok && x.Param == y.Param && x.Body == y.Body && x.Env == y.Env
	}
	return false
}
