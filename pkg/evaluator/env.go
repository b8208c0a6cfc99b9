package evaluator

import "github.com/GitMew/eopl3-noracket/pkg/ast"

// Env is an immutable scope chain. Extending an Env allocates a new head and
// leaves the tail shared and untouched.
type Env interface {
	// Lookup resolves name, innermost binding first.
	Lookup(name string) (Value, error)
	env() // sealed marker
}

// EmptyEnv holds no bindings.
type EmptyEnv struct{}

func (EmptyEnv) Lookup(name string) (Value, error) {
	return nil, unboundVariable(name)
}

func (EmptyEnv) env() {}

// ExtendEnv binds one name to an already computed value.
type ExtendEnv struct {
	Name  string
	Value Value
	Tail  Env
}

func (e *ExtendEnv) Lookup(name string) (Value, error) {
	if e.Name == name {
		return e.Value, nil
	}
	return e.Tail.Lookup(name)
}

func (e *ExtendEnv) env() {}

// RecEnv binds ProcName to a procedure whose captured environment is the
// RecEnv node itself, so the body can call ProcName again. The closure is
// built on every lookup.
type RecEnv struct {
	ProcName string
	Param    string
	Body     ast.Expr
	Tail     Env
}

func (e *RecEnv) Lookup(name string) (Value, error) {
	if e.ProcName == name {
		return Closure{Param: e.Param, Body: e.Body, Env: e}, nil
	}
	return e.Tail.Lookup(name)
}

func (e *RecEnv) env() {}

// Empty returns the environment with no bindings.
func Empty() Env {
	return EmptyEnv{}
}

// Extend returns a new environment binding name to val in front of tail.
func Extend(name string, val Value, tail Env) Env {
	if tail == nil {
		tail = Empty()
	}
	return &ExtendEnv{Name: name, Value: val, Tail: tail}
}

// ExtendRec returns a new environment binding procName to a recursive
// procedure of param and body in front of tail.
func ExtendRec(procName, param string, body ast.Expr, tail Env) Env {
	if tail == nil {
		tail = Empty()
	}
	return &RecEnv{ProcName: procName, Param: param, Body: body, Tail: tail}
}

// Names lists the names bound in env, innermost first. Shadowed names are
// listed once.
func Names(env Env) []string {
	var names []string
	seen := make(map[string]bool)
	for env != nil {
		var name string
		switch e := env.(type) {
		case *ExtendEnv:
			name, env = e.Name, e.Tail
		case *RecEnv:
			name, env = e.ProcName, e.Tail
		default:
			env = nil
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
