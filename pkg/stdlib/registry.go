// Package stdlib provides the LETREC prelude: named definitions that make up
// an initial environment.
package stdlib

import (
	"fmt"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/evaluator"
)

// Def is a prelude definition. Expr is evaluated in the environment built
// from the definitions registered before it.
type Def struct {
	Name string
	Doc  string
	Expr ast.Expr
}

// Registry holds prelude definitions in registration order.
type Registry struct {
	defs  []*Def
	index map[string]int
}

// NewRegistry creates a new empty prelude registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds a definition. Registering a name again replaces the earlier
// definition in place.
func (r *Registry) Register(def Def) {
	if i, ok := r.index[def.Name]; ok {
		r.defs[i] = &def
		return
	}
	r.index[def.Name] = len(r.defs)
	r.defs = append(r.defs, &def)
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) *Def {
	i, ok := r.index[name]
	if !ok {
		return nil
	}
	return r.defs[i]
}

// All returns all definitions in registration order.
func (r *Registry) All() []*Def {
	return r.defs
}

// Names returns the defined names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, d := range r.defs {
		names[i] = d.Name
	}
	return names
}

// Env evaluates every definition in order and returns the resulting
// environment, most recent definition innermost.
func (r *Registry) Env() (evaluator.Env, error) {
	env := evaluator.Empty()
	for _, d := range r.defs {
		val, err := evaluator.Eval(d.Expr, env)
		if err != nil {
			return nil, fmt.Errorf("prelude: %s: %w", d.Name, err)
		}
		env = evaluator.Extend(d.Name, val, env)
	}
	return env, nil
}
