// Package runtime provides the top-level LETREC runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/codec"
	"github.com/GitMew/eopl3-noracket/pkg/config"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
	"github.com/GitMew/eopl3-noracket/pkg/evaluator"
	"github.com/GitMew/eopl3-noracket/pkg/formatter"
	"github.com/GitMew/eopl3-noracket/pkg/stdlib"
	"github.com/GitMew/eopl3-noracket/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value    evaluator.Value
	Steps    int64
	MaxDepth int64
}

// Runtime wires together all LETREC components for program execution.
type Runtime struct {
	prelude *stdlib.Registry
	budget  evaluator.Budget
	runID   string
	trace   func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithPrelude sets the registry whose definitions form the initial environment.
func WithPrelude(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.prelude = r
	}
}

// WithDefaultPrelude starts programs in the standard prelude.
func WithDefaultPrelude() Option {
	return func(rt *Runtime) {
		reg := stdlib.NewRegistry()
		stdlib.RegisterDefaults(reg)
		rt.prelude = reg
	}
}

// WithBudget sets resource limits for every run.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// WithConfig applies loaded settings: prelude selection and budget.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		if cfg == nil {
			return
		}
		if cfg.Prelude {
			WithDefaultPrelude()(rt)
		}
		rt.budget = cfg.ExecBudget()
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default programs start in the empty environment with no budget.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		prelude: stdlib.NewRegistry(),
		runID:   "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run decodes, validates, and evaluates a program tree.
func (rt *Runtime) Run(ctx context.Context, source []byte, filename string) (*Result, error) {
	expr, diags := codec.Decode(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return rt.Eval(ctx, expr)
}

// Eval validates and evaluates an already-built expression.
func (rt *Runtime) Eval(ctx context.Context, expr ast.Expr) (*Result, error) {
	if vDiags := validator.Validate(expr, rt.prelude.Names()...); len(vDiags) > 0 {
		return nil, &DiagnosticError{Diagnostics: vDiags}
	}

	env, err := rt.prelude.Env()
	if err != nil {
		return nil, err
	}

	result, err := evaluator.Execute(ctx, expr, evaluator.ExecOptions{
		Env:    env,
		Budget: rt.budget,
		Trace:  rt.trace,
		RunID:  rt.runID,
	})
	if result == nil {
		return nil, err
	}
	res := &Result{Value: result.Value, Steps: result.Steps, MaxDepth: result.MaxDepth}
	return res, err
}

// Check decodes and validates a program without evaluating it.
func (rt *Runtime) Check(source []byte, filename string) []diagnostics.Diagnostic {
	expr, diags := codec.Decode(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(expr, rt.prelude.Names()...)
}

// Format decodes a program and renders it in textbook notation.
func (rt *Runtime) Format(source []byte, filename string) (string, error) {
	expr, diags := codec.Decode(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(expr), nil
}

// Encode decodes a program and writes it back in canonical tree form.
func (rt *Runtime) Encode(source []byte, filename string) ([]byte, error) {
	expr, diags := codec.Decode(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return codec.Encode(expr)
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
