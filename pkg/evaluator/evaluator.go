package evaluator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceCallStart      TraceEventType = "call_start"
	TraceCallEnd        TraceEventType = "call_end"
	TraceLetRecBind     TraceEventType = "letrec_bind"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ExecOptions configures an evaluation.
type ExecOptions struct {
	// Env is the initial scope. Nil means Empty().
	Env    Env
	Budget Budget
	Trace  func(event TraceEvent)
	RunID  string
}

// ExecResult holds the result of an evaluation.
type ExecResult struct {
	Value    Value
	Steps    int64
	MaxDepth int64
}

// checkEvery is how many steps pass between time budget and context checks.
const checkEvery = 1024

type evaluator struct {
	ctx       context.Context
	opts      ExecOptions
	tracker   BudgetTracker
	startTime time.Time
}

// Eval evaluates expr against env with no budget and no tracing.
func Eval(expr ast.Expr, env Env) (Value, error) {
	ev := &evaluator{ctx: context.Background()}
	return ev.eval(expr, env)
}

// Apply calls proc with arg: the body is evaluated in the procedure's
// captured environment extended with its parameter.
func Apply(proc Closure, arg Value) (Value, error) {
	ev := &evaluator{ctx: context.Background()}
	return ev.apply(proc, arg, ast.Span{})
}

// Execute evaluates expr under opts and reports resource usage alongside the
// value. On failure the returned result still carries the usage counters.
func Execute(ctx context.Context, expr ast.Expr, opts ExecOptions) (*ExecResult, error) {
	env := opts.Env
	if env == nil {
		env = Empty()
	}
	ev := &evaluator{
		ctx:       ctx,
		opts:      opts,
		startTime: time.Now(),
	}

	var span *ast.Span
	if expr != nil {
		span = spanPtr(expr.NodeSpan())
	}
	ev.emit(TraceRunStart, span)

	val, err := ev.eval(expr, env)

	ev.emit(TraceRunEnd, span)

	res := &ExecResult{Steps: ev.tracker.Steps, MaxDepth: ev.tracker.MaxDepth}
	if err != nil {
		return res, err
	}
	res.Value = val
	return res, nil
}

func (ev *evaluator) eval(expr ast.Expr, env Env) (Value, error) {
	if err := ev.enter(expr); err != nil {
		return nil, err
	}
	defer ev.leave()

	switch n := expr.(type) {
	case *ast.ConstExpr:
		return Int{Value: n.Value}, nil

	case *ast.VarExpr:
		val, err := env.Lookup(n.Name)
		if err != nil {
			return nil, at(err, n.Span)
		}
		return val, nil

	case *ast.DiffExpr:
		left, err := ev.evalInt(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalInt(n.Right, env)
		if err != nil {
			return nil, err
		}
		return Int{Value: left - right}, nil

	case *ast.ZeroTestExpr:
		operand, err := ev.evalInt(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return Bool{Value: operand == 0}, nil

	case *ast.IfExpr:
		cond, err := ev.eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		b, err := AsBool(cond)
		if err != nil {
			return nil, at(err, n.Cond.NodeSpan())
		}
		if b {
			return ev.eval(n.Then, env)
		}
		return ev.eval(n.Else, env)

	case *ast.LetExpr:
		val, err := ev.eval(n.Value, env)
		if err != nil {
			return nil, err
		}
		return ev.eval(n.Body, Extend(n.Name, val, env))

	case *ast.LetRecExpr:
		ev.emitWithData(TraceLetRecBind, spanPtr(n.Span), map[string]string{
			"proc":  n.ProcName,
			"param": n.Param,
		})
		return ev.eval(n.Body, ExtendRec(n.ProcName, n.Param, n.ProcBody, env))

	case *ast.ProcExpr:
		return Closure{Param: n.Param, Body: n.Body, Env: env}, nil

	case *ast.CallExpr:
		rator, err := ev.eval(n.Operator, env)
		if err != nil {
			return nil, err
		}
		proc, err := AsClosure(rator)
		if err != nil {
			return nil, at(err, n.Operator.NodeSpan())
		}
		rand, err := ev.eval(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return ev.apply(proc, rand, n.Span)

	case nil:
		return nil, fmt.Errorf("evaluator: nil expression")
	}

	return nil, fmt.Errorf("evaluator: unknown expression node %s", expr.Kind())
}

func (ev *evaluator) evalInt(expr ast.Expr, env Env) (int64, error) {
	val, err := ev.eval(expr, env)
	if err != nil {
		return 0, err
	}
	n, err := AsInt(val)
	if err != nil {
		return 0, at(err, expr.NodeSpan())
	}
	return n, nil
}

func (ev *evaluator) apply(proc Closure, arg Value, span ast.Span) (Value, error) {
	if ev.opts.Trace != nil {
		depth := strconv.FormatInt(ev.tracker.Depth, 10)
		ev.emitWithData(TraceCallStart, spanPtr(span), map[string]string{"param": proc.Param, "depth": depth})
		defer ev.emitWithData(TraceCallEnd, spanPtr(span), map[string]string{"param": proc.Param, "depth": depth})
	}
	return ev.eval(proc.Body, Extend(proc.Param, arg, proc.Env))
}

// enter counts a step and a level of nesting and enforces the budget.
func (ev *evaluator) enter(expr ast.Expr) error {
	ev.tracker.Steps++
	ev.tracker.Depth++
	if ev.tracker.Depth > ev.tracker.MaxDepth {
		ev.tracker.MaxDepth = ev.tracker.Depth
	}

	budget := ev.opts.Budget
	if budget.MaxSteps != nil && ev.tracker.Steps > *budget.MaxSteps {
		return ev.exceeded(expr, "maxSteps", fmt.Sprintf("step budget exceeded (max %d)", *budget.MaxSteps))
	}
	if budget.MaxDepth != nil && ev.tracker.Depth > *budget.MaxDepth {
		return ev.exceeded(expr, "maxDepth", fmt.Sprintf("depth budget exceeded (max %d)", *budget.MaxDepth))
	}
	if ev.tracker.Steps%checkEvery == 1 {
		if budget.TimeMs != nil && time.Since(ev.startTime).Milliseconds() >= *budget.TimeMs {
			return ev.exceeded(expr, "timeMs", fmt.Sprintf("time budget exceeded (%dms)", *budget.TimeMs))
		}
		if err := ev.ctx.Err(); err != nil {
			return fmt.Errorf("evaluation interrupted: %w", err)
		}
	}
	return nil
}

func (ev *evaluator) leave() {
	ev.tracker.Depth--
}

func (ev *evaluator) exceeded(expr ast.Expr, limit, msg string) error {
	var span *ast.Span
	if expr != nil {
		span = spanPtr(expr.NodeSpan())
	}
	ev.emitWithData(TraceBudgetExceeded, span, map[string]string{"limit": limit})
	return budgetExceeded(msg, span)
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span) {
	ev.emitWithData(event, span, nil)
}

func (ev *evaluator) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// spanPtr returns nil for the zero span of programmatically built nodes.
func spanPtr(span ast.Span) *ast.Span {
	if span == (ast.Span{}) {
		return nil
	}
	return &span
}
