// Package validator implements static scope checking of LETREC expression trees.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
)

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

// names lists every visible name, sorted.
func (s *scope) names() []string {
	seen := make(map[string]bool)
	for sc := s; sc != nil; sc = sc.parent {
		for name := range sc.bindings {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type visit struct {
	expr  ast.Expr
	scope *scope
}

type validator struct {
	diags []diagnostics.Diagnostic
	// seen skips subtrees shared through YAML aliases that were already
	// checked under the same scope.
	seen map[visit]bool
}

// Validate reports every variable reference that no enclosing binding form
// (or predeclared name) introduces, and every structurally incomplete node.
// It does no type checking.
func Validate(expr ast.Expr, predeclared ...string) []diagnostics.Diagnostic {
	v := &validator{seen: make(map[visit]bool)}
	root := newScope(nil)
	for _, name := range predeclared {
		root.add(name)
	}
	v.validateExpr(expr, root, nil)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	var sp *ast.Span
	if span != (ast.Span{}) {
		sp = &span
	}
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, sp, hint))
}

func (v *validator) checkName(name, what string, span ast.Span) {
	if name == "" {
		v.addDiag(diagnostics.EAst, fmt.Sprintf("%s must not be empty", what), span, "")
	}
}

func (v *validator) validateExpr(e ast.Expr, sc *scope, parent ast.Node) {
	if e != nil {
		key := visit{e, sc}
		if v.seen[key] {
			return
		}
		v.seen[key] = true
	}
	switch n := e.(type) {
	case *ast.ConstExpr:
		// nothing to check

	case *ast.VarExpr:
		v.checkName(n.Name, "variable name", n.Span)
		if n.Name != "" && !sc.has(n.Name) {
			hint := ""
			if names := sc.names(); len(names) > 0 {
				hint = "in scope: " + strings.Join(names, ", ")
			}
			v.addDiag(diagnostics.EUnbound, fmt.Sprintf("unbound variable '%s'", n.Name), n.Span, hint)
		}

	case *ast.DiffExpr:
		v.validateExpr(n.Left, sc, n)
		v.validateExpr(n.Right, sc, n)

	case *ast.ZeroTestExpr:
		v.validateExpr(n.Operand, sc, n)

	case *ast.IfExpr:
		v.validateExpr(n.Cond, sc, n)
		v.validateExpr(n.Then, sc, n)
		v.validateExpr(n.Else, sc, n)

	case *ast.LetExpr:
		v.checkName(n.Name, "let name", n.Span)
		v.validateExpr(n.Value, sc, n)
		inner := newScope(sc)
		inner.add(n.Name)
		v.validateExpr(n.Body, inner, n)

	case *ast.LetRecExpr:
		v.checkName(n.ProcName, "letrec name", n.Span)
		v.checkName(n.Param, "letrec param", n.Span)
		recScope := newScope(sc)
		recScope.add(n.ProcName)
		procScope := newScope(recScope)
		procScope.add(n.Param)
		v.validateExpr(n.ProcBody, procScope, n)
		v.validateExpr(n.Body, recScope, n)

	case *ast.ProcExpr:
		v.checkName(n.Param, "proc param", n.Span)
		inner := newScope(sc)
		inner.add(n.Param)
		v.validateExpr(n.Body, inner, n)

	case *ast.CallExpr:
		v.validateExpr(n.Operator, sc, n)
		v.validateExpr(n.Operand, sc, n)

	case nil:
		var span ast.Span
		msg := "missing expression"
		if parent != nil {
			span = parent.NodeSpan()
			msg = fmt.Sprintf("missing sub-expression in %s", parent.Kind())
		}
		v.addDiag(diagnostics.EAst, msg, span, "")
	}
}
