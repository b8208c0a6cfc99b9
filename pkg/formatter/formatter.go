// Package formatter renders LETREC expression trees as concrete syntax.
package formatter

import (
	"strconv"
	"strings"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
)

const indent = "  "

// Format pretty-prints an expression tree. Binding forms and conditionals
// break their "in"/"then"/"else" parts onto new lines indented by nesting
// depth.
func Format(expr ast.Expr) string {
	return formatExpr(expr, 0) + "\n"
}

// FormatInline renders expr on a single line.
func FormatInline(expr ast.Expr) string {
	s := formatExpr(expr, 0)
	return strings.Join(strings.Fields(s), " ")
}

func formatExpr(e ast.Expr, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch n := e.(type) {
	case *ast.ConstExpr:
		return strconv.FormatInt(n.Value, 10)
	case *ast.VarExpr:
		return n.Name
	case *ast.DiffExpr:
		return "-(" + formatExpr(n.Left, depth) + ", " + formatExpr(n.Right, depth) + ")"
	case *ast.ZeroTestExpr:
		return "zero?(" + formatExpr(n.Operand, depth) + ")"
	case *ast.IfExpr:
		return "if " + formatExpr(n.Cond, depth+1) +
			"\n" + prefix + indent + "then " + formatExpr(n.Then, depth+1) +
			"\n" + prefix + indent + "else " + formatExpr(n.Else, depth+1)
	case *ast.LetExpr:
		return "let " + n.Name + " = " + formatExpr(n.Value, depth+1) +
			"\n" + prefix + "in " + formatExpr(n.Body, depth)
	case *ast.LetRecExpr:
		return "letrec " + n.ProcName + "(" + n.Param + ") = " + formatExpr(n.ProcBody, depth+1) +
			"\n" + prefix + "in " + formatExpr(n.Body, depth)
	case *ast.ProcExpr:
		return "proc (" + n.Param + ") " + formatExpr(n.Body, depth+1)
	case *ast.CallExpr:
		return "(" + formatExpr(n.Operator, depth) + " " + formatExpr(n.Operand, depth) + ")"
	}
	return "<nil>"
}
