package stdlib

import (
	"github.com/GitMew/eopl3-noracket/pkg/ast"
)

// RegisterDefaults adds the standard prelude.
func RegisterDefaults(r *Registry) {
	// Initial environment of the textbook interpreters
	r.Register(Def{Name: "i", Doc: "the integer 1", Expr: ast.Const(1)})
	r.Register(Def{Name: "v", Doc: "the integer 5", Expr: ast.Const(5)})
	r.Register(Def{Name: "x", Doc: "the integer 10", Expr: ast.Const(10)})

	// Booleans have no literal form
	r.Register(Def{Name: "true", Doc: "boolean true", Expr: ast.ZeroTest(ast.Const(0))})
	r.Register(Def{Name: "false", Doc: "boolean false", Expr: ast.ZeroTest(ast.Const(1))})

	// Arithmetic
	r.Register(Def{
		Name: "minus",
		Doc:  "(minus n) negates n",
		Expr: ast.Proc("n", ast.Diff(ast.Const(0), ast.Var("n"))),
	})
	r.Register(Def{
		Name: "plus",
		Doc:  "((plus a) b) adds a and b",
		Expr: ast.Proc("a", ast.Proc("b",
			ast.Diff(ast.Var("a"), ast.Diff(ast.Const(0), ast.Var("b"))))),
	})
	r.Register(Def{
		Name: "not",
		Doc:  "(not b) negates a boolean",
		Expr: ast.Proc("b", ast.If(ast.Var("b"), ast.Var("false"), ast.Var("true"))),
	})
}
