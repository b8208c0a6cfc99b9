package formatter_test

import (
	"testing"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/formatter"
)

var factorial = ast.LetRec("fact", "n",
	ast.If(ast.ZeroTest(ast.Var("n")),
		ast.Const(1),
		ast.Call(ast.Var("fact"), ast.Diff(ast.Var("n"), ast.Const(1)))),
	ast.Call(ast.Var("fact"), ast.Const(5)))

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{"const", ast.Const(-2), "-2\n"},
		{"smoke", ast.Let("x", ast.Const(69), ast.Var("x")), "let x = 69\nin x\n"},
		{"diff and zero", ast.ZeroTest(ast.Diff(ast.Var("a"), ast.Const(1))), "zero?(-(a, 1))\n"},
		{"proc and call", ast.Call(ast.Proc("x", ast.Diff(ast.Var("y"), ast.Var("x"))), ast.Const(5)), "(proc (x) -(y, x) 5)\n"},
		{
			"let chain",
			ast.Let("x", ast.Const(1), ast.Let("y", ast.Const(2), ast.Diff(ast.Var("x"), ast.Var("y")))),
			"let x = 1\nin let y = 2\nin -(x, y)\n",
		},
		{
			"let in value position",
			ast.Let("a", ast.Let("b", ast.Const(1), ast.Var("b")), ast.Var("a")),
			"let a = let b = 1\n  in b\nin a\n",
		},
		{
			"letrec",
			factorial,
			"letrec fact(n) = if zero?(n)\n    then 1\n    else (fact -(n, 1))\nin (fact 5)\n",
		},
		{"nil", nil, "<nil>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatter.Format(tt.expr); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestFormatInline(t *testing.T) {
	want := "letrec fact(n) = if zero?(n) then 1 else (fact -(n, 1)) in (fact 5)"
	if got := formatter.FormatInline(factorial); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
