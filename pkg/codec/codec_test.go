package codec_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/codec"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
)

// mustDecode decodes src and fails the test on any diagnostic.
func mustDecode(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, diags := codec.Decode([]byte(src), "test.yaml")
	if len(diags) > 0 {
		t.Fatalf("decode errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	return expr
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, diagnostics.Codes(diags))
}

func TestDecode_Smoke(t *testing.T) {
	expr := mustDecode(t, `
let:
  name: x
  value: {const: 69}
  body: {var: x}
`)
	want := ast.Let("x", ast.Const(69), ast.Var("x"))
	if !ast.Equal(expr, want) {
		t.Errorf("got %#v", expr)
	}
}

func TestDecode_AllKinds(t *testing.T) {
	expr := mustDecode(t, `
letrec:
  name: f
  param: n
  proc:
    if:
      - zero: {var: n}
      - {const: 0}
      - call:
          - {var: f}
          - diff: [{var: n}, {const: 1}]
  body:
    call:
      - proc: {param: g, body: {call: [{var: g}, {const: 3}]}}
      - {var: f}
`)
	want := ast.LetRec("f", "n",
		ast.If(ast.ZeroTest(ast.Var("n")),
			ast.Const(0),
			ast.Call(ast.Var("f"), ast.Diff(ast.Var("n"), ast.Const(1)))),
		ast.Call(
			ast.Proc("g", ast.Call(ast.Var("g"), ast.Const(3))),
			ast.Var("f")))
	if !ast.Equal(expr, want) {
		t.Errorf("decoded tree does not match")
	}
}

func TestDecode_JSON(t *testing.T) {
	expr := mustDecode(t, `{"let": {"name": "x", "value": {"const": -4}, "body": {"diff": [{"var": "x"}, {"const": 1}]}}}`)
	want := ast.Let("x", ast.Const(-4), ast.Diff(ast.Var("x"), ast.Const(1)))
	if !ast.Equal(expr, want) {
		t.Errorf("decoded tree does not match")
	}
}

func TestDecode_AliasSharesSubtree(t *testing.T) {
	expr := mustDecode(t, `
diff:
  - &one {const: 1}
  - *one
`)
	diff, ok := expr.(*ast.DiffExpr)
	if !ok {
		t.Fatalf("expected DiffExpr, got %T", expr)
	}
	if !ast.Equal(diff.Left, ast.Const(1)) || !ast.Equal(diff.Right, ast.Const(1)) {
		t.Errorf("expected both operands to be const 1")
	}
	if diff.Left != diff.Right {
		t.Errorf("expected the alias to reuse the anchored node")
	}
}

func TestDecode_NestedAliasesDecodeOnce(t *testing.T) {
	// Each level refers to the previous one twice, so the expanded tree
	// has 2^41 nodes.
	src := "&a0 {const: 1}"
	for i := 1; i <= 40; i++ {
		src = fmt.Sprintf("&a%d {diff: [%s, *a%d]}", i, src, i-1)
	}
	expr := mustDecode(t, src)

	levels := 0
	for {
		diff, ok := expr.(*ast.DiffExpr)
		if !ok {
			break
		}
		if diff.Left != diff.Right {
			t.Fatalf("level %d: operands decoded separately", levels)
		}
		expr = diff.Left
		levels++
	}
	if levels != 40 || !ast.Equal(expr, ast.Const(1)) {
		t.Errorf("got %d levels ending in %T, want 40 ending in const 1", levels, expr)
	}
}

func TestDecode_Spans(t *testing.T) {
	expr := mustDecode(t, "let:\n  name: x\n  value: {const: 1}\n  body: {var: y}\n")
	let := expr.(*ast.LetExpr)
	if got := let.Span; got.File != "test.yaml" || got.Line != 1 || got.Col != 1 {
		t.Errorf("let span = %+v", got)
	}
	if got := let.Body.NodeSpan(); got.Line != 4 || got.Col != 9 {
		t.Errorf("body span = %+v, want line 4 col 9", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		msg  string
	}{
		{"malformed yaml", "let: [", diagnostics.EDecode, "cannot decode"},
		{"empty document", "", diagnostics.EDecode, "empty document"},
		{"scalar root", "42", diagnostics.EAst, "expected an expression node"},
		{"two keys", "{const: 1, var: x}", diagnostics.EAst, "expected an expression node"},
		{"unknown kind", "{plus: [{const: 1}, {const: 2}]}", diagnostics.EAst, "unknown node kind 'plus'"},
		{"bad const", "{const: abc}", diagnostics.EAst, "const expects an integer"},
		{"const list", "{const: [1]}", diagnostics.EAst, "const expects an integer"},
		{"diff arity", "{diff: [{const: 1}]}", diagnostics.EAst, "diff expects a list of 2"},
		{"if arity", "{if: [{const: 1}, {const: 2}]}", diagnostics.EAst, "if expects a list of 3"},
		{"missing field", "{let: {name: x, value: {const: 1}}}", diagnostics.EAst, "missing field 'body'"},
		{"unknown field", "{proc: {param: x, body: {var: x}, extra: 1}}", diagnostics.EAst, "unknown field 'extra'"},
		{"empty name", "{var: ''}", diagnostics.EAst, "must be a non-empty string"},
		{"bool name", "{var: true}", diagnostics.EAst, "must be a non-empty string"},
		{"fields not mapping", "{letrec: [f, n]}", diagnostics.EAst, "letrec expects a mapping"},
		{"nested error", "{zero: {var: 1}}", diagnostics.EAst, "var must be a non-empty string"},
		{"self alias", "&a {zero: *a}", diagnostics.EAst, "recursive alias"},
		{"alias through fields", "{let: &m {name: x, value: {let: *m}, body: {const: 1}}}", diagnostics.EAst, "recursive alias"},
		{"alias in list", "&d {diff: [{const: 1}, {call: [*d, {const: 2}]}]}", diagnostics.EAst, "recursive alias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, diags := codec.Decode([]byte(tt.src), "test.yaml")
			if expr != nil {
				t.Errorf("expected no tree on failure, got %T", expr)
			}
			assertHasCode(t, diags, tt.code)
			if len(diags) > 0 && !strings.Contains(diags[0].Message, tt.msg) {
				t.Errorf("message %q does not contain %q", diags[0].Message, tt.msg)
			}
		})
	}
}

func TestDecode_ReportsEveryError(t *testing.T) {
	_, diags := codec.Decode([]byte("{diff: [{const: x}, {nope: 1}]}"), "test.yaml")
	if len(diags) != 2 {
		t.Errorf("expected 2 diagnostics, got %d: %v", len(diags), diagnostics.Codes(diags))
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	trees := []ast.Expr{
		ast.Let("x", ast.Const(69), ast.Var("x")),
		ast.Diff(ast.Const(-3), ast.ZeroTest(ast.Const(0))),
		ast.LetRec("fact", "n",
			ast.If(ast.ZeroTest(ast.Var("n")), ast.Const(1), ast.Call(ast.Var("fact"), ast.Diff(ast.Var("n"), ast.Const(1)))),
			ast.Call(ast.Var("fact"), ast.Const(5))),
		ast.Call(ast.Proc("true", ast.Var("true")), ast.Const(1)),
	}
	for i, tree := range trees {
		data, err := codec.Encode(tree)
		if err != nil {
			t.Fatalf("tree %d: encode: %v", i, err)
		}
		back, diags := codec.Decode(data, "roundtrip.yaml")
		if len(diags) > 0 {
			t.Fatalf("tree %d: decode: %s\n%s", i, diagnostics.FormatDiagnostics(diags, true), data)
		}
		if !ast.Equal(tree, back) {
			t.Errorf("tree %d: round trip changed the tree:\n%s", i, data)
		}
	}
}

func TestEncode_Layout(t *testing.T) {
	data, err := codec.Encode(ast.Let("x", ast.Const(69), ast.Var("x")))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "let:\n  name: x\n  value: {const: 69}\n  body: {var: x}\n"
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestEncode_NilChild(t *testing.T) {
	if _, err := codec.Encode(&ast.LetExpr{Name: "x", Body: ast.Var("x")}); err == nil {
		t.Error("expected error for missing let value")
	}
	if _, err := codec.Encode(nil); err == nil {
		t.Error("expected error for nil tree")
	}
}
