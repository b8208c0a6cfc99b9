// Package codec reads and writes LETREC expression trees as YAML documents.
//
// Every node is a mapping with a single key naming its kind:
//
//	const: 5
//	var: x
//	diff: [<expr>, <expr>]
//	zero: <expr>
//	if: [<cond>, <then>, <else>]
//	let: {name: x, value: <expr>, body: <expr>}
//	letrec: {name: f, param: n, proc: <expr>, body: <expr>}
//	proc: {param: x, body: <expr>}
//	call: [<operator>, <operand>]
//
// JSON documents of the same shape are accepted. Anchors and aliases may be
// used to share subtrees: every alias of an anchor decodes to the same
// ast.Expr. An alias that refers back to a node it is nested in is rejected.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
)

// Node kind keys.
const (
	KeyConst  = "const"
	KeyVar    = "var"
	KeyDiff   = "diff"
	KeyZero   = "zero"
	KeyIf     = "if"
	KeyLet    = "let"
	KeyLetRec = "letrec"
	KeyProc   = "proc"
	KeyCall   = "call"
)

var kinds = []string{KeyConst, KeyVar, KeyDiff, KeyZero, KeyIf, KeyLet, KeyLetRec, KeyProc, KeyCall}

const strTag = "!!str"

type decoder struct {
	file  string
	diags []diagnostics.Diagnostic

	// visiting holds the nodes on the current decode path, done the nodes
	// already decoded.
	visiting map[*yaml.Node]bool
	done     map[*yaml.Node]ast.Expr
}

// Decode reads an expression tree from YAML or JSON source. The filename is
// recorded in node spans.
func Decode(data []byte, filename string) (ast.Expr, []diagnostics.Diagnostic) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EDecode, fmt.Sprintf("cannot decode %s: %s", filename, err), nil, ""),
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, []diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EDecode, fmt.Sprintf("%s: empty document", filename), nil, ""),
		}
	}

	d := &decoder{
		file:     filename,
		visiting: make(map[*yaml.Node]bool),
		done:     make(map[*yaml.Node]ast.Expr),
	}
	expr := d.expr(doc.Content[0])
	if len(d.diags) > 0 {
		return nil, d.diags
	}
	return expr, nil
}

func (d *decoder) span(n *yaml.Node) ast.Span {
	return ast.Span{File: d.file, Line: n.Line, Col: n.Column}
}

func (d *decoder) addDiag(n *yaml.Node, hint, format string, args ...any) {
	span := d.span(n)
	d.diags = append(d.diags, diagnostics.MakeDiag(diagnostics.EAst, fmt.Sprintf(format, args...), &span, hint))
}

func resolve(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}

func (d *decoder) expr(n *yaml.Node) ast.Expr {
	n = resolve(n)
	if expr, ok := d.done[n]; ok {
		return expr
	}
	if d.visiting[n] {
		d.addDiag(n, "", "recursive alias")
		return nil
	}
	d.visiting[n] = true
	expr := d.node(n)
	delete(d.visiting, n)
	d.done[n] = expr
	return expr
}

func (d *decoder) node(n *yaml.Node) ast.Expr {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		d.addDiag(n, "write a node as a mapping with one key, e.g. {const: 1}", "expected an expression node")
		return nil
	}

	key, val := n.Content[0].Value, resolve(n.Content[1])
	span := d.span(n)

	switch key {
	case KeyConst:
		if val.Kind != yaml.ScalarNode {
			d.addDiag(val, "", "const expects an integer")
			return nil
		}
		v, err := strconv.ParseInt(val.Value, 10, 64)
		if err != nil {
			d.addDiag(val, "", "const expects an integer, got %q", val.Value)
			return nil
		}
		return &ast.ConstExpr{Span: span, Value: v}

	case KeyVar:
		return &ast.VarExpr{Span: span, Name: d.name(val, "var")}

	case KeyDiff:
		args := d.args(val, key, 2)
		if args == nil {
			return nil
		}
		return &ast.DiffExpr{Span: span, Left: args[0], Right: args[1]}

	case KeyZero:
		return &ast.ZeroTestExpr{Span: span, Operand: d.expr(val)}

	case KeyIf:
		args := d.args(val, key, 3)
		if args == nil {
			return nil
		}
		return &ast.IfExpr{Span: span, Cond: args[0], Then: args[1], Else: args[2]}

	case KeyLet:
		f := d.fields(val, key, "name", "value", "body")
		if f == nil {
			return nil
		}
		return &ast.LetExpr{
			Span:  span,
			Name:  d.name(f["name"], "let name"),
			Value: d.expr(f["value"]),
			Body:  d.expr(f["body"]),
		}

	case KeyLetRec:
		f := d.fields(val, key, "name", "param", "proc", "body")
		if f == nil {
			return nil
		}
		return &ast.LetRecExpr{
			Span:     span,
			ProcName: d.name(f["name"], "letrec name"),
			Param:    d.name(f["param"], "letrec param"),
			ProcBody: d.expr(f["proc"]),
			Body:     d.expr(f["body"]),
		}

	case KeyProc:
		f := d.fields(val, key, "param", "body")
		if f == nil {
			return nil
		}
		return &ast.ProcExpr{
			Span:  span,
			Param: d.name(f["param"], "proc param"),
			Body:  d.expr(f["body"]),
		}

	case KeyCall:
		args := d.args(val, key, 2)
		if args == nil {
			return nil
		}
		return &ast.CallExpr{Span: span, Operator: args[0], Operand: args[1]}
	}

	d.addDiag(n.Content[0], "node kinds: "+strings.Join(kinds, ", "), "unknown node kind '%s'", key)
	return nil
}

// args decodes a sequence of exactly n sub-expressions.
func (d *decoder) args(n *yaml.Node, kind string, count int) []ast.Expr {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode || len(n.Content) != count {
		d.addDiag(n, "", "%s expects a list of %d expressions", kind, count)
		return nil
	}
	out := make([]ast.Expr, count)
	for i, child := range n.Content {
		out[i] = d.expr(child)
	}
	return out
}

// fields decodes a mapping that must hold exactly the given keys.
func (d *decoder) fields(n *yaml.Node, kind string, names ...string) map[string]*yaml.Node {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		d.addDiag(n, "", "%s expects a mapping with fields %s", kind, strings.Join(names, ", "))
		return nil
	}
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}

	out := make(map[string]*yaml.Node, len(names))
	ok := true
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !allowed[key.Value] {
			d.addDiag(key, "", "unknown field '%s' in %s", key.Value, kind)
			ok = false
			continue
		}
		if _, dup := out[key.Value]; dup {
			d.addDiag(key, "", "duplicate field '%s' in %s", key.Value, kind)
			ok = false
			continue
		}
		out[key.Value] = n.Content[i+1]
	}
	for _, name := range names {
		if _, found := out[name]; !found {
			d.addDiag(n, "", "missing field '%s' in %s", name, kind)
			ok = false
		}
	}
	if !ok {
		return nil
	}
	return out
}

// name decodes a non-empty string scalar.
func (d *decoder) name(n *yaml.Node, what string) string {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode || n.Tag != strTag || n.Value == "" {
		d.addDiag(n, "", "%s must be a non-empty string", what)
		return ""
	}
	return n.Value
}
