package codec

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
)

// Encode writes expr as a YAML document that Decode reads back to an equal
// tree.
func Encode(expr ast.Expr) ([]byte, error) {
	node, err := encodeExpr(expr)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("codec: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeExpr(expr ast.Expr) (*yaml.Node, error) {
	switch n := expr.(type) {
	case *ast.ConstExpr:
		return leaf(KeyConst, intNode(n.Value)), nil

	case *ast.VarExpr:
		return leaf(KeyVar, strNode(n.Name)), nil

	case *ast.DiffExpr:
		return list(KeyDiff, n.Left, n.Right)

	case *ast.ZeroTestExpr:
		operand, err := encodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return keyed(KeyZero, operand), nil

	case *ast.IfExpr:
		return list(KeyIf, n.Cond, n.Then, n.Else)

	case *ast.LetExpr:
		return record(KeyLet,
			field{"name", strNode(n.Name)},
			field{"value", n.Value},
			field{"body", n.Body})

	case *ast.LetRecExpr:
		return record(KeyLetRec,
			field{"name", strNode(n.ProcName)},
			field{"param", strNode(n.Param)},
			field{"proc", n.ProcBody},
			field{"body", n.Body})

	case *ast.ProcExpr:
		return record(KeyProc,
			field{"param", strNode(n.Param)},
			field{"body", n.Body})

	case *ast.CallExpr:
		return list(KeyCall, n.Operator, n.Operand)

	case nil:
		return nil, fmt.Errorf("codec: nil expression")
	}
	return nil, fmt.Errorf("codec: unknown expression node %s", expr.Kind())
}

// field is a record entry; val is either a *yaml.Node or an ast.Expr.
type field struct {
	key string
	val any
}

func record(kind string, fields ...field) (*yaml.Node, error) {
	body := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		var val *yaml.Node
		switch v := f.val.(type) {
		case *yaml.Node:
			val = v
		case ast.Expr:
			var err error
			if val, err = encodeExpr(v); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("codec: missing %s in %s", f.key, kind)
		}
		body.Content = append(body.Content, strNode(f.key), val)
	}
	return keyed(kind, body), nil
}

func list(kind string, exprs ...ast.Expr) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range exprs {
		child, err := encodeExpr(e)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, child)
	}
	return keyed(kind, seq), nil
}

func keyed(kind string, val *yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{strNode(kind), val}}
}

// leaf renders const and var nodes inline, e.g. {var: x}.
func leaf(kind string, val *yaml.Node) *yaml.Node {
	n := keyed(kind, val)
	n.Style = yaml.FlowStyle
	return n
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: strTag, Value: s}
}

func intNode(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}
