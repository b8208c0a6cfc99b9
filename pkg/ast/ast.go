// Package ast defines the LETREC expression tree.
package ast

// Span represents a source location in an encoded tree file.
type Span struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Leaves ---

type ConstExpr struct {
	Span  Span
	Value int64
}

func (n *ConstExpr) Kind() string   { return "ConstExpr" }
func (n *ConstExpr) NodeSpan() Span { return n.Span }
func (n *ConstExpr) exprNode()      {}

type VarExpr struct {
	Span Span
	Name string
}

func (n *VarExpr) Kind() string   { return "VarExpr" }
func (n *VarExpr) NodeSpan() Span { return n.Span }
func (n *VarExpr) exprNode()      {}

// --- Arithmetic & Tests ---

type DiffExpr struct {
	Span  Span
	Left  Expr
	Right Expr
}

func (n *DiffExpr) Kind() string   { return "DiffExpr" }
func (n *DiffExpr) NodeSpan() Span { return n.Span }
func (n *DiffExpr) exprNode()      {}

type ZeroTestExpr struct {
	Span    Span
	Operand Expr
}

func (n *ZeroTestExpr) Kind() string   { return "ZeroTestExpr" }
func (n *ZeroTestExpr) NodeSpan() Span { return n.Span }
func (n *ZeroTestExpr) exprNode()      {}

// --- Control Flow ---

type IfExpr struct {
	Span Span
	Cond Expr
	Then Expr
	Else Expr
}

func (n *IfExpr) Kind() string   { return "IfExpr" }
func (n *IfExpr) NodeSpan() Span { return n.Span }
func (n *IfExpr) exprNode()      {}

// --- Binding Forms ---

type LetExpr struct {
	Span  Span
	Name  string
	Value Expr
	Body  Expr
}

func (n *LetExpr) Kind() string   { return "LetExpr" }
func (n *LetExpr) NodeSpan() Span { return n.Span }
func (n *LetExpr) exprNode()      {}

// LetRecExpr binds a single self-referential procedure ProcName for the
// evaluation of Body.
type LetRecExpr struct {
	Span     Span
	ProcName string
	Param    string
	ProcBody Expr
	Body     Expr
}

func (n *LetRecExpr) Kind() string   { return "LetRecExpr" }
func (n *LetRecExpr) NodeSpan() Span { return n.Span }
func (n *LetRecExpr) exprNode()      {}

// --- Procedures ---

type ProcExpr struct {
	Span  Span
	Param string
	Body  Expr
}

func (n *ProcExpr) Kind() string   { return "ProcExpr" }
func (n *ProcExpr) NodeSpan() Span { return n.Span }
func (n *ProcExpr) exprNode()      {}

type CallExpr struct {
	Span     Span
	Operator Expr
	Operand  Expr
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) exprNode()      {}
