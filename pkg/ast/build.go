package ast

// Constructors for building trees in Go code. Nodes built this way carry a
// zero Span.

func Const(v int64) Expr { return &ConstExpr{Value: v} }

func Var(name string) Expr { return &VarExpr{Name: name} }

func Diff(left, right Expr) Expr { return &DiffExpr{Left: left, Right: right} }

func ZeroTest(operand Expr) Expr { return &ZeroTestExpr{Operand: operand} }

func If(cond, then, els Expr) Expr { return &IfExpr{Cond: cond, Then: then, Else: els} }

func Let(name string, value, body Expr) Expr {
	return &LetExpr{Name: name, Value: value, Body: body}
}

func LetRec(procName, param string, procBody, body Expr) Expr {
	return &LetRecExpr{ProcName: procName, Param: param, ProcBody: procBody, Body: body}
}

func Proc(param string, body Expr) Expr { return &ProcExpr{Param: param, Body: body} }

func Call(operator, operand Expr) Expr { return &CallExpr{Operator: operator, Operand: operand} }

// Equal reports whether two trees have the same shape, names and constants.
// Spans are ignored.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *ConstExpr:
		y, ok := b.(*ConstExpr)
		return ok && x.Value == y.Value
	case *VarExpr:
		y, ok := b.(*VarExpr)
		return ok && x.Name == y.Name
	case *DiffExpr:
		y, ok := b.(*DiffExpr)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *ZeroTestExpr:
		y, ok := b.(*ZeroTestExpr)
		return ok && Equal(x.Operand, y.Operand)
	case *IfExpr:
		y, ok := b.(*IfExpr)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case *LetExpr:
		y, ok := b.(*LetExpr)
		return ok && x.Name == y.Name && Equal(x.Value, y.Value) && Equal(x.Body, y.Body)
	case *LetRecExpr:
		y, ok := b.(*LetRecExpr)
		return ok && x.ProcName == y.ProcName && x.Param == y.Param &&
			Equal(x.ProcBody, y.ProcBody) && Equal(x.Body, y.Body)
	case *ProcExpr:
		y, ok := b.(*ProcExpr)
		return ok && x.Param == y.Param && Equal(x.Body, y.Body)
	case *CallExpr:
		y, ok := b.(*CallExpr)
		return ok && Equal(x.Operator, y.Operator) && Equal(x.Operand, y.Operand)
	}
	return false
}
