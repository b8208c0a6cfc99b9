package evaluator

// Budget holds the resource limits for an evaluation. A nil field is
// unlimited.
type Budget struct {
	TimeMs   *int64
	MaxDepth *int64
	MaxSteps *int64
}

// BudgetTracker tracks resource consumption during evaluation.
type BudgetTracker struct {
	Steps    int64
	Depth    int64
	MaxDepth int64
}
