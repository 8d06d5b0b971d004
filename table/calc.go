package table

import (
	"fmt"

	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/schema"
)

// ErrNotDAG reports a calculated-column dependency cycle (spec §4.5:
// "Non-DAG graphs are an error surfaced at evaluation time").
type ErrNotDAG struct{ Columns []string }

func (e *ErrNotDAG) Error() string {
	return fmt.Sprintf("table: calculated-column dependency graph has a cycle involving %v", e.Columns)
}

// SortCalculatedColumns topologically orders t's calculated columns by each
// column's expression identifier set, so that any calculated column
// referenced by another is evaluated first (spec §4.5 "Calculated
// columns"). Callers re-sort lazily after a column add/property change
// (the `_sorted` flag named in the spec is the caller's responsibility,
// not this function's — it always performs a fresh sort).
func SortCalculatedColumns(t *schema.Table, eval iface.ExpressionEvaluator) ([]*schema.Column, error) {
	calc := t.CalculatedColumns()
	byName := make(map[string]*schema.Column, len(calc))
	for _, c := range calc {
		byName[c.Name] = c
	}

	deps := make(map[string][]string, len(calc))
	for _, c := range calc {
		ids, err := eval.Identifiers(c.CalcExpr)
		if err != nil {
			return nil, fmt.Errorf("table: calculated column %q: %w", c.Name, err)
		}
		for _, id := range ids {
			if _, isCalc := byName[id]; isCalc {
				deps[c.Name] = append(deps[c.Name], id)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(calc))
	var order []*schema.Column
	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return &ErrNotDAG{Columns: append(append([]string(nil), stack...), name)}
		}
		state[name] = visiting
		for _, dep := range deps[name] {
			if err := visit(dep, append(stack, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, byName[name])
		return nil
	}

	for _, c := range calc {
		if err := visit(c.Name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
