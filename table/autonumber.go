package table

import (
	"fmt"

	"github.com/google/uuid"
)

// AutonumberGenerator produces the next value for one autonumber column and
// adopts caller-supplied explicit values on insert (spec §4.5 "Autonumber
// generators"). Grounded on MycelicMemory's use of google/uuid for exactly
// the "generate, then format as a braced string" need the GUID variant has.
type AutonumberGenerator interface {
	// Next returns a freshly generated value for a new row.
	Next() (any, error)
	// HandleInsert adopts an explicitly supplied value v (allow-autonumber-
	// insert path), adjusting internal state so future Next() calls don't
	// collide with it.
	HandleInsert(v any) error
	// Restore rolls the generator back after v was assigned (used when a
	// later add_rows step fails and autonumber assignment must roll back).
	// Counter-based generators set their last value to v-1, which exactly
	// undoes a Next() that returned v; after HandleInsert(v) it does not
	// bring back an earlier last value that was higher or lower than v-1.
	Restore(v any) error
}

// LongGenerator assigns consecutive positive integers (spec: "the table
// stores the last integer. next = ++last").
type LongGenerator struct {
	last            int64
	allowExplicit   bool
}

func NewLongGenerator(allowExplicitInsert bool) *LongGenerator {
	return &LongGenerator{allowExplicit: allowExplicitInsert}
}

func (g *LongGenerator) Next() (any, error) {
	g.last++
	return g.last, nil
}

func (g *LongGenerator) HandleInsert(v any) error {
	n, ok := asInt64(v)
	if !ok {
		return fmt.Errorf("table: autonumber insert value is not an integer: %v", v)
	}
	if n <= 0 && !g.allowExplicit {
		return fmt.Errorf("table: explicit autonumber insert of %d not allowed", n)
	}
	if n > g.last {
		g.last = n
	}
	return nil
}

func (g *LongGenerator) Restore(v any) error {
	n, ok := asInt64(v)
	if !ok {
		return fmt.Errorf("table: cannot restore autonumber to non-integer %v", v)
	}
	g.last = n - 1
	return nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// GUIDGenerator emits a fresh random v4 GUID wrapped in braces on every
// Next(); there is no running counter to adjust, so HandleInsert/Restore
// are no-ops beyond validating the shape of v.
type GUIDGenerator struct{}

func (GUIDGenerator) Next() (any, error) {
	id := uuid.New()
	return fmt.Sprintf("{%s}", id.String()), nil
}

func (GUIDGenerator) HandleInsert(v any) error {
	s, ok := v.(string)
	if !ok || len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return fmt.Errorf("table: explicit GUID autonumber value must be a braced string, got %v", v)
	}
	if _, err := uuid.Parse(s[1 : len(s)-1]); err != nil {
		return fmt.Errorf("table: invalid GUID autonumber value: %w", err)
	}
	return nil
}

func (GUIDGenerator) Restore(any) error { return nil }

// ComplexGenerator hands out consecutive integers like LongGenerator, but
// every complex-FK column in the same row must share the value the first
// one generated (spec: "one value is shared across all complex FK columns
// in the same row; WriteRowState carries the decision"). WriteRowState is
// owned by the caller (the add_rows loop), not the generator.
type ComplexGenerator struct {
	last int64
}

func NewComplexGenerator() *ComplexGenerator { return &ComplexGenerator{} }

func (g *ComplexGenerator) Next() (any, error) {
	g.last++
	return g.last, nil
}

func (g *ComplexGenerator) HandleInsert(v any) error {
	n, ok := asInt64(v)
	if !ok {
		return fmt.Errorf("table: complex autonumber insert value is not an integer: %v", v)
	}
	if n > g.last {
		g.last = n
	}
	return nil
}

func (g *ComplexGenerator) Restore(v any) error {
	n, ok := asInt64(v)
	if !ok {
		return fmt.Errorf("table: cannot restore complex autonumber to non-integer %v", v)
	}
	g.last = n - 1
	return nil
}

// WriteRowState tracks per-row autonumber decisions across columns while
// add_rows processes a single row, so every complex-FK column sees the same
// generated value (spec §4.5 "Autonumber generators / Complex type").
type WriteRowState struct {
	complexValue    any
	complexAssigned bool
}

// ComplexValue returns the value every complex-FK column in this row should
// adopt, generating it from gen on the first call and reusing it after.
func (s *WriteRowState) ComplexValue(gen *ComplexGenerator) (any, error) {
	if s.complexAssigned {
		return s.complexValue, nil
	}
	v, err := gen.Next()
	if err != nil {
		return nil, err
	}
	s.complexValue = v
	s.complexAssigned = true
	return v, nil
}
