// Package relationship implements the FK/relationship engine (spec §4.6,
// components C6/C7): create-time validation, the two backing indexes every
// relationship maintains, and enforcement (existence checks plus cascade
// update/delete/null) wired into the table engine through table.FKEnforcer.
// It is adapted from the teacher's habit of keeping a second, purpose-built
// index alongside a table's primary one (page/index.go's clustered vs.
// secondary index distinction) generalized from "one extra lookup path" to
// "the FK engine's own private backing indexes", which table's own Indexes
// slice knows nothing about and never builds itself.
package relationship

import (
	"errors"
	"fmt"

	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/jeterr"
	"github.com/jetdb/jetdb/schema"
	"github.com/jetdb/jetdb/table"
)

var (
	ErrColumnCountMismatch = errors.New("relationship: primary and secondary column lists differ in length")
	ErrTypeMismatch        = errors.New("relationship: primary and secondary column types differ at position %d")
	ErrDuplicateColumn     = errors.New("relationship: duplicate column name in key")
	ErrNoUniqueIndex       = errors.New("relationship: referential integrity requires a unique index on the primary side")
	ErrOrphanRow           = errors.New("relationship: existing row's key is not present on the primary side")
)

// Options configures one relationship's constraint/cascade behavior (spec
// §4.6 "Enforcement").
type Options struct {
	Enforce       bool // require/police referential integrity at all
	CascadeUpdate bool // rewrite matching child rows when the parent key changes
	CascadeDelete bool // delete matching children when the parent row is deleted
	CascadeNull   bool // null out matching child key columns when the parent row is deleted
}

// Relationship is one FK link between a primary (parent) and secondary
// (child) table (spec §3 "Relationship").
type Relationship struct {
	Name          string
	Primary       *table.Engine
	PrimaryCols   []*schema.Column
	Secondary     *table.Engine
	SecondaryCols []*schema.Column
	Opts          Options
	OneToOne      bool

	primaryIndex   *table.IndexSpec // unique, this relationship's own backing index on the primary side
	secondaryIndex *table.IndexSpec // non-unique, named after the relationship, on the secondary side
}

// Registry tracks every relationship created against one set of tables, so
// it can hand out the primary-index naming sequence (spec: ".rB", ".rC",
// …, ".rZ", ".ra", …) and act as the single FKEnforcer every participating
// table.Engine defers to.
type Registry struct {
	relationships []*Relationship
}

func NewRegistry() *Registry { return &Registry{} }

const primaryIndexLetters = "BCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func (r *Registry) nextPrimaryIndexName() string {
	n := len(r.relationships)
	if n < len(primaryIndexLetters) {
		return ".r" + string(primaryIndexLetters[n])
	}
	// The named sequence only covers 51 relationships; extend it the
	// obvious way rather than erroring out on the 52nd.
	return fmt.Sprintf(".r%d", n)
}

// Create validates and establishes a relationship from primary's
// primaryColNames to secondary's secondaryColNames, per spec §4.6 "Create".
func (r *Registry) Create(name string, primary *table.Engine, primaryColNames []string, secondary *table.Engine, secondaryColNames []string, opts Options) (*Relationship, error) {
	primaryCols, err := resolveColumns(primary.Table, primaryColNames)
	if err != nil {
		return nil, err
	}
	secondaryCols, err := resolveColumns(secondary.Table, secondaryColNames)
	if err != nil {
		return nil, err
	}
	if len(primaryCols) != len(secondaryCols) {
		return nil, ErrColumnCountMismatch
	}
	if hasDuplicateNames(primaryCols) || hasDuplicateNames(secondaryCols) {
		return nil, ErrDuplicateColumn
	}
	for i := range primaryCols {
		if primaryCols[i].Spec.Type != secondaryCols[i].Spec.Type {
			return nil, fmt.Errorf(ErrTypeMismatch.Error(), i)
		}
	}

	if opts.Enforce {
		if _, ok := findIndex(primary, primaryCols, true); !ok {
			return nil, jeterr.ConstraintViolation(jeterr.Context{Table: primary.Table.Name, Relationship: name}, ErrNoUniqueIndex.Error(), nil)
		}
	}

	ascending := allAscending(len(primaryCols))

	primaryTree, err := newBackingTree(primary, true)
	if err != nil {
		return nil, err
	}
	primaryIdx := &table.IndexSpec{
		Name:      r.nextPrimaryIndexName(),
		Tree:      primaryTree,
		Columns:   primaryCols,
		Ascending: ascending,
		Unique:    true,
	}
	if err := backfill(primary, primaryIdx.Columns, primaryIdx.Ascending, primaryTree); err != nil {
		return nil, err
	}

	secondaryTree, err := newBackingTree(secondary, false)
	if err != nil {
		return nil, err
	}
	secondaryIdx := &table.IndexSpec{
		Name:      name,
		Tree:      secondaryTree,
		Columns:   secondaryCols,
		Ascending: ascending,
		Unique:    false,
	}
	if err := backfill(secondary, secondaryIdx.Columns, secondaryIdx.Ascending, secondaryTree); err != nil {
		return nil, err
	}

	_, oneToOne := findIndex(secondary, secondaryCols, true)

	rel := &Relationship{
		Name:           name,
		Primary:        primary,
		PrimaryCols:    primaryCols,
		Secondary:      secondary,
		SecondaryCols:  secondaryCols,
		Opts:           opts,
		OneToOne:       oneToOne,
		primaryIndex:   primaryIdx,
		secondaryIndex: secondaryIdx,
	}

	// Referential-integrity scan: every existing secondary row's key must
	// already resolve on the primary side (spec §4.6 "Then scan the
	// secondary table for existing rows..."), ignoring all-null keys.
	if opts.Enforce {
		scanErr := secondary.ForEachRow(func(_ index.RowID, values map[string]any) error {
			if allNull(secondaryCols, values) {
				return nil
			}
			key, err := table.EncodeCompositeKey(primaryCols, ascending, renameValues(secondaryCols, primaryCols, values))
			if err != nil {
				return err
			}
			if _, found, err := primaryTree.Find(key); err != nil {
				return err
			} else if !found {
				return ErrOrphanRow
			}
			return nil
		})
		if scanErr != nil {
			return nil, jeterr.ConstraintViolation(jeterr.Context{Table: secondary.Table.Name, Relationship: name}, "existing row violates referential integrity", scanErr)
		}
	}

	primary.Indexes = append(primary.Indexes, primaryIdx)
	secondary.Indexes = append(secondary.Indexes, secondaryIdx)
	r.relationships = append(r.relationships, rel)
	return rel, nil
}

func resolveColumns(t *schema.Table, names []string) ([]*schema.Column, error) {
	out := make([]*schema.Column, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func hasDuplicateNames(cols []*schema.Column) bool {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return true
		}
		seen[c.Name] = true
	}
	return false
}

func allAscending(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// findIndex reports whether engine already carries an index over exactly
// cols, in order, matching the uniqueness requirement.
func findIndex(e *table.Engine, cols []*schema.Column, requireUnique bool) (*table.IndexSpec, bool) {
	for _, ix := range e.Indexes {
		if requireUnique && !ix.Unique {
			continue
		}
		if sameColumns(ix.Columns, cols) {
			return ix, true
		}
	}
	return nil, false
}

func sameColumns(a, b []*schema.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

func newBackingTree(e *table.Engine, unique bool) (*index.Tree, error) {
	return index.NewTree(e.Channel, unique)
}

func backfill(e *table.Engine, cols []*schema.Column, ascending []bool, tree *index.Tree) error {
	return e.ForEachRow(func(id index.RowID, values map[string]any) error {
		key, err := table.EncodeCompositeKey(cols, ascending, values)
		if err != nil {
			return err
		}
		return tree.Insert(key, id)
	})
}

func allNull(cols []*schema.Column, values map[string]any) bool {
	for _, c := range cols {
		if values[c.Name] != nil {
			return false
		}
	}
	return true
}

// renameValues rebuilds a values map keyed by `to`'s column names from one
// keyed by `from`'s, position for position — used to compare a secondary
// row's FK values against the primary side's key encoding.
func renameValues(from, to []*schema.Column, values map[string]any) map[string]any {
	out := make(map[string]any, len(from))
	for i := range from {
		out[to[i].Name] = values[from[i].Name]
	}
	return out
}
