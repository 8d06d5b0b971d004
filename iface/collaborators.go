// Package iface declares the narrow interfaces the core consumes but does
// not implement, per spec §6: page allocation/IO, property-map metadata,
// the expression-language runtime, and the page-set ("usage map") used for
// free-space tracking. Each is a thin seam the host application (the full
// Jet file reader/writer this core is embedded in) implements; this package
// also ships minimal in-memory fakes so the table/index engines can be
// tested without a real file-backed implementation.
package iface

// PageChannel is the allocator-of-pages abstraction: it owns physical page
// IO and allocation. The core never opens a file itself.
type PageChannel interface {
	// ReadPage fills buf (which must be exactly PageSize long) with the
	// contents of page pageNum.
	ReadPage(buf []byte, pageNum int) error
	// WritePage writes buf back to page pageNum.
	WritePage(buf []byte, pageNum int) error
	// AllocateNewPage reserves a fresh page and returns its page number.
	AllocateNewPage() (int, error)
	// CreatePageBuffer returns a zeroed buffer sized for one page; callers
	// should prefer this over make([]byte, n) so a pooling PageChannel can
	// reuse buffers.
	CreatePageBuffer() []byte
	// StartExclusiveWrite/FinishWrite bracket a multi-page structural
	// change (a B-tree split, a tdef grow) so the host can serialize it
	// against concurrent single-page writes if it supports any.
	StartExclusiveWrite()
	FinishWrite()
	// PageSize is the fixed page size of the open file.
	PageSize() int
}

// PropertyMap maps a property name to its (type, value) pair. The core only
// ever reads the "default" family of properties (default-value expressions,
// validation rule text); everything else is opaque to it.
type PropertyMap interface {
	// Get returns the raw value and a declared type tag for name.
	Get(name string) (value any, typ string, ok bool)
	// Put sets or replaces a property; used when the core installs a
	// generated default (e.g. after evaluating a calculated column once).
	Put(name string, value any, typ string)
}

// EvalContext is what the core hands to an ExpressionEvaluator: "this
// column's current value", "the rest of this row's values", and a generic
// identifier lookup (other columns, builtin functions).
type EvalContext interface {
	ColumnValue(name string) (any, bool)
	RowValues() map[string]any
	Lookup(identifier string) (any, bool)
}

// ExpressionEvaluator evaluates a validator, default-value, or
// calculated-column expression string against a context and returns the
// result (a Value, or a bool for a validator expression).
type ExpressionEvaluator interface {
	Evaluate(expr string, ctx EvalContext) (any, error)
	// Identifiers returns the set of column/identifier names expr
	// references, used by the table engine to topologically sort
	// calculated columns (spec §4.5, §9).
	Identifiers(expr string) ([]string, error)
}

// UsageMap is an opaque page-set: which pages belong to a table or index,
// and which of those have free space. ReverseIter walks pages from highest
// to lowest, matching the table engine's reverse free-space search (spec
// §4.5 step 7).
type UsageMap interface {
	Contains(page int) bool
	Add(page int)
	Remove(page int)
	ReverseIter(func(page int) bool)
}
