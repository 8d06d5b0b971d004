// Package schema defines the Table/Column model (spec §3 "Table"/"Column")
// and a CREATE-TABLE-string convenience builder on top of it. It is adapted
// from the teacher's schema/column.go, schema/table_def.go (MySQL/InnoDB
// table metadata, parsed from a sqlparser.DDL): the Column struct keeps the
// same "identify by ordinal, carry physical layout plus nullability"
// shape, generalized from MySQL's ColumnType taxonomy to column.DataType and
// extended with the validator chain, autonumber, and calculated-column
// attributes spec §3 "Column" requires that a MySQL table definition has no
// equivalent for.
package schema

import (
	"errors"
	"fmt"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/iface"
)

var (
	ErrUnsupportedType  = errors.New("schema: unsupported column type")
	ErrColumnExists     = errors.New("schema: column already exists")
	ErrColumnNotFound   = errors.New("schema: column not found")
	ErrValidationFailed = errors.New("schema: value failed validation")
)

// Validator is one link of a column's validator chain (spec §3 "Validator
// chain"): each internal validator wraps a delegate, the external validator
// (if any) sits at the tail.
type Validator interface {
	Validate(value any, ctx iface.EvalContext) error
}

// identityValidator accepts everything; it terminates every chain and is
// the sole validator autonumber columns carry (spec §3 invariant).
type identityValidator struct{}

func (identityValidator) Validate(any, iface.EvalContext) error { return nil }

// Identity is the chain terminator / autonumber-column validator.
var Identity Validator = identityValidator{}

// requiredValidator rejects a null value, delegating otherwise.
type requiredValidator struct{ delegate Validator }

func (v requiredValidator) Validate(value any, ctx iface.EvalContext) error {
	if value == nil {
		return fmt.Errorf("%w: value is required", ErrValidationFailed)
	}
	return v.delegate.Validate(value, ctx)
}

// Required wraps delegate with a not-null check.
func Required(delegate Validator) Validator { return requiredValidator{delegate: delegate} }

// noZeroLenValidator rejects a zero-length string, delegating otherwise.
type noZeroLenValidator struct{ delegate Validator }

func (v noZeroLenValidator) Validate(value any, ctx iface.EvalContext) error {
	if s, ok := value.(string); ok && s == "" {
		return fmt.Errorf("%w: zero-length text not allowed", ErrValidationFailed)
	}
	return v.delegate.Validate(value, ctx)
}

// NoZeroLen wraps delegate with a zero-length-text check.
func NoZeroLen(delegate Validator) Validator { return noZeroLenValidator{delegate: delegate} }

// expressionValidator evaluates a boolean expression against the row
// context, rejecting the value when it evaluates false.
type expressionValidator struct {
	expr     string
	eval     iface.ExpressionEvaluator
	delegate Validator
}

func (v expressionValidator) Validate(value any, ctx iface.EvalContext) error {
	result, err := v.eval.Evaluate(v.expr, ctx)
	if err != nil {
		return fmt.Errorf("%w: validation expression %q: %v", ErrValidationFailed, v.expr, err)
	}
	if ok, isBool := result.(bool); isBool && !ok {
		return fmt.Errorf("%w: expression %q", ErrValidationFailed, v.expr)
	}
	return v.delegate.Validate(value, ctx)
}

// Expression wraps delegate with a validation-rule expression check.
func Expression(expr string, eval iface.ExpressionEvaluator, delegate Validator) Validator {
	return expressionValidator{expr: expr, eval: eval, delegate: delegate}
}

// externalValidator is the caller-supplied tail of the chain, wrapping a
// plain function so callers don't need to implement the interface.
type externalValidator struct {
	fn       func(value any, ctx iface.EvalContext) error
	delegate Validator
}

func (v externalValidator) Validate(value any, ctx iface.EvalContext) error {
	if v.fn != nil {
		if err := v.fn(value, ctx); err != nil {
			return err
		}
	}
	return v.delegate.Validate(value, ctx)
}

// External wraps delegate with a caller-supplied validation function.
func External(fn func(value any, ctx iface.EvalContext) error, delegate Validator) Validator {
	return externalValidator{fn: fn, delegate: delegate}
}

// Column is one column of a Table (spec §3 "Column"): identified by
// (table, column number, column index), carrying the physical layout the
// row/index codecs need plus the metadata the table engine's add/update
// pipeline consumes.
type Column struct {
	Name          string
	Number        int // stable identity, assigned once, never reused
	Index         int // current ordinal among all columns (display order)
	Spec          column.Spec
	Nullable      bool
	IsAutonumber  bool
	IsCalculated  bool
	IsHyperlink   bool
	IsAppendOnly  bool
	Ascending     bool // index-key sort direction when this column is indexed
	DefaultExpr   string
	CalcExpr      string
	Validator     Validator
	varOrder      int // offset-table slot, assigned when added to a Table
}

// NewColumn builds a column carrying only the identity validator; callers
// compose Required/NoZeroLen/Expression/External around it as needed.
func NewColumn(name string, spec column.Spec, nullable bool) *Column {
	return &Column{Name: name, Spec: spec, Nullable: nullable, Validator: Identity}
}

func (c *Column) IsVariableLength() bool { return c.Spec.Type.IsVariableLength() }
func (c *Column) IsNullMaskOnly() bool   { return c.Spec.Type.IsNullMaskOnly() }
func (c *Column) FixedSize() int         { return c.Spec.Type.FixedSize() }
