// Package jeterr defines the error taxonomy every jetdb package returns
// through, per spec §7: InvalidValue, ConstraintViolation, Io, BatchUpdate,
// and Unsupported. Every error is decorated with the (Db=;Table=;Column=)
// (or Index=/Relationship=) context the spec requires for traceability,
// following the teacher's habit of wrapping with fmt.Errorf("...: %w", err)
// rather than inventing a stack-trace framework.
package jeterr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which branch of the taxonomy an error belongs to, so
// callers can type-switch without parsing message text.
type Kind int

const (
	KindInvalidValue Kind = iota
	KindConstraintViolation
	KindIo
	KindBatchUpdate
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindInvalidValue:
		return "InvalidValue"
	case KindConstraintViolation:
		return "ConstraintViolation"
	case KindIo:
		return "Io"
	case KindBatchUpdate:
		return "BatchUpdate"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Context names the database/table/column (or index/relationship) a failure
// occurred against. Zero-value fields are omitted from the rendered message.
type Context struct {
	Db           string
	Table        string
	Column       string
	Index        string
	Relationship string
}

func (c Context) String() string {
	var parts []string
	if c.Db != "" {
		parts = append(parts, "Db="+c.Db)
	}
	if c.Table != "" {
		parts = append(parts, "Table="+c.Table)
	}
	if c.Column != "" {
		parts = append(parts, "Column="+c.Column)
	}
	if c.Index != "" {
		parts = append(parts, "Index="+c.Index)
	}
	if c.Relationship != "" {
		parts = append(parts, "Relationship="+c.Relationship)
	}
	return strings.Join(parts, ";")
}

// Error is the concrete error type every jetdb package returns.
type Error struct {
	Kind    Kind
	Ctx     Context
	Msg     string
	Cause   error
	// WrittenCount is only meaningful for KindBatchUpdate: the number of
	// rows of a batch add_rows call that were durably written before the
	// failure.
	WrittenCount int
	// RowErrors holds the per-row cause for a partially-succeeded batch,
	// indexed the same as the caller's input row slice.
	RowErrors map[int]error
}

func (e *Error) Error() string {
	ctx := e.Ctx.String()
	if ctx == "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Msg, ctx, e.Cause)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, ctx)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, ctx Context, msg string, cause error) *Error {
	return &Error{Kind: kind, Ctx: ctx, Msg: msg, Cause: cause}
}

func InvalidValue(ctx Context, msg string, cause error) *Error {
	return newErr(KindInvalidValue, ctx, msg, cause)
}

func ConstraintViolation(ctx Context, msg string, cause error) *Error {
	return newErr(KindConstraintViolation, ctx, msg, cause)
}

func Io(ctx Context, msg string, cause error) *Error {
	return newErr(KindIo, ctx, msg, cause)
}

func Unsupported(ctx Context, msg string, cause error) *Error {
	return newErr(KindUnsupported, ctx, msg, cause)
}

// BatchUpdate wraps a logical failure that occurred partway through a
// multi-row add_rows call, carrying how many rows were durably written
// before it and (if known) the per-row causes.
func BatchUpdate(ctx Context, writtenCount int, rowErrors map[int]error, cause error) *Error {
	e := newErr(KindBatchUpdate, ctx, fmt.Sprintf("partial batch: %d row(s) written", writtenCount), cause)
	e.WrittenCount = writtenCount
	e.RowErrors = rowErrors
	return e
}

// Is reports whether err, or an error it wraps, is a *Error of the given
// kind (found via errors.As). A Kind is not itself an error, so
// errors.Is(err, jeterr.KindX) does not work; callers use this function or
// errors.As to reach the Kind field.
func Is(err error, kind Kind) bool {
	var je *Error
	if errors.As(err, &je) {
		return je.Kind == kind
	}
	return false
}
