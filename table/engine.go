package table

import (
	"fmt"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/jeterr"
	"github.com/jetdb/jetdb/page"
	"github.com/jetdb/jetdb/row"
	"github.com/jetdb/jetdb/schema"
)

// IndexSpec is one index the engine keeps in sync with row storage: its
// B-tree, the columns contributing to its composite key (in key order),
// their individual sort directions, and whether it rejects duplicate keys.
type IndexSpec struct {
	Name      string
	Tree      *index.Tree
	Columns   []*schema.Column
	Ascending []bool
	Unique    bool
}

func (ix *IndexSpec) encodeKey(values map[string]any) ([]byte, error) {
	return EncodeCompositeKey(ix.Columns, ix.Ascending, values)
}

// FKEnforcer is the seam a relationship engine implements so Engine can
// enforce referential integrity and cascade rules without table importing
// relationship (spec §4.6 calls back into §4.5's row mutation machinery;
// iface's "core declares, host implements" shape, generalized one level so
// the two domain packages of this module can cooperate without a cycle).
// A nil FKEnforcer disables all referential-integrity checking.
type FKEnforcer interface {
	BeforeAddRow(table string, values map[string]any) error
	BeforeUpdateRow(table string, oldValues, newValues map[string]any) error
	BeforeDeleteRow(table string, values map[string]any) error
}

// RowValidator is an optional table-level validation hook run after every
// column's own validator chain passes (spec §4.5 step 5, "row-level
// validator").
type RowValidator func(values map[string]any) error

// Engine is the table engine (spec §4.5, component C4): it owns a
// schema.Table's row storage, its autonumber generators, its calculated-
// column evaluation order, and the set of indexes add_rows/update_row/
// delete_row must keep current. It is adapted from the teacher's top-level
// page-locate-mutate-persist flow, generalized from a read-only page walk
// into a full mutate-and-persist pipeline.
type Engine struct {
	Table       *schema.Table
	Format      Format
	Layout      *row.Layout
	Channel     iface.PageChannel
	Eval        iface.ExpressionEvaluator
	Pages       iface.UsageMap
	Indexes     []*IndexSpec
	FKs         FKEnforcer
	RowValidate RowValidator
	TdefPage    uint32

	autonumbers map[string]AutonumberGenerator
	calcOrder   []*schema.Column
	tdefCache   []byte
}

// NewEngine builds an Engine over an existing schema.Table, deriving its
// row.Layout from t and f. Callers register autonumber generators with
// SetAutonumberGenerator and indexes by appending to Indexes before the
// first AddRows call.
func NewEngine(t *schema.Table, f Format, channel iface.PageChannel, eval iface.ExpressionEvaluator, pages iface.UsageMap, tdefPage uint32) *Engine {
	return &Engine{
		Table:       t,
		Format:      f,
		Layout:      BuildLayout(t, f),
		Channel:     channel,
		Eval:        eval,
		Pages:       pages,
		TdefPage:    tdefPage,
		autonumbers: make(map[string]AutonumberGenerator),
	}
}

// SetAutonumberGenerator registers the generator backing an autonumber
// column. Every column with IsAutonumber set must have one registered
// before AddRows is called.
func (e *Engine) SetAutonumberGenerator(columnName string, gen AutonumberGenerator) {
	e.autonumbers[columnName] = gen
}

// RebuildLayout regenerates Layout and the calculated-column evaluation
// order after a column is added or dropped (spec §4.5 "Table-definition
// mutation" invalidates both).
func (e *Engine) RebuildLayout() {
	e.Layout = BuildLayout(e.Table, e.Format)
	e.calcOrder = nil
	e.tdefCache = nil
}

func (e *Engine) ensureCalcOrder() error {
	if e.calcOrder != nil || len(e.Table.CalculatedColumns()) == 0 {
		return nil
	}
	order, err := SortCalculatedColumns(e.Table, e.Eval)
	if err != nil {
		return err
	}
	e.calcOrder = order
	return nil
}

type rowEvalContext struct{ values map[string]any }

func (c rowEvalContext) ColumnValue(name string) (any, bool) { v, ok := c.values[name]; return v, ok }
func (c rowEvalContext) RowValues() map[string]any           { return c.values }
func (c rowEvalContext) Lookup(id string) (any, bool)        { v, ok := c.values[id]; return v, ok }

// AddRows inserts rowsIn (each a column name -> value map; absent keys mean
// "use the default / let the column decide") as new rows, per spec §4.5's
// add_rows algorithm. It returns the RowID assigned to each input row in
// order. On a row's failure partway through a batch, already-written rows
// are kept (a jeterr.BatchUpdate error reports how many and the per-row
// causes), matching spec §7's partial-success batch semantics.
func (e *Engine) AddRows(rowsIn []map[string]any) ([]index.RowID, error) {
	ids := make([]index.RowID, 0, len(rowsIn))
	rowErrors := make(map[int]error)
	state := &WriteRowState{}
	for i, values := range rowsIn {
		id, err := e.addOneRow(values, state)
		if err != nil {
			rowErrors[i] = err
			return ids, jeterr.BatchUpdate(jeterr.Context{Table: e.Table.Name}, len(ids), rowErrors, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// addOneRow runs the full ten-step pipeline for one row.
func (e *Engine) addOneRow(values map[string]any, state *WriteRowState) (index.RowID, error) {
	merged := make(map[string]any, len(e.Table.Columns))
	for _, c := range e.Table.Columns {
		merged[c.Name] = values[c.Name]
	}
	ctx := rowEvalContext{values: merged}

	// Step 2: defaults, then validators (skipping autonumber/calculated
	// columns, whose values don't exist yet).
	for _, c := range e.Table.Columns {
		if c.IsAutonumber || c.IsCalculated {
			continue
		}
		if merged[c.Name] == nil && c.DefaultExpr != "" {
			v, err := e.Eval.Evaluate(c.DefaultExpr, ctx)
			if err != nil {
				return index.RowID{}, fmt.Errorf("table: column %q default: %w", c.Name, err)
			}
			merged[c.Name] = v
		}
		if err := c.Validator.Validate(merged[c.Name], ctx); err != nil {
			return index.RowID{}, jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name, Column: c.Name}, "validation failed", err)
		}
	}

	// Step 3: assign autonumbers, tracking what was assigned so a later
	// failure can roll generator state back (spec §4.5 "rollback-on-failure
	// covers... autonumber assignment").
	assigned := make(map[string]any)
	for _, c := range e.Table.AutonumberColumns() {
		gen := e.autonumbers[c.Name]
		if gen == nil {
			return index.RowID{}, fmt.Errorf("table: column %q has no autonumber generator registered", c.Name)
		}
		var v any
		var err error
		if complexGen, ok := gen.(*ComplexGenerator); ok && merged[c.Name] == nil {
			v, err = state.ComplexValue(complexGen)
		} else if merged[c.Name] != nil {
			v = merged[c.Name]
			err = gen.HandleInsert(v)
		} else {
			v, err = gen.Next()
		}
		if err != nil {
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name, Column: c.Name}, "autonumber assignment failed", err)
		}
		merged[c.Name] = v
		assigned[c.Name] = v
	}

	// Step 4: calculated columns, in dependency order.
	if err := e.ensureCalcOrder(); err != nil {
		e.rollbackAutonumbers(assigned)
		return index.RowID{}, err
	}
	for _, c := range e.calcOrder {
		v, err := e.Eval.Evaluate(c.CalcExpr, ctx)
		if err != nil {
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, fmt.Errorf("table: calculated column %q: %w", c.Name, err)
		}
		merged[c.Name] = v
	}

	// Step 5: row-level validator.
	if e.RowValidate != nil {
		if err := e.RowValidate(merged); err != nil {
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name}, "row validation failed", err)
		}
	}

	// Step 6: serialize.
	data, err := e.encodeRow(merged)
	if err != nil {
		e.rollbackAutonumbers(assigned)
		return index.RowID{}, err
	}

	// Step 7/10a: find or create a data page with room, and slot the row.
	pageNum, slot, err := e.placeRow(data)
	if err != nil {
		e.rollbackAutonumbers(assigned)
		return index.RowID{}, jeterr.Io(jeterr.Context{Table: e.Table.Name}, "could not place row", err)
	}
	rowID := index.RowID{PageNumber: pageNum, RowNumber: byte(slot)}

	// Step 8: FK enforcement.
	if e.FKs != nil {
		if err := e.FKs.BeforeAddRow(e.Table.Name, merged); err != nil {
			e.undoPlacement(pageNum, slot)
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name}, "referential integrity check failed", err)
		}
	}

	// Step 9: build and commit per-index pending changes.
	var changes []*index.AddRowPendingChange
	for _, ix := range e.Indexes {
		key, err := ix.encodeKey(merged)
		if err != nil {
			e.undoPlacement(pageNum, slot)
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, err
		}
		change, err := index.PrepareAddRow(ix.Tree, index.Entry{Key: key, Row: rowID})
		if err != nil {
			e.undoPlacement(pageNum, slot)
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, err
		}
		if change.IsDupeEntry {
			e.undoPlacement(pageNum, slot)
			e.rollbackAutonumbers(assigned)
			return index.RowID{}, jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name, Index: ix.Name}, "duplicate key in unique index", index.ErrDuplicateKey)
		}
		changes = append(changes, change)
	}
	head := index.Chain(changes...)
	if err := index.CommitAll(head); err != nil {
		_ = index.RollbackAll(head)
		e.undoPlacement(pageNum, slot)
		e.rollbackAutonumbers(assigned)
		return index.RowID{}, err
	}

	return rowID, nil
}

func (e *Engine) rollbackAutonumbers(assigned map[string]any) {
	for name, v := range assigned {
		if gen := e.autonumbers[name]; gen != nil {
			_ = gen.Restore(v)
		}
	}
}

// undoPlacement reverses placeRow after a later step fails: the row is
// marked deleted in place (its slot is never reused by this engine, so
// leaving the hole is cheaper and safer than compacting mid-failure).
func (e *Engine) undoPlacement(pageNum uint32, slot int) {
	buf := e.Channel.CreatePageBuffer()
	if err := e.Channel.ReadPage(buf, int(pageNum)); err != nil {
		return
	}
	dp, err := page.ParseDataPage(buf)
	if err != nil {
		return
	}
	_ = dp.DeleteRow(slot)
	_ = e.Channel.WritePage(dp.Bytes(), int(pageNum))
}

// encodeRow builds one row's on-disk bytes from its final column values.
func (e *Engine) encodeRow(merged map[string]any) ([]byte, error) {
	values := make([]row.Value, len(e.Table.Columns))
	for i, c := range e.Table.Columns {
		v := merged[c.Name]
		switch {
		case c.IsNullMaskOnly():
			isTrue := false
			if v != nil {
				b, ok := v.(bool)
				if !ok {
					return nil, jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name, Column: c.Name}, "not a bool", nil)
				}
				isTrue = b
			}
			values[i] = row.Value{IsTrue: isTrue}
		case v == nil:
			values[i] = row.Value{IsNull: true}
		default:
			bytes, err := column.Write(v, &c.Spec)
			if err != nil {
				return nil, jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name, Column: c.Name}, "encode failed", err)
			}
			values[i] = row.Value{Bytes: bytes}
		}
	}
	data, err := row.BuildRow(e.Layout, values)
	if err != nil {
		return nil, jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name}, "row does not fit", err)
	}
	return data, nil
}

// placeRow finds a data page with enough free space for data (searching
// Pages from highest page number down, per spec §4.5 step 7), or allocates
// a fresh one, and slots data into it.
func (e *Engine) placeRow(data []byte) (uint32, int, error) {
	need := len(data) + page.SlotSize
	var found uint32
	var ok bool
	e.Pages.ReverseIter(func(p int) bool {
		buf := e.Channel.CreatePageBuffer()
		if err := e.Channel.ReadPage(buf, p); err != nil {
			return true
		}
		dp, err := page.ParseDataPage(buf)
		if err != nil {
			return true
		}
		if dp.FreeSpace() >= need {
			found = uint32(p)
			ok = true
			return false
		}
		return true
	})

	if ok {
		buf := e.Channel.CreatePageBuffer()
		if err := e.Channel.ReadPage(buf, int(found)); err != nil {
			return 0, 0, err
		}
		dp, err := page.ParseDataPage(buf)
		if err != nil {
			return 0, 0, err
		}
		slot, err := dp.AddRow(data)
		if err != nil {
			return 0, 0, err
		}
		if err := e.Channel.WritePage(dp.Bytes(), int(found)); err != nil {
			return 0, 0, err
		}
		return found, slot, nil
	}

	newPageNum, err := e.Channel.AllocateNewPage()
	if err != nil {
		return 0, 0, err
	}
	dp := page.NewDataPage(e.Format.PageSize, e.TdefPage)
	slot, err := dp.AddRow(data)
	if err != nil {
		return 0, 0, err
	}
	if err := e.Channel.WritePage(dp.Bytes(), newPageNum); err != nil {
		return 0, 0, err
	}
	e.Pages.Add(newPageNum)
	return uint32(newPageNum), slot, nil
}

// readDataPage reads pageNum fresh from the channel and parses it. Callers
// that hold an earlier *page.DataPage for the same page must re-read through
// this helper before writing it back if an intervening call (e.g. placeRow)
// may have written to that same page underneath them.
func (e *Engine) readDataPage(pageNum uint32) (*page.DataPage, error) {
	buf := e.Channel.CreatePageBuffer()
	if err := e.Channel.ReadPage(buf, int(pageNum)); err != nil {
		return nil, err
	}
	return page.ParseDataPage(buf)
}

// resolvePhysical follows a RowID through any overflow indirection left by
// a prior grow-in-place update (spec §3 "Overflow row") to the page/slot
// actually holding the row's live bytes.
func (e *Engine) resolvePhysical(id index.RowID) (*page.DataPage, uint32, int, []byte, error) {
	pageNum := id.PageNumber
	slot := int(id.RowNumber)
	for {
		buf := e.Channel.CreatePageBuffer()
		if err := e.Channel.ReadPage(buf, int(pageNum)); err != nil {
			return nil, 0, 0, nil, err
		}
		dp, err := page.ParseDataPage(buf)
		if err != nil {
			return nil, 0, 0, nil, err
		}
		body, overflow, err := dp.RowBytes(slot)
		if err != nil {
			return nil, 0, 0, nil, err
		}
		if overflow == nil {
			return dp, pageNum, slot, body, nil
		}
		pageNum = overflow.PageNumber
		slot = int(overflow.RowNumber)
	}
}

// ReadRow decodes the current live values of the row identified by id.
func (e *Engine) ReadRow(id index.RowID) (map[string]any, error) {
	_, _, _, body, err := e.resolvePhysical(id)
	if err != nil {
		return nil, err
	}
	fields, err := row.ReadRow(body, e.Layout)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(e.Table.Columns))
	for _, c := range e.Table.Columns {
		f := fields[c.Name]
		if c.IsNullMaskOnly() {
			out[c.Name] = f.IsTrue
			continue
		}
		if f.IsNull {
			out[c.Name] = nil
			continue
		}
		v, err := column.Read(f.Bytes, &c.Spec)
		if err != nil {
			return nil, fmt.Errorf("table: column %q: %w", c.Name, err)
		}
		out[c.Name] = v
	}
	return out, nil
}

// UpdateRow replaces the row identified by id with newValues (only the keys
// present override the row's current values; the rest are left as-is), per
// spec §4.5 "Row update": a same-size re-encoding rewrites the existing row
// body in place, a different-size one writes a fresh row elsewhere and
// leaves the old slot as an overflow pointer, so id continues to resolve
// correctly. The stable row identity — and so every index entry pointing
// at it — never changes.
func (e *Engine) UpdateRow(id index.RowID, newValues map[string]any) error {
	oldValues, err := e.ReadRow(id)
	if err != nil {
		return err
	}
	merged := make(map[string]any, len(oldValues))
	for k, v := range oldValues {
		merged[k] = v
	}
	for k, v := range newValues {
		merged[k] = v
	}
	ctx := rowEvalContext{values: merged}

	for _, c := range e.Table.Columns {
		if c.IsAutonumber || c.IsCalculated {
			continue
		}
		if err := c.Validator.Validate(merged[c.Name], ctx); err != nil {
			return jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name, Column: c.Name}, "validation failed", err)
		}
	}
	if err := e.ensureCalcOrder(); err != nil {
		return err
	}
	for _, c := range e.calcOrder {
		v, err := e.Eval.Evaluate(c.CalcExpr, ctx)
		if err != nil {
			return fmt.Errorf("table: calculated column %q: %w", c.Name, err)
		}
		merged[c.Name] = v
	}
	if e.RowValidate != nil {
		if err := e.RowValidate(merged); err != nil {
			return jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name}, "row validation failed", err)
		}
	}
	if e.FKs != nil {
		if err := e.FKs.BeforeUpdateRow(e.Table.Name, oldValues, merged); err != nil {
			return jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name}, "referential integrity check failed", err)
		}
	}

	newData, err := e.encodeRow(merged)
	if err != nil {
		return err
	}

	dp, pageNum, slot, oldBody, err := e.resolvePhysical(id)
	if err != nil {
		return err
	}

	var changes []*index.AddRowPendingChange
	for _, ix := range e.Indexes {
		oldKey, err := ix.encodeKey(oldValues)
		if err != nil {
			return err
		}
		newKey, err := ix.encodeKey(merged)
		if err != nil {
			return err
		}
		change, err := index.PrepareUpdateRow(ix.Tree, index.Entry{Key: oldKey, Row: id}, index.Entry{Key: newKey, Row: id})
		if err != nil {
			return err
		}
		if change.IsDupeEntry {
			_ = index.RollbackAll(index.Chain(changes...))
			return jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name, Index: ix.Name}, "duplicate key in unique index", index.ErrDuplicateKey)
		}
		changes = append(changes, change)
	}
	head := index.Chain(changes...)
	if err := index.CommitAll(head); err != nil {
		_ = index.RollbackAll(head)
		return err
	}

	if len(newData) == len(oldBody) {
		if err := dp.RewriteRow(slot, newData); err == nil {
			return e.Channel.WritePage(dp.Bytes(), int(pageNum))
		}
		// Same length but RewriteRow refused anyway (e.g. slot turned out to
		// be an overflow pointer underneath us): fall through to the shadow
		// path below.
	}

	newPageNum, newSlot, err := e.placeRow(newData)
	if err != nil {
		_ = index.RollbackAll(head)
		return jeterr.Io(jeterr.Context{Table: e.Table.Name}, "could not place updated row", err)
	}

	// The new slot holds live row bytes but must stay invisible to a
	// page scan: the row's only stable address is id, resolved through the
	// old slot's overflow pointer (spec §4.5 "Row update").
	newDp, err := e.readDataPage(newPageNum)
	if err != nil {
		return err
	}
	if err := newDp.MarkShadow(newSlot); err != nil {
		return err
	}
	if err := e.Channel.WritePage(newDp.Bytes(), int(newPageNum)); err != nil {
		return err
	}

	// placeRow may have landed on the same page as the old slot; re-read it
	// fresh so this write doesn't clobber what placeRow just wrote.
	dp, err = e.readDataPage(pageNum)
	if err != nil {
		return err
	}
	if err := dp.DeleteRow(slot); err != nil {
		return err
	}
	if err := dp.MarkOverflow(slot, newPageNum, byte(newSlot)); err != nil {
		return err
	}
	return e.Channel.WritePage(dp.Bytes(), int(pageNum))
}

// ForEachRow visits every live row of the table page by page, from the
// highest page number down (the order Pages.ReverseIter yields), and in slot
// order within a page, calling fn with its stable RowID and decoded values. A slot marked deleted-and-
// overflow is still visited (it is how a grown row's stable identity
// resolves, per spec §3 "Overflow row"); a plain deleted slot and a shadow
// slot (a relocated row body reachable only through another slot's overflow
// pointer, spec §4.5 "Row update") are skipped so each logical row is
// visited exactly once.
func (e *Engine) ForEachRow(fn func(id index.RowID, values map[string]any) error) error {
	var outerErr error
	e.Pages.ReverseIter(func(p int) bool {
		buf := e.Channel.CreatePageBuffer()
		if err := e.Channel.ReadPage(buf, p); err != nil {
			outerErr = err
			return false
		}
		dp, err := page.ParseDataPage(buf)
		if err != nil {
			outerErr = err
			return false
		}
		for slot := 0; slot < dp.RowCount(); slot++ {
			info, err := dp.Slot(slot)
			if err != nil {
				continue
			}
			if info.Shadow {
				continue
			}
			if info.Deleted && !info.Overflow {
				continue
			}
			id := index.RowID{PageNumber: uint32(p), RowNumber: byte(slot)}
			values, err := e.ReadRow(id)
			if err != nil {
				outerErr = err
				return false
			}
			if err := fn(id, values); err != nil {
				outerErr = err
				return false
			}
		}
		return true
	})
	return outerErr
}

// DeleteRow removes the row identified by id: it invokes the FK enforcer
// (cascade rules), removes every index entry pointing at it, and marks its
// final physical slot deleted (spec §4.5 "Row deletion").
func (e *Engine) DeleteRow(id index.RowID) error {
	values, err := e.ReadRow(id)
	if err != nil {
		return err
	}
	if e.FKs != nil {
		if err := e.FKs.BeforeDeleteRow(e.Table.Name, values); err != nil {
			return jeterr.ConstraintViolation(jeterr.Context{Table: e.Table.Name}, "referential integrity check failed", err)
		}
	}
	for _, ix := range e.Indexes {
		key, err := ix.encodeKey(values)
		if err != nil {
			return err
		}
		if err := ix.Tree.Delete(key, id); err != nil {
			return fmt.Errorf("table: removing index %q entry: %w", ix.Name, err)
		}
	}
	dp, pageNum, slot, _, err := e.resolvePhysical(id)
	if err != nil {
		return err
	}
	if err := dp.DeleteRow(slot); err != nil {
		return err
	}
	return e.Channel.WritePage(dp.Bytes(), int(pageNum))
}
