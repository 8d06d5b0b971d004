package relationship

import (
	"fmt"

	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/schema"
	"github.com/jetdb/jetdb/table"
)

// BeforeAddRow implements table.FKEnforcer: a child row being added to
// tableName must either have every FK column null, or its key must already
// exist on the primary side (spec §4.6 "add/update: parent key exists or
// all FK columns are null").
func (r *Registry) BeforeAddRow(tableName string, values map[string]any) error {
	for _, rel := range r.relationships {
		if !rel.Opts.Enforce || rel.Secondary.Table.Name != tableName {
			continue
		}
		if err := rel.checkParentExists(values); err != nil {
			return err
		}
	}
	return nil
}

// BeforeUpdateRow implements table.FKEnforcer. Two cases apply, independent
// of each other:
//   - tableName is a relationship's secondary side and the FK columns
//     changed: the new key must resolve (or be all-null), same as add.
//   - tableName is a relationship's primary side and the key columns
//     changed: cascade the new key to existing children, or reject if any
//     child exists and cascading isn't enabled.
func (r *Registry) BeforeUpdateRow(tableName string, oldValues, newValues map[string]any) error {
	for _, rel := range r.relationships {
		if !rel.Opts.Enforce {
			continue
		}
		if rel.Secondary.Table.Name == tableName && keyChanged(rel.SecondaryCols, oldValues, newValues) {
			if err := rel.checkParentExists(newValues); err != nil {
				return err
			}
		}
		if rel.Primary.Table.Name == tableName && keyChanged(rel.PrimaryCols, oldValues, newValues) {
			if err := rel.onParentKeyChange(oldValues, newValues); err != nil {
				return err
			}
		}
	}
	return nil
}

// BeforeDeleteRow implements table.FKEnforcer: deleting a parent row with
// existing children either cascades (delete or null the children) or is
// rejected, per rel.Opts.
func (r *Registry) BeforeDeleteRow(tableName string, values map[string]any) error {
	for _, rel := range r.relationships {
		if !rel.Opts.Enforce || rel.Primary.Table.Name != tableName {
			continue
		}
		if err := rel.onParentDelete(values); err != nil {
			return err
		}
	}
	return nil
}

func keyChanged(cols []*schema.Column, oldValues, newValues map[string]any) bool {
	for _, c := range cols {
		if fmt.Sprint(oldValues[c.Name]) != fmt.Sprint(newValues[c.Name]) {
			return true
		}
	}
	return false
}

// encodeAcross encodes values (keyed by fromCols' names) as a key in
// toCols' column types/order — used to compare a secondary row's FK value
// against the primary side's key space, and vice versa.
func encodeAcross(fromCols, toCols []*schema.Column, values map[string]any) ([]byte, error) {
	ascending := allAscending(len(toCols))
	return table.EncodeCompositeKey(toCols, ascending, renameValues(fromCols, toCols, values))
}

// checkParentExists validates that values' FK columns either are all null
// or resolve to an existing row on the primary side.
func (rel *Relationship) checkParentExists(values map[string]any) error {
	if allNull(rel.SecondaryCols, values) {
		return nil
	}
	key, err := encodeAcross(rel.SecondaryCols, rel.PrimaryCols, values)
	if err != nil {
		return err
	}
	if _, found, err := rel.primaryIndex.Tree.Find(key); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("relationship %s: no matching parent row", rel.Name)
	}
	return nil
}

// onParentKeyChange reacts to a primary-side key edit: cascades it to every
// matching child, or rejects the edit if children exist and cascading is
// disabled.
func (rel *Relationship) onParentKeyChange(oldValues, newValues map[string]any) error {
	oldKey, err := encodeAcross(rel.PrimaryCols, rel.PrimaryCols, oldValues)
	if err != nil {
		return err
	}
	children, err := rel.findChildren(oldKey)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	if !rel.Opts.CascadeUpdate {
		return fmt.Errorf("relationship %s: parent key has %d existing child row(s)", rel.Name, len(children))
	}
	patch := make(map[string]any, len(rel.SecondaryCols))
	for i, c := range rel.PrimaryCols {
		patch[rel.SecondaryCols[i].Name] = newValues[c.Name]
	}
	for _, id := range children {
		if err := rel.Secondary.UpdateRow(id, patch); err != nil {
			return err
		}
	}
	return nil
}

// onParentDelete reacts to a primary-side row deletion: cascades delete or
// null, or rejects the delete if children exist and neither is enabled.
func (rel *Relationship) onParentDelete(values map[string]any) error {
	key, err := encodeAcross(rel.PrimaryCols, rel.PrimaryCols, values)
	if err != nil {
		return err
	}
	children, err := rel.findChildren(key)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	switch {
	case rel.Opts.CascadeDelete:
		for _, id := range children {
			if err := rel.Secondary.DeleteRow(id); err != nil {
				return err
			}
		}
		return nil
	case rel.Opts.CascadeNull:
		patch := make(map[string]any, len(rel.SecondaryCols))
		for _, c := range rel.SecondaryCols {
			patch[c.Name] = nil
		}
		for _, id := range children {
			if err := rel.Secondary.UpdateRow(id, patch); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("relationship %s: parent row has %d existing child row(s)", rel.Name, len(children))
	}
}

// findChildren returns every secondary row whose FK key matches key. It
// walks the live table with ForEachRow rather than the secondary backing
// index, since index.Tree offers only exact-match Find and no range scan
// (adequate for cascade, which is already an O(children) operation).
func (rel *Relationship) findChildren(key []byte) ([]index.RowID, error) {
	var out []index.RowID
	err := rel.Secondary.ForEachRow(func(id index.RowID, values map[string]any) error {
		if allNull(rel.SecondaryCols, values) {
			return nil
		}
		rowKey, err := encodeAcross(rel.SecondaryCols, rel.PrimaryCols, values)
		if err != nil {
			return err
		}
		if bytesEqual(rowKey, key) {
			out = append(out, id)
		}
		return nil
	})
	return out, err
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
