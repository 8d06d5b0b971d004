package index

import "fmt"

// AddRowPendingChange is one not-yet-committed index mutation produced
// while adding or updating a row across possibly many indexes (spec §4.4
// "Pending change protocol"). The table engine chains these together so a
// failure partway through a multi-index add can roll back every index that
// already accepted the new entry.
type AddRowPendingChange struct {
	Tree            *Tree
	NewEntry        Entry
	IsDupeEntry     bool  // true if Tree is unique and NewEntry's key collided
	ReplacedOld     bool  // true if this change first deleted an old entry (update path)
	OldEntry        Entry // the entry removed, when ReplacedOld
	committed       bool
	next            *AddRowPendingChange
}

// PrepareAddRow stages inserting newEntry into t without committing: for a
// unique index whose key already exists, it records IsDupeEntry instead of
// erroring, so the caller can decide (reject the whole row) before any
// index is actually mutated.
func PrepareAddRow(t *Tree, newEntry Entry) (*AddRowPendingChange, error) {
	if t.Unique {
		if _, found, err := t.Find(newEntry.Key); err != nil {
			return nil, err
		} else if found {
			return &AddRowPendingChange{Tree: t, NewEntry: newEntry, IsDupeEntry: true}, nil
		}
	}
	return &AddRowPendingChange{Tree: t, NewEntry: newEntry}, nil
}

// PrepareUpdateRow stages an update as delete-then-add (spec §4.4): the old
// entry is removed immediately (so RollbackAll can restore it), and the new
// one staged like PrepareAddRow.
func PrepareUpdateRow(t *Tree, oldEntry, newEntry Entry) (*AddRowPendingChange, error) {
	if oldEntry.Key != nil {
		if err := t.Delete(oldEntry.Key, oldEntry.Row); err != nil {
			return nil, fmt.Errorf("index: prepare update could not remove old entry: %w", err)
		}
	}
	change, err := PrepareAddRow(t, newEntry)
	if err != nil {
		return nil, err
	}
	change.ReplacedOld = true
	change.OldEntry = oldEntry
	return change, nil
}

// Chain links changes into the singly linked list CommitAll/RollbackAll
// walk, in the order they should be applied.
func Chain(changes ...*AddRowPendingChange) *AddRowPendingChange {
	for i := 0; i < len(changes)-1; i++ {
		changes[i].next = changes[i+1]
	}
	if len(changes) == 0 {
		return nil
	}
	return changes[0]
}

// CommitAll inserts every staged entry in the chain. A dupe-flagged change
// is skipped (the caller is expected to have already rejected the add
// before calling CommitAll; this is just a safety net). On the first real
// error it stops and returns the error; changes already committed remain
// committed — callers that need all-or-nothing semantics should call
// RollbackAll(head) on error.
func CommitAll(head *AddRowPendingChange) error {
	for c := head; c != nil; c = c.next {
		if c.IsDupeEntry {
			continue
		}
		if err := c.Tree.Insert(c.NewEntry.Key, c.NewEntry.Row); err != nil {
			return fmt.Errorf("index: commit failed: %w", err)
		}
		c.committed = true
	}
	return nil
}

// RollbackAll undoes every change in the chain: deletes any entry that was
// committed, and restores any entry a replace-path (update) had removed.
func RollbackAll(head *AddRowPendingChange) error {
	for c := head; c != nil; c = c.next {
		if c.committed && !c.IsDupeEntry {
			if err := c.Tree.Delete(c.NewEntry.Key, c.NewEntry.Row); err != nil {
				return fmt.Errorf("index: rollback could not remove new entry: %w", err)
			}
			c.committed = false
		}
		if c.ReplacedOld && c.OldEntry.Key != nil {
			if err := c.Tree.Insert(c.OldEntry.Key, c.OldEntry.Row); err != nil {
				return fmt.Errorf("index: rollback could not restore old entry: %w", err)
			}
		}
	}
	return nil
}
