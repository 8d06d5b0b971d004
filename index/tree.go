package index

import (
	"errors"
	"fmt"

	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/page"
)

var (
	ErrNotFound     = errors.New("index: entry not found")
	ErrDuplicateKey = errors.New("index: duplicate key in unique index")
)

// Tree is one B-tree index: a root page number plus the page cache backing
// it (spec §4.4). Unique enforces the unique-index constraint on insert.
type Tree struct {
	cache    *PageCache
	rootPage uint32
	Unique   bool
	modCount uint64
}

// NewTree wraps channel with a cache and creates a fresh, empty leaf root.
func NewTree(channel iface.PageChannel, unique bool) (*Tree, error) {
	cache := NewPageCache(channel, 64)
	rootNum, root, err := cache.AllocatePage(true)
	if err != nil {
		return nil, err
	}
	if rootNum == 0 {
		// Page 0 never holds an index page: Prev/Next use 0 for "no link".
		rootNum, root, err = cache.AllocatePage(true)
		if err != nil {
			return nil, err
		}
	}
	if err := root.SetEntries(nil); err != nil {
		return nil, err
	}
	return &Tree{cache: cache, rootPage: rootNum, Unique: unique}, nil
}

// OpenTree wraps channel with a cache over an existing tree rooted at
// rootPage.
func OpenTree(channel iface.PageChannel, rootPage uint32, unique bool) *Tree {
	return &Tree{cache: NewPageCache(channel, 64), rootPage: rootPage, Unique: unique}
}

func fromPageEntry(pe page.Entry) Entry {
	return Entry{
		Key:  pe.Key,
		Row:  RowID{PageNumber: pe.RowPage, RowNumber: pe.RowNumber},
		Type: Normal,
	}
}

// pathStep records one level descended while finding a key, so Insert/
// Delete can walk back up to fix parent separators and handle splits.
type pathStep struct {
	pageNum uint32
	p       *page.IndexPage
	slot    int // index into this page's entries where the descent continued
}

// descend walks from the root to the leaf that would contain key, recording
// the path taken.
func (t *Tree) descend(key []byte) ([]pathStep, error) {
	var path []pathStep
	pageNum := t.rootPage
	for {
		p, err := t.cache.Get(pageNum)
		if err != nil {
			return nil, err
		}
		entries, err := p.Entries()
		if err != nil {
			return nil, err
		}
		idx := searchEntries(entries, key)
		path = append(path, pathStep{pageNum: pageNum, p: p, slot: idx})
		if p.IsLeaf {
			return path, nil
		}
		if idx < len(entries) {
			pageNum = entries[idx].ChildPage
		} else {
			pageNum = p.ChildTail
		}
	}
}

// searchEntries returns the index of the first entry whose key is >= key
// (lower bound), used both to find an insertion point and to route descent
// in a node page (entries[idx].ChildPage covers every key <= entries[idx].Key;
// past the last entry, ChildTail covers the rest).
func searchEntries(entries []page.Entry, key []byte) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if compareBytes(entries[mid].Key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Find returns the row pointed to by an exact key match in a leaf page.
func (t *Tree) Find(key []byte) (RowID, bool, error) {
	path, err := t.descend(key)
	if err != nil {
		return RowID{}, false, err
	}
	leaf := path[len(path)-1]
	entries, err := leaf.p.Entries()
	if err != nil {
		return RowID{}, false, err
	}
	if leaf.slot < len(entries) && compareBytes(entries[leaf.slot].Key, key) == 0 {
		pe := entries[leaf.slot]
		return RowID{PageNumber: pe.RowPage, RowNumber: pe.RowNumber}, true, nil
	}
	return RowID{}, false, nil
}

// Insert adds entry's (key, row) pair, splitting pages as needed (spec
// §4.4 "Split/merge"). If the tree is unique and key already exists,
// returns ErrDuplicateKey without modifying anything.
func (t *Tree) Insert(key []byte, row RowID) error {
	path, err := t.descend(key)
	if err != nil {
		return err
	}
	leaf := path[len(path)-1]
	entries, err := leaf.p.Entries()
	if err != nil {
		return err
	}
	if t.Unique && leaf.slot < len(entries) && compareBytes(entries[leaf.slot].Key, key) == 0 {
		return ErrDuplicateKey
	}
	newEntry := page.Entry{Key: key, RowPage: row.PageNumber, RowNumber: row.RowNumber}
	entries = insertAt(entries, leaf.slot, newEntry)

	if err := leaf.p.SetEntries(entries); err == nil {
		t.cache.MarkDirty(leaf.pageNum)
		t.modCount++
		return nil
	}

	return t.splitAndInsert(path, entries)
}

func insertAt(entries []page.Entry, idx int, e page.Entry) []page.Entry {
	out := make([]page.Entry, 0, len(entries)+1)
	out = append(out, entries[:idx]...)
	out = append(out, e)
	out = append(out, entries[idx:]...)
	return out
}

// splitAndInsert handles the case where path's leaf could not hold the new
// entry list: split it into two pages and propagate the separator key
// upward, allocating new parent/root pages as needed.
func (t *Tree) splitAndInsert(path []pathStep, entries []page.Entry) error {
	level := len(path) - 1
	leaf := path[level]
	isLeaf := leaf.p.IsLeaf

	mid := len(entries) / 2
	left, right := entries[:mid], entries[mid:]

	// The original ChildTail (node pages only) covers everything past the
	// last entry's key, which ends up in the right half; the left half
	// keeps no tail child, since every key it now answers for is covered by
	// one of its own remaining entries (spec §4.4 "Split/merge").
	origChildTail := leaf.p.ChildTail
	origPrev := leaf.p.Prev

	if err := leaf.p.SetEntries(left); err != nil {
		return fmt.Errorf("index: split failed to fit left half: %w", err)
	}
	rightNum, rightPage, err := t.cache.AllocatePage(isLeaf)
	if err != nil {
		return err
	}
	if err := rightPage.SetEntries(right); err != nil {
		return fmt.Errorf("index: split failed to fit right half: %w", err)
	}
	rightPage.SetLinks(leaf.pageNum, leaf.p.Next, origChildTail)
	leaf.p.SetLinks(origPrev, rightNum, 0)
	t.cache.MarkDirty(leaf.pageNum)
	t.cache.MarkDirty(rightNum)
	t.modCount++

	// Child-pointer convention: entries[i].ChildPage holds every key <=
	// entries[i].Key; ChildTail holds everything past the last entry's key.
	// So the new separator is the largest key now living in the left half,
	// routing to leaf.pageNum; whatever previously routed to leaf.pageNum
	// (an existing entry's ChildPage, or the parent's ChildTail) must be
	// repointed at rightNum, since it now covers the range above separator.
	separator := left[len(left)-1].Key

	if level == 0 {
		// Splitting the root: allocate a new root above both halves.
		newRootNum, newRoot, err := t.cache.AllocatePage(false)
		if err != nil {
			return err
		}
		if err := newRoot.SetEntries([]page.Entry{{Key: separator, ChildPage: leaf.pageNum}}); err != nil {
			return fmt.Errorf("index: new root entry does not fit: %w", err)
		}
		newRoot.SetLinks(0, 0, rightNum)
		t.cache.MarkDirty(newRootNum)
		t.rootPage = newRootNum
		return nil
	}

	parent := path[level-1]
	parentEntries, err := parent.p.Entries()
	if err != nil {
		return err
	}
	wasChildTail := parent.slot >= len(parentEntries)
	sepEntry := page.Entry{Key: separator, ChildPage: leaf.pageNum}
	parentEntries = insertAt(parentEntries, parent.slot, sepEntry)
	if wasChildTail {
		parent.p.SetLinks(parent.p.Prev, parent.p.Next, rightNum)
	} else {
		parentEntries[parent.slot+1].ChildPage = rightNum
	}
	if err := parent.p.SetEntries(parentEntries); err == nil {
		t.cache.MarkDirty(parent.pageNum)
		return nil
	}
	return t.splitAndInsert(path[:level], parentEntries)
}

// Delete removes the entry exactly matching (key, row) from its leaf.
// Underflowing pages are left in place rather than merged: spec §4.4 does
// not require eager merge-on-delete, only that entries remain ordered and
// reachable, which a sparse leaf still satisfies.
func (t *Tree) Delete(key []byte, row RowID) error {
	path, err := t.descend(key)
	if err != nil {
		return err
	}
	leaf := path[len(path)-1]
	entries, err := leaf.p.Entries()
	if err != nil {
		return err
	}
	idx := -1
	for i := leaf.slot; i < len(entries) && compareBytes(entries[i].Key, key) == 0; i++ {
		if entries[i].RowPage == row.PageNumber && entries[i].RowNumber == row.RowNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := leaf.p.SetEntries(entries); err != nil {
		return fmt.Errorf("index: delete rewrite failed: %w", err)
	}
	t.cache.MarkDirty(leaf.pageNum)
	t.modCount++
	return nil
}

// Flush writes all dirty pages back through the underlying channel.
func (t *Tree) Flush() error { return t.cache.Flush() }

// RootPage returns the current root page number, which callers persist as
// part of the index's table-definition metadata (it can change across
// Insert calls that split the root).
func (t *Tree) RootPage() uint32 { return t.rootPage }
