package index

import "fmt"

// Position identifies a cursor's place in the tree: the leaf page holding
// the current entry, the entry's slot within that page, and the entry
// itself (denormalized so Compare/relocation don't need another page
// fetch). Between marks a position that sits strictly between two real
// entries (used for the FirstEntry/LastEntry sentinels) rather than on one.
type Position struct {
	PageNum int
	Slot    int
	Entry   Entry
	Between bool
}

func (p Position) nextIndex() int {
	if p.Between {
		return p.Slot
	}
	return p.Slot + 1
}

func (p Position) prevIndex() int {
	return p.Slot - 1
}

// EntryCursor walks a Tree's leaves in key order (spec §4.4 "Cursor").
// It tracks the tree's modCount at the time its position was captured, so a
// structural change (split/merge from a concurrent Insert/Delete) is
// detected and the cursor relocates itself by key before continuing,
// rather than silently reading a stale slot.
type EntryCursor struct {
	tree       *Tree
	firstPos   Position
	lastPos    Position
	curPos     Position
	prevPos    Position
	curModCount uint64
}

// NewCursor returns a cursor positioned before the first entry.
func NewCursor(t *Tree) *EntryCursor {
	first := Position{PageNum: -1, Slot: -1, Entry: FirstEntry, Between: true}
	last := Position{PageNum: -1, Slot: -1, Entry: LastEntry, Between: true}
	return &EntryCursor{tree: t, firstPos: first, lastPos: last, curPos: first, curModCount: t.modCount}
}

// leafFor loads all entries for the leaf that holds key, by descending again from the root (cheap: pages are
// cached). Returns the page number and entries.
func (c *EntryCursor) leafFor(key []byte) (int, []Entry, error) {
	path, err := c.tree.descend(key)
	if err != nil {
		return 0, nil, err
	}
	leaf := path[len(path)-1]
	pe, err := leaf.p.Entries()
	if err != nil {
		return 0, nil, err
	}
	out := make([]Entry, len(pe))
	for i, e := range pe {
		out[i] = fromPageEntry(e)
	}
	return int(leaf.pageNum), out, nil
}

// relocate re-descends to find where curPos's entry now lives after a
// structural change invalidated its cached slot (spec §4.4: "mod_count
// staleness detection and relocation").
func (c *EntryCursor) relocate() error {
	if c.curPos.Entry.Type == AlwaysFirst || c.curPos.Entry.Type == AlwaysLast {
		c.curModCount = c.tree.modCount
		return nil
	}
	pageNum, entries, err := c.leafFor(c.curPos.Entry.Key)
	if err != nil {
		return err
	}
	idx := searchEntryList(entries, c.curPos.Entry)
	c.curPos = Position{PageNum: pageNum, Slot: idx, Entry: c.curPos.Entry}
	c.curModCount = c.tree.modCount
	return nil
}

func searchEntryList(entries []Entry, target Entry) int {
	for i, e := range entries {
		if Compare(e, target) == 0 {
			return i
		}
	}
	return len(entries)
}

func (c *EntryCursor) ensureFresh() error {
	if c.curModCount != c.tree.modCount {
		return c.relocate()
	}
	return nil
}

// Next advances to the next entry in key order and returns it. ok is false
// once the cursor passes the last entry.
func (c *EntryCursor) Next() (Entry, bool, error) {
	if err := c.ensureFresh(); err != nil {
		return Entry{}, false, err
	}
	if c.curPos.Entry.Type == AlwaysLast {
		return Entry{}, false, nil
	}
	c.prevPos = c.curPos

	var pageNum int
	var entries []Entry
	var err error
	if c.curPos.Entry.Type == AlwaysFirst {
		pageNum, entries, err = c.firstLeaf()
	} else {
		pageNum, entries, err = c.leafFor(c.curPos.Entry.Key)
	}
	if err != nil {
		return Entry{}, false, err
	}

	idx := c.curPos.nextIndex()
	if c.curPos.Entry.Type == AlwaysFirst {
		idx = 0
	}
	for idx >= len(entries) {
		next, ok, nerr := c.nextLeaf(pageNum)
		if nerr != nil {
			return Entry{}, false, nerr
		}
		if !ok {
			c.curPos = c.lastPos
			return Entry{}, false, nil
		}
		pageNum = next
		entries, err = c.entriesOf(pageNum)
		if err != nil {
			return Entry{}, false, err
		}
		idx = 0
	}
	c.curPos = Position{PageNum: pageNum, Slot: idx, Entry: entries[idx]}
	return entries[idx], true, nil
}

// Prev moves to the previous entry in key order, mirroring Next.
func (c *EntryCursor) Prev() (Entry, bool, error) {
	if err := c.ensureFresh(); err != nil {
		return Entry{}, false, err
	}
	if c.curPos.Entry.Type == AlwaysFirst {
		return Entry{}, false, nil
	}
	c.prevPos = c.curPos

	var pageNum int
	var entries []Entry
	var err error
	if c.curPos.Entry.Type == AlwaysLast {
		pageNum, entries, err = c.lastLeaf()
		if err != nil {
			return Entry{}, false, err
		}
		idx := len(entries) - 1
		for idx < 0 {
			prevPage, ok, perr := c.prevLeaf(pageNum)
			if perr != nil {
				return Entry{}, false, perr
			}
			if !ok {
				c.curPos = c.firstPos
				return Entry{}, false, nil
			}
			pageNum = prevPage
			entries, err = c.entriesOf(pageNum)
			if err != nil {
				return Entry{}, false, err
			}
			idx = len(entries) - 1
		}
		c.curPos = Position{PageNum: pageNum, Slot: idx, Entry: entries[idx]}
		return entries[idx], true, nil
	}

	pageNum, entries, err = c.leafFor(c.curPos.Entry.Key)
	if err != nil {
		return Entry{}, false, err
	}
	idx := c.curPos.prevIndex()
	for idx < 0 {
		prevPage, ok, perr := c.prevLeaf(pageNum)
		if perr != nil {
			return Entry{}, false, perr
		}
		if !ok {
			c.curPos = c.firstPos
			return Entry{}, false, nil
		}
		pageNum = prevPage
		entries, err = c.entriesOf(pageNum)
		if err != nil {
			return Entry{}, false, err
		}
		idx = len(entries) - 1
	}
	c.curPos = Position{PageNum: pageNum, Slot: idx, Entry: entries[idx]}
	return entries[idx], true, nil
}

func (c *EntryCursor) entriesOf(pageNum int) ([]Entry, error) {
	p, err := c.tree.cache.Get(uint32(pageNum))
	if err != nil {
		return nil, err
	}
	pe, err := p.Entries()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(pe))
	for i, e := range pe {
		out[i] = fromPageEntry(e)
	}
	return out, nil
}

func (c *EntryCursor) firstLeaf() (int, []Entry, error) {
	pageNum := c.tree.rootPage
	for {
		p, err := c.tree.cache.Get(pageNum)
		if err != nil {
			return 0, nil, err
		}
		if p.IsLeaf {
			entries, err := c.entriesOf(int(pageNum))
			return int(pageNum), entries, err
		}
		entries, err := p.Entries()
		if err != nil {
			return 0, nil, err
		}
		if len(entries) == 0 {
			return 0, nil, fmt.Errorf("index: empty node page %d has no child", pageNum)
		}
		pageNum = entries[0].ChildPage
	}
}

func (c *EntryCursor) lastLeaf() (int, []Entry, error) {
	pageNum := c.tree.rootPage
	for {
		p, err := c.tree.cache.Get(pageNum)
		if err != nil {
			return 0, nil, err
		}
		if p.IsLeaf {
			entries, err := c.entriesOf(int(pageNum))
			return int(pageNum), entries, err
		}
		pageNum = p.ChildTail
	}
}

func (c *EntryCursor) nextLeaf(pageNum int) (int, bool, error) {
	p, err := c.tree.cache.Get(uint32(pageNum))
	if err != nil {
		return 0, false, err
	}
	if p.Next == 0 {
		return 0, false, nil
	}
	return int(p.Next), true, nil
}

func (c *EntryCursor) prevLeaf(pageNum int) (int, bool, error) {
	p, err := c.tree.cache.Get(uint32(pageNum))
	if err != nil {
		return 0, false, err
	}
	if p.Prev == 0 {
		return 0, false, nil
	}
	return int(p.Prev), true, nil
}
