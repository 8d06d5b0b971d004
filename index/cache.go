package index

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/page"
)

var ErrPageNotFound = errors.New("index: page not found in cache or channel")

// cacheEntry is one LRU slot: a parsed page plus a dirty flag. Pages with a
// nonzero pin count are never evicted (spec §4.4 "pages never referenced by
// an active cursor may be evicted").
type cacheEntry struct {
	pageNum uint32
	page    *page.IndexPage
	dirty   bool
	pins    int
	elem    *list.Element
}

// PageCache mediates every read/write of an index's pages, keeping a soft
// LRU of parsed pages so repeated descents don't keep re-parsing (spec
// §4.4 "Page cursor"). It is the only thing that talks to the PageChannel
// on this index's behalf.
type PageCache struct {
	channel  iface.PageChannel
	maxPages int
	entries  map[uint32]*cacheEntry
	lru      *list.List // front = most recently used
}

func NewPageCache(channel iface.PageChannel, maxPages int) *PageCache {
	return &PageCache{
		channel:  channel,
		maxPages: maxPages,
		entries:  make(map[uint32]*cacheEntry),
		lru:      list.New(),
	}
}

// Get returns the parsed page pageNum. The page is not pinned: callers
// that need it to outlive further Get calls (a cursor holding a leaf
// across a traversal step) should use Pin/Unpin explicitly.
func (c *PageCache) Get(pageNum uint32) (*page.IndexPage, error) {
	if e, ok := c.entries[pageNum]; ok {
		c.lru.MoveToFront(e.elem)
		return e.page, nil
	}
	buf := c.channel.CreatePageBuffer()
	if err := c.channel.ReadPage(buf, int(pageNum)); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrPageNotFound, pageNum, err)
	}
	p, err := page.ParseIndexPage(buf)
	if err != nil {
		return nil, err
	}
	c.insert(pageNum, p, 0)
	return p, nil
}

// Put registers a freshly allocated page (from AllocateNewPage) with the
// cache, marked dirty so it is written back on Flush.
func (c *PageCache) Put(pageNum uint32, p *page.IndexPage) {
	c.insert(pageNum, p, 0)
	c.entries[pageNum].dirty = true
}

// Pin protects pageNum from eviction until a matching Unpin.
func (c *PageCache) Pin(pageNum uint32) {
	if e, ok := c.entries[pageNum]; ok {
		e.pins++
	}
}

func (c *PageCache) insert(pageNum uint32, p *page.IndexPage, pins int) {
	e := &cacheEntry{pageNum: pageNum, page: p, pins: pins}
	e.elem = c.lru.PushFront(e)
	c.entries[pageNum] = e
	c.evictIfNeeded()
}

// Unpin releases a reference taken by Pin; a page only becomes
// eligible for eviction once its pin count reaches zero.
func (c *PageCache) Unpin(pageNum uint32) {
	if e, ok := c.entries[pageNum]; ok && e.pins > 0 {
		e.pins--
	}
}

// MarkDirty records that pageNum's in-memory bytes changed and must be
// flushed.
func (c *PageCache) MarkDirty(pageNum uint32) {
	if e, ok := c.entries[pageNum]; ok {
		e.dirty = true
	}
}

func (c *PageCache) evictIfNeeded() {
	if c.maxPages <= 0 {
		return
	}
	for c.lru.Len() > c.maxPages {
		victim := c.lru.Back()
		for victim != nil {
			e := victim.Value.(*cacheEntry)
			if e.pins == 0 && !e.dirty {
				c.lru.Remove(victim)
				delete(c.entries, e.pageNum)
				return
			}
			victim = victim.Prev()
		}
		return // every remaining page is pinned or dirty; nothing to evict
	}
}

// AllocatePage reserves a new page via the channel and wraps it as an
// index page, registering it dirty in the cache.
func (c *PageCache) AllocatePage(isLeaf bool) (uint32, *page.IndexPage, error) {
	n, err := c.channel.AllocateNewPage()
	if err != nil {
		return 0, nil, err
	}
	p := page.NewIndexPage(c.channel.PageSize(), isLeaf)
	pageNum := uint32(n)
	c.Put(pageNum, p)
	return pageNum, p, nil
}

// Flush writes every dirty page back through the channel and clears their
// dirty flags.
func (c *PageCache) Flush() error {
	for _, e := range c.entries {
		if !e.dirty {
			continue
		}
		if err := c.channel.WritePage(e.page.Bytes(), int(e.pageNum)); err != nil {
			return err
		}
		e.dirty = false
	}
	return nil
}
