package iface

import "sort"

// MemPageChannel is an in-memory PageChannel used by tests and by
// cmd/jetdb when no backing file is supplied. Pages are allocated lazily on
// first ReadPage/WritePage of a given number.
type MemPageChannel struct {
	pageSize int
	pages    map[int][]byte
	next     int
}

func NewMemPageChannel(pageSize int) *MemPageChannel {
	return &MemPageChannel{pageSize: pageSize, pages: make(map[int][]byte)}
}

func (m *MemPageChannel) PageSize() int { return m.pageSize }

func (m *MemPageChannel) CreatePageBuffer() []byte {
	return make([]byte, m.pageSize)
}

func (m *MemPageChannel) ReadPage(buf []byte, pageNum int) error {
	p, ok := m.pages[pageNum]
	if !ok {
		p = make([]byte, m.pageSize)
		m.pages[pageNum] = p
	}
	copy(buf, p)
	return nil
}

func (m *MemPageChannel) WritePage(buf []byte, pageNum int) error {
	p := make([]byte, m.pageSize)
	copy(p, buf)
	m.pages[pageNum] = p
	if pageNum >= m.next {
		m.next = pageNum + 1
	}
	return nil
}

func (m *MemPageChannel) AllocateNewPage() (int, error) {
	pn := m.next
	m.next++
	m.pages[pn] = make([]byte, m.pageSize)
	return pn, nil
}

func (m *MemPageChannel) StartExclusiveWrite() {}
func (m *MemPageChannel) FinishWrite()          {}

// MemUsageMap is a simple in-memory UsageMap backed by a map; ReverseIter
// sorts the page numbers on every call.
type MemUsageMap struct {
	pages map[int]struct{}
}

func NewMemUsageMap() *MemUsageMap {
	return &MemUsageMap{pages: make(map[int]struct{})}
}

func (u *MemUsageMap) Contains(page int) bool {
	_, ok := u.pages[page]
	return ok
}

func (u *MemUsageMap) Add(page int) { u.pages[page] = struct{}{} }

func (u *MemUsageMap) Remove(page int) { delete(u.pages, page) }

func (u *MemUsageMap) ReverseIter(fn func(page int) bool) {
	pages := make([]int, 0, len(u.pages))
	for p := range u.pages {
		pages = append(pages, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pages)))
	for _, p := range pages {
		if !fn(p) {
			return
		}
	}
}

// NullPropertyMap is an in-memory PropertyMap that starts empty; Get
// returns whatever Put last stored under a name.
type NullPropertyMap struct {
	values map[string][2]any
}

func NewNullPropertyMap() *NullPropertyMap {
	return &NullPropertyMap{values: make(map[string][2]any)}
}

func (n *NullPropertyMap) Get(name string) (any, string, bool) {
	v, ok := n.values[name]
	if !ok {
		return nil, "", false
	}
	typ, _ := v[1].(string)
	return v[0], typ, true
}

func (n *NullPropertyMap) Put(name string, value any, typ string) {
	n.values[name] = [2]any{value, typ}
}

// IdentityEvaluator is an ExpressionEvaluator fake that treats every
// expression as a bare identifier lookup in the row/column context; it is
// enough to drive the table engine's validator/default/calc-column plumbing
// in tests without a real expression-language parser.
type IdentityEvaluator struct{}

func (IdentityEvaluator) Evaluate(expr string, ctx EvalContext) (any, error) {
	if v, ok := ctx.Lookup(expr); ok {
		return v, nil
	}
	if v, ok := ctx.ColumnValue(expr); ok {
		return v, nil
	}
	return nil, nil
}

func (IdentityEvaluator) Identifiers(expr string) ([]string, error) {
	if expr == "" {
		return nil, nil
	}
	return []string{expr}, nil
}
