package index

// EntryType ranks break ties between entries whose encoded key bytes are
// identical (spec §3 "EntryType"). Valid row entries always use Normal; the
// two cursor sentinels use the extreme ranks so they compare below/above
// every real entry regardless of key bytes.
type EntryType int

const (
	AlwaysFirst EntryType = iota
	FirstValid
	Normal
	LastValid
	AlwaysLast
)

// RowID identifies where an index entry's row lives (spec §3 "RowId").
type RowID struct {
	PageNumber uint32
	RowNumber  byte
}

var (
	FirstRowID = RowID{PageNumber: 0, RowNumber: 0}
	LastRowID  = RowID{PageNumber: ^uint32(0), RowNumber: 0xFF}
	InvalidRowID = RowID{}
)

// Entry is one logical index entry: an encoded sortable key, the row it
// points to, and a tie-break rank.
type Entry struct {
	Key  []byte
	Row  RowID
	Type EntryType
}

// FirstEntry and LastEntry are cursor sentinels: they compare below/above
// every real entry (spec §4.4 "Page cursor").
var (
	FirstEntry = Entry{Type: AlwaysFirst}
	LastEntry  = Entry{Type: AlwaysLast}
)

// Compare orders two entries: first by key bytes (unsigned, lexicographic,
// shorter-is-less-if-prefix), then by EntryType rank. An AlwaysFirst or
// AlwaysLast sentinel is ordered by rank alone, before any key comparison.
func Compare(a, b Entry) int {
	if a.Type != b.Type && (a.Type == AlwaysFirst || a.Type == AlwaysLast || b.Type == AlwaysFirst || b.Type == AlwaysLast) {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	n := len(a.Key)
	if len(b.Key) < n {
		n = len(b.Key)
	}
	for i := 0; i < n; i++ {
		if a.Key[i] != b.Key[i] {
			if a.Key[i] < b.Key[i] {
				return -1
			}
			return 1
		}
	}
	if len(a.Key) != len(b.Key) {
		if len(a.Key) < len(b.Key) {
			return -1
		}
		return 1
	}
	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	return 0
}
