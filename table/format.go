// Package table implements the table engine (spec §4.5, component C4):
// row add/update/delete, autonumber generation, calculated-column ordering,
// and table-definition growth. It is adapted from the teacher's top-level
// reader/writer flow (cmd/go-innodb and page/fil.go's "locate a page,
// mutate it, write it back" shape) generalized from InnoDB's read-only
// page walk to a full mutate-and-persist engine over row/page/index.
package table

// Format is the Jet file's physical descriptor referenced but never fully
// specified in spec §1/§9: page geometry plus the row-layout era a given
// table uses (spec §4.2's two offset sub-formats trade off max row size for
// trailer density across Jet's historical format versions).
type Format struct {
	PageSize       int
	LittleEndian   bool
	MaxRowSize     int
	MaxTdefPages   int
	UseJumpTable   bool // selects row.JumpTable over row.ShortOffset
}

// DefaultFormat matches the modern (.accdb-era) geometry: 4K pages, a
// generous max row size, and the denser jump-table row trailer.
var DefaultFormat = Format{
	PageSize:     4096,
	LittleEndian: true,
	MaxRowSize:   4064,
	MaxTdefPages: 256,
	UseJumpTable: true,
}

// LegacyFormat matches the older (.mdb-era) geometry: 2K pages, a smaller
// max row size, and the simpler short-offset row trailer.
var LegacyFormat = Format{
	PageSize:     2048,
	LittleEndian: true,
	MaxRowSize:   2012,
	MaxTdefPages: 128,
	UseJumpTable: false,
}
