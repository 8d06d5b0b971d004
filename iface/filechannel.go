package iface

import (
	"fmt"
	"os"
)

// FilePageChannel is a PageChannel backed by a real OS file: the host
// implementation of the page-IO seam for a standalone tool, grounded on the
// teacher's cmd/go-innodb page reader (an *os.File opened once, pages read
// by ReadAt(pageNum*pageSize)). Unlike the teacher's read-only reader, it
// also grows the file on AllocateNewPage so the table/index engines can
// write through it.
type FilePageChannel struct {
	f        *os.File
	pageSize int
}

// NewFilePageChannel wraps an already-open file. The caller owns f's
// lifecycle (open/close).
func NewFilePageChannel(f *os.File, pageSize int) *FilePageChannel {
	return &FilePageChannel{f: f, pageSize: pageSize}
}

func (c *FilePageChannel) PageSize() int { return c.pageSize }

func (c *FilePageChannel) CreatePageBuffer() []byte { return make([]byte, c.pageSize) }

// ReadPage reads page pageNum into buf. A page past the current end of file
// (never yet written) reads back as all-zero, the same shape a freshly
// allocated page has in memory.
func (c *FilePageChannel) ReadPage(buf []byte, pageNum int) error {
	off := int64(pageNum) * int64(c.pageSize)
	n, err := c.f.ReadAt(buf, off)
	if err != nil && n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return nil
	}
	return err
}

func (c *FilePageChannel) WritePage(buf []byte, pageNum int) error {
	off := int64(pageNum) * int64(c.pageSize)
	_, err := c.f.WriteAt(buf, off)
	return err
}

// AllocateNewPage grows the file by one page and returns the new page's
// number, derived from the file's current size.
func (c *FilePageChannel) AllocateNewPage() (int, error) {
	info, err := c.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("iface: stat backing file: %w", err)
	}
	pn := int(info.Size() / int64(c.pageSize))
	if err := c.f.Truncate(info.Size() + int64(c.pageSize)); err != nil {
		return 0, fmt.Errorf("iface: grow backing file: %w", err)
	}
	return pn, nil
}

// StartExclusiveWrite/FinishWrite are no-ops: a standalone single-process
// tool has no concurrent writer to serialize against.
func (c *FilePageChannel) StartExclusiveWrite() {}
func (c *FilePageChannel) FinishWrite()          {}
