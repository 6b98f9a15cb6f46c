// Package storage provides the entry-addressed blob stores backing the
// index. An entry is a logical byte stream split across fixed-size pages
// and identified by a small integer id allocated monotonically at store
// time. Entries are append-only while an index is being built and
// read-only afterwards; readers each hold their own cursor, so any number
// of them may run concurrently.
package storage

import (
	"errors"
	"fmt"
	"io"
)

// EntryID identifies one logical entry inside a store.
type EntryID uint32

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 4096

var (
	// ErrNotFound is returned when an entry id is unknown to the store.
	ErrNotFound = errors.New("storage: entry not found")
	// ErrCorrupted is returned when an entry exists but cannot be read back.
	ErrCorrupted = errors.New("storage: entry corrupted")
)

// Storage is the contract shared by the memory and file-backed stores.
type Storage interface {
	// Store appends a new entry and returns its id.
	Store(data []byte) (EntryID, error)
	// Read returns a random-access cursor over the entry's bytes. The
	// cursor stays valid for the lifetime of the store.
	Read(id EntryID) (*ByteCursor, error)
	// ReadPage returns one page of the entry. The final page may be
	// shorter than the page size.
	ReadPage(id EntryID, page int) ([]byte, error)
	// EntryCount reports how many entries the store holds.
	EntryCount() int
	// PageSize reports the fixed page size of the store.
	PageSize() int
}

// pageSource is what a ByteCursor needs from its store.
type pageSource interface {
	ReadPage(id EntryID, page int) ([]byte, error)
	PageSize() int
}

// ByteCursor reads an entry byte-by-byte with random access. It fetches
// pages lazily and keeps only the current page in memory, so cursors over
// large entries stay cheap. It implements io.ByteReader.
type ByteCursor struct {
	src      pageSource
	entry    EntryID
	size     int
	offset   int
	page     []byte
	pageIdx  int
	havePage bool
}

func newByteCursor(src pageSource, entry EntryID, size int) *ByteCursor {
	return &ByteCursor{src: src, entry: entry, size: size, pageIdx: -1}
}

// Size returns the total length of the entry in bytes.
func (c *ByteCursor) Size() int { return c.size }

// Offset returns the cursor's current byte offset.
func (c *ByteCursor) Offset() int { return c.offset }

// Seek positions the cursor at the given absolute byte offset.
func (c *ByteCursor) Seek(offset int) error {
	if offset < 0 || offset > c.size {
		return fmt.Errorf("storage: seek to %d outside entry of %d bytes", offset, c.size)
	}
	c.offset = offset
	return nil
}

// ReadByte returns the byte at the cursor position and advances by one.
// io.EOF signals the end of the entry.
func (c *ByteCursor) ReadByte() (byte, error) {
	if c.offset >= c.size {
		return 0, io.EOF
	}
	ps := c.src.PageSize()
	idx := c.offset / ps
	if !c.havePage || idx != c.pageIdx {
		page, err := c.src.ReadPage(c.entry, idx)
		if err != nil {
			return 0, err
		}
		c.page, c.pageIdx, c.havePage = page, idx, true
	}
	rel := c.offset - idx*ps
	if rel >= len(c.page) {
		return 0, fmt.Errorf("%w: entry %d page %d short", ErrCorrupted, c.entry, idx)
	}
	c.offset++
	return c.page[rel], nil
}
