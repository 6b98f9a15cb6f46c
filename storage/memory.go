package storage

import "fmt"

// Memory keeps every entry as a contiguous byte slice in RAM. It is the
// store of choice for collections that fit in memory and for tests.
type Memory struct {
	pageSize int
	entries  [][]byte
}

// NewMemory creates an empty in-memory store with the default page size.
func NewMemory() *Memory {
	return NewMemoryPaged(DefaultPageSize)
}

// NewMemoryPaged creates an empty in-memory store with the given page size.
func NewMemoryPaged(pageSize int) *Memory {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Memory{pageSize: pageSize}
}

func (m *Memory) Store(data []byte) (EntryID, error) {
	id := EntryID(len(m.entries))
	owned := make([]byte, len(data))
	copy(owned, data)
	m.entries = append(m.entries, owned)
	return id, nil
}

func (m *Memory) Read(id EntryID) (*ByteCursor, error) {
	if int(id) >= len(m.entries) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return newByteCursor(m, id, len(m.entries[id])), nil
}

func (m *Memory) ReadPage(id EntryID, page int) ([]byte, error) {
	if int(id) >= len(m.entries) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	data := m.entries[id]
	start := page * m.pageSize
	if start >= len(data) {
		return nil, fmt.Errorf("%w: entry %d has no page %d", ErrCorrupted, id, page)
	}
	end := min(start+m.pageSize, len(data))
	return data[start:end], nil
}

func (m *Memory) EntryCount() int { return len(m.entries) }

func (m *Memory) PageSize() int { return m.pageSize }
