package host

import "sync"

// entry pairs a DocMeta with its live refcount.
type entry struct {
	dmd   *DocMeta
	count int
}

// MemMetadataTable is an in-memory, reference-counted MetadataTable. It is
// the document-metadata side of the "in-memory key-value host": the
// pipeline only ever borrows and returns entries through the MetadataTable
// interface, so a real deployment could swap this for metadata backed by
// the host's own document table without the pipeline noticing.
type MemMetadataTable struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

// NewMemMetadataTable creates an empty metadata table.
func NewMemMetadataTable() *MemMetadataTable {
	return &MemMetadataTable{entries: make(map[uint64]*entry)}
}

// Put installs or replaces the metadata entry for docID with a fresh
// refcount of zero. Intended for test and demo population, not for use
// by the pipeline itself.
func (t *MemMetadataTable) Put(docID uint64, dmd *DocMeta) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[docID] = &entry{dmd: dmd}
}

// MarkDeleted sets the Deleted flag on docID's metadata, if present.
func (t *MemMetadataTable) MarkDeleted(docID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[docID]; ok {
		e.dmd.Flags |= Deleted
	}
}

// Borrow implements MetadataTable.
func (t *MemMetadataTable) Borrow(docID uint64) (*DocMeta, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[docID]
	if !ok {
		return nil, false
	}
	e.count++
	return e.dmd, true
}

// Return implements MetadataTable.
func (t *MemMetadataTable) Return(dmd *DocMeta) {
	if dmd == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.dmd == dmd {
			e.count--
			return
		}
	}
}

// RefCount returns the current borrow count for docID (test/diagnostic use).
func (t *MemMetadataTable) RefCount(docID uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[docID]; ok {
		return e.count
	}
	return 0
}
