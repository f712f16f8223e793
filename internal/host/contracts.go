// Package host defines the fixed external contracts the query pipeline
// pulls from: the inverted index iterator, the document metadata table,
// the field loader, the scoring function, the host's global lock, and the
// sharding hook. None of these are implemented here as a full search
// engine — the pipeline only depends on these narrow interfaces, the same
// way internal/repository depends on internal/db's narrow store
// interfaces in the SDK this package is modeled on.
package host

import "context"

// ReadStatus is the outcome of a single pull from an IndexIterator.
type ReadStatus int

// ReadStatus values.
const (
	ReadOK ReadStatus = iota
	ReadEOF
	ReadNotFound
	ReadTimedOut
)

// String implements fmt.Stringer for log fields.
func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadEOF:
		return "eof"
	case ReadNotFound:
		return "not_found"
	case ReadTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// IndexRecord is a single posting entry read from the index iterator.
// IndexResult is the iterator's internal handle for the current posting;
// it is only valid until the next Read call and must never be retained
// past that point by a caller.
type IndexRecord struct {
	DocID       uint64
	Metrics     map[string]float64
	IndexResult any
}

// IndexIterator pulls posting entries from the inverted index. The root of
// a pipeline wraps one (or none, for a pipeline with no matches).
type IndexIterator interface {
	Read(ctx context.Context, out *IndexRecord) ReadStatus
}

// Flags is a bitfield carried on a DocMeta entry.
type Flags uint8

// Deleted marks a document metadata entry as tombstoned.
const Deleted Flags = 1 << 0

// DocMeta is a reference-counted document metadata descriptor borrowed
// from the metadata table. SortVector is a precomputed vector of sort-key
// values and is only valid while the DocMeta is held.
type DocMeta struct {
	KeyPtr     string
	SortVector map[string]SortValue
	Flags      Flags
}

// IsDeleted reports whether the Deleted flag is set.
func (d *DocMeta) IsDeleted() bool { return d != nil && d.Flags&Deleted != 0 }

// MetadataTable borrows and returns reference-counted DocMeta entries.
type MetadataTable interface {
	// Borrow increments the entry's refcount and returns it, or reports ok=false
	// if the document has no metadata entry at all.
	Borrow(docID uint64) (dmd *DocMeta, ok bool)
	// Return decrements the refcount taken by a prior Borrow.
	Return(dmd *DocMeta)
}

// LoadMode selects which fields the Loader fetches.
type LoadMode int

// LoadMode values.
const (
	LoadKeyList LoadMode = iota
	LoadAllKeys
)

// LoadRequest describes a single field-load call against the host.
type LoadRequest struct {
	Dmd  *DocMeta
	Keys []string
	Mode LoadMode
}

// FieldLoader fetches document field values from the host's key-space.
type FieldLoader interface {
	Load(ctx context.Context, row *Row, req LoadRequest) error
}

// ScoringFunc computes a relevance score for a posting. It may populate
// explain with a justification tree; returning FilterOut instructs the
// scorer RP to discard the record.
type ScoringFunc func(ctx context.Context, ir IndexRecord, dmd *DocMeta, minScore float64) (score float64, explain *Explain)

// GlobalLock is the host's single exclusive lock, acquired only by the
// buffer-and-locker/unlocker RP pair.
type GlobalLock interface {
	TryLock() bool
	Lock()
	Unlock()
}

// SpecLock is the index-spec read lock held for the duration of a pull
// unless a buffer-and-locker drops it to avoid the lock-hierarchy
// inversion described in spec.md §4.8/§9.
type SpecLock interface {
	RLock()
	RUnlock()
	// Version returns a monotonically increasing counter bumped on every
	// index mutation; used by the buffer-and-locker to detect concurrent
	// changes across the lock-drop window.
	Version() uint64
}

// ShardHook activates slot-range filtering in the index source RP.
type ShardHook interface {
	SlotOf(key string) uint16
	SlotRange() (lo, hi uint16)
}
