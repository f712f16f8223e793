package pipeline

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// lockState is shared between a BufferLockerRP and its paired UnlockerRP so
// the unlocker knows whether a lock was actually taken — the buffer-locker
// skips locking entirely when it has nothing buffered (spec.md §4.8
// "Failure modes"). It also tells the executor whether the spec read lock
// it acquired for this pull was already dropped here, so the executor
// doesn't double-RUnlock an already-released RWMutex.
type lockState struct {
	locked  bool
	dropped bool
}

// Dropped reports whether this RP already returned the caller's spec read
// lock on the blocking-acquire path (fill's fallback when TryLock fails).
func (ls *lockState) Dropped() bool { return ls.dropped }

type yieldMode int

const (
	yieldPlain yieldMode = iota
	yieldValidate
)

// BufferLockerRP detaches the pipeline from the index-spec read lock,
// buffers every upstream record, then acquires the host's single global
// lock before yielding — the deadlock-avoidance sequence described in
// spec.md §4.8 and §9 ("Buffer-and-lock ordering"): try the global lock
// first; only if that fails does it drop the spec lock before blocking,
// and it never reacquires the spec lock afterward.
type BufferLockerRP struct {
	baseRP

	specLock   host.SpecLock
	globalLock host.GlobalLock
	ls         *lockState

	buf []*Record
	v0  uint64

	buffering bool
	mode      yieldMode
	cursor    int
}

var _ RP = (*BufferLockerRP)(nil)

// NewBufferLockerRP creates the buffering half of the C9 pair. specLock is
// the read lock the caller already holds for this pull; globalLock is the
// host's single exclusive lock.
func NewBufferLockerRP(handle *Handle, upstream RP, specLock host.SpecLock, globalLock host.GlobalLock) *BufferLockerRP {
	return &BufferLockerRP{
		baseRP:     baseRP{upstream: upstream, handle: handle, kind: KindBufferLocker},
		specLock:   specLock,
		globalLock: globalLock,
		ls:         &lockState{},
		buffering:  true,
	}
}

// LockState exposes the shared lock-acquisition flag for wiring into a
// paired UnlockerRP placed downstream of this RP's consumers.
func (b *BufferLockerRP) LockState() *lockState { return b.ls }

// Next implements RP.
func (b *BufferLockerRP) Next(ctx context.Context, out *Record) Status {
	if b.buffering {
		if st := b.fill(ctx); st != OK {
			return st
		}
	}
	return b.drain(out)
}

// fill runs the entire buffer phase to completion (spec.md §4.8 step 2-3)
// the first time Next is called, since nothing can be yielded before the
// lock decision is made.
func (b *BufferLockerRP) fill(ctx context.Context) Status {
	b.v0 = b.specLock.Version()

	for {
		rec := NewRecord(b.handle.Metadata)
		st := b.upstream.Next(ctx, rec)
		switch st {
		case OK:
			b.buf = append(b.buf, rec)
			continue
		case EOF:
		case TimedOut:
			if b.handle.TimeoutPolicy() != PolicyReturn {
				b.discard()
				return TimedOut
			}
		default:
			b.discard()
			return st
		}
		break
	}
	b.buffering = false

	if len(b.buf) == 0 {
		return OK // nothing to lock for; drain will immediately report EOF
	}

	if b.globalLock.TryLock() {
		b.ls.locked = true
		b.mode = yieldPlain
		return OK
	}

	b.specLock.RUnlock()
	b.ls.dropped = true
	b.globalLock.Lock()
	b.ls.locked = true
	if b.specLock.Version() != b.v0 {
		b.mode = yieldValidate
	} else {
		b.mode = yieldPlain
	}
	return OK
}

// drain implements spec.md §4.8 step 4.
func (b *BufferLockerRP) drain(out *Record) Status {
	for b.cursor < len(b.buf) {
		rec := b.buf[b.cursor]
		b.buf[b.cursor] = nil
		b.cursor++

		if b.mode == yieldValidate && rec.Dmd != nil && rec.Dmd.IsDeleted() {
			rec.Clear()
			continue
		}
		out.CopyFrom(rec)
		return OK
	}
	return EOF
}

func (b *BufferLockerRP) discard() {
	for _, rec := range b.buf {
		if rec != nil {
			rec.Clear()
		}
	}
	b.buf = nil
}

// Free releases anything left un-yielded in the buffer. It does not free
// upstream.
func (b *BufferLockerRP) Free() {
	b.discard()
}
