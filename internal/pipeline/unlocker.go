package pipeline

import "context"

// UnlockerRP releases the host's global lock once its upstream (everything
// downstream of a BufferLockerRP, including whatever consumers needed the
// lock) first reaches EOF. It is always placed at the far downstream end of
// the locked region of the chain (spec.md §4.8 step 5, component C9).
type UnlockerRP struct {
	baseRP

	globalLock interface{ Unlock() }
	ls         *lockState

	unlocked bool
}

var _ RP = (*UnlockerRP)(nil)

// NewUnlockerRP pairs with a BufferLockerRP via its shared lock state.
func NewUnlockerRP(handle *Handle, upstream RP, globalLock interface{ Unlock() }, ls *lockState) *UnlockerRP {
	return &UnlockerRP{
		baseRP:     baseRP{upstream: upstream, handle: handle, kind: KindUnlocker},
		globalLock: globalLock,
		ls:         ls,
	}
}

// Next implements RP.
func (u *UnlockerRP) Next(ctx context.Context, out *Record) Status {
	st := u.upstream.Next(ctx, out)
	if st == EOF {
		u.releaseOnce()
	}
	return st
}

func (u *UnlockerRP) releaseOnce() {
	if u.unlocked {
		return
	}
	u.unlocked = true
	if u.ls.locked {
		u.ls.locked = false
		u.globalLock.Unlock()
	}
}

// Free does not free upstream; if the chain tears down before reaching a
// natural EOF, it still releases the global lock exactly once.
func (u *UnlockerRP) Free() {
	u.releaseOnce()
}
