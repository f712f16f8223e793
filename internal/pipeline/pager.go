package pipeline

import "context"

// PagerRP discards the first offset records and yields up to limit after
// that (spec.md §4.5, component C7).
type PagerRP struct {
	baseRP

	offset int
	limit  int
	seen   int
}

var _ RP = (*PagerRP)(nil)

// NewPagerRP creates a pager over upstream with the given offset/limit.
func NewPagerRP(handle *Handle, upstream RP, offset, limit int) *PagerRP {
	return &PagerRP{
		baseRP: baseRP{upstream: upstream, handle: handle, kind: KindPager},
		offset: offset,
		limit:  limit,
	}
}

// Next implements RP.
func (p *PagerRP) Next(ctx context.Context, out *Record) Status {
	for p.seen < p.offset {
		st := p.upstream.Next(ctx, out)
		if st != OK {
			return st
		}
		out.Clear()
		p.seen++
	}

	if p.seen >= p.offset+p.limit {
		return EOF
	}

	st := p.upstream.Next(ctx, out)
	if st == OK {
		p.seen++
	}
	return st
}

// Free is a no-op: the pager owns nothing, and upstream is freed by
// Handle.Free.
func (p *PagerRP) Free() {}
