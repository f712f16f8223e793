package pipeline

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// LoaderRP fetches document fields from the host's key-space into the row
// after upstream yields (spec.md §4.7, component C8).
//
// Per spec.md §9's documented open question, a record whose dmd is absent
// or deleted is passed through with an empty row rather than dropped, and
// a load failure is swallowed the same way rather than surfaced as an
// error — both deliberately test-covered so a future change is never
// accidental.
type LoaderRP struct {
	baseRP

	loader host.FieldLoader
	keys   []string
	mode   host.LoadMode
}

var _ RP = (*LoaderRP)(nil)

// NewLoaderRP creates a loader stage. mode selects key-list vs all-keys
// loading; keys is only consulted under host.LoadKeyList.
func NewLoaderRP(handle *Handle, upstream RP, loader host.FieldLoader, mode host.LoadMode, keys []string) *LoaderRP {
	return &LoaderRP{
		baseRP: baseRP{upstream: upstream, handle: handle, kind: KindLoader},
		loader: loader,
		keys:   keys,
		mode:   mode,
	}
}

// Next implements RP.
func (l *LoaderRP) Next(ctx context.Context, out *Record) Status {
	st := l.upstream.Next(ctx, out)
	if st != OK {
		return st
	}

	if out.Dmd == nil || out.Dmd.IsDeleted() || l.loader == nil {
		return OK
	}

	req := host.LoadRequest{Dmd: out.Dmd, Keys: l.keys, Mode: l.mode}
	if err := l.loader.Load(ctx, &out.Row, req); err != nil {
		return OK
	}
	return OK
}

// Free is a no-op: the loader owns nothing, and upstream is freed by
// Handle.Free.
func (l *LoaderRP) Free() {}
