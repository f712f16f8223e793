package pipeline

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// MetricsLoaderRP copies per-record synthetic metrics from the current
// index record into the row (spec.md §4.4, component C5). It is a
// trivial pass-through otherwise.
type MetricsLoaderRP struct {
	baseRP
}

var _ RP = (*MetricsLoaderRP)(nil)

// NewMetricsLoaderRP wraps upstream with the metrics-copy stage.
func NewMetricsLoaderRP(handle *Handle, upstream RP) *MetricsLoaderRP {
	return &MetricsLoaderRP{baseRP: baseRP{upstream: upstream, handle: handle, kind: KindMetricsLoader}}
}

// Next implements RP.
func (m *MetricsLoaderRP) Next(ctx context.Context, out *Record) Status {
	st := m.upstream.Next(ctx, out)
	if st != OK {
		return st
	}
	if out.IndexResult != nil {
		for k, v := range out.IndexResult.Metrics {
			out.Row.Write(k, host.NumericValue(v))
		}
	}
	return OK
}

// Free is a no-op: this RP owns nothing, and upstream is freed by
// Handle.Free.
func (m *MetricsLoaderRP) Free() {}
