package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kvsearch/internal/config"
	"github.com/kailas-cloud/kvsearch/internal/host"
	"github.com/kailas-cloud/kvsearch/internal/metrics"
	"github.com/kailas-cloud/kvsearch/internal/pipeline"
)

// Service builds and drains RP chains against a resolved PipelineConfig.
// It owns none of its collaborators — metadata table, locks, pool, and
// logger are all injected, mirroring the narrow-interface wiring the
// teacher SDK's usecase layer used for its store dependencies.
type Service struct {
	Metadata   host.MetadataTable
	SpecLock   host.SpecLock
	GlobalLock host.GlobalLock
	Pool       *Pool
	Logger     *zap.Logger
	Config     config.PipelineConfig
}

// NewService wires a Service from its collaborators.
func NewService(metadata host.MetadataTable, specLock host.SpecLock, globalLock host.GlobalLock, pool *Pool, logger *zap.Logger, cfg config.PipelineConfig) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Metadata: metadata, SpecLock: specLock, GlobalLock: globalLock, Pool: pool, Logger: logger, Config: cfg}
}

// Result carries what a drained pipeline produced. Callers that receive a
// non-empty Records slice must call Result.Release once they are done with
// it, to return every borrowed DocMeta to the metadata table.
type Result struct {
	Records  []*pipeline.Record
	Count    int
	Total    int
	TimedOut bool
}

// Release clears every record in the result, returning borrowed DocMeta
// entries to the metadata table (spec.md §3 invariant (i)).
func (r *Result) Release() {
	for _, rec := range r.Records {
		rec.Clear()
	}
	r.Records = nil
}

// Execute builds the RP chain plan describes, drains it to completion, and
// tears it down. If the pool is configured (pipeline.concurrent_mode),
// callers should route through Pool.Run themselves; Execute runs
// synchronously on the calling goroutine either way.
func (s *Service) Execute(ctx context.Context, plan Plan) (*Result, error) {
	isFail, err := s.Config.ResolvedTimeoutPolicy()
	if err != nil {
		return nil, err
	}
	policy := pipeline.PolicyReturn
	if isFail {
		policy = pipeline.PolicyFail
	}

	handle := pipeline.NewHandle(s.Metadata, policy)
	if s.Config.QueryTimeoutMS > 0 {
		handle.ArmDeadline(time.Now().Add(time.Duration(s.Config.QueryTimeoutMS) * time.Millisecond))
	}

	// spec.md §5(a): the index-spec read lock is held for the duration of
	// the pipeline pull. BufferLockerRP may drop it early on the
	// blocking-acquire path (§4.8); when it does, locker.LockState().Dropped
	// reports that so this deferred RUnlock isn't a double-release.
	s.SpecLock.RLock()
	var locker *pipeline.BufferLockerRP
	defer func() {
		if locker != nil && locker.LockState().Dropped() {
			return
		}
		s.SpecLock.RUnlock()
	}()

	var profilers []*pipeline.ProfilerRP
	wrap := func(rp pipeline.RP) pipeline.RP {
		node := rp
		if plan.Profile {
			p := pipeline.NewProfilerRP(handle, rp)
			profilers = append(profilers, p)
			node = p
		}
		handle.Register(node)
		return node
	}

	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
		for _, p := range profilers {
			count, spent := p.Stats()
			metrics.ObserveProfiler(p.KindOf().String(), count, spent.Seconds())
		}
	}()

	var cur pipeline.RP = wrap(pipeline.NewSourceRP(handle, plan.Iterator, plan.Shard))

	if plan.Scorer != nil {
		cur = wrap(pipeline.NewScorerRP(handle, cur, plan.Scorer))
	}
	if plan.LoadMetrics {
		cur = wrap(pipeline.NewMetricsLoaderRP(handle, cur))
	}

	k := s.resolveK(plan.K)
	if len(plan.SortFields) > 0 {
		cur = wrap(pipeline.NewFieldSorterRP(handle, cur, k, plan.SortFields, plan.Loader, s.Config.NoMemPool))
	} else {
		cur = wrap(pipeline.NewSorterRP(handle, cur, k, s.Config.NoMemPool))
	}

	if plan.Offset > 0 || plan.Limit > 0 {
		cur = wrap(pipeline.NewPagerRP(handle, cur, plan.Offset, plan.Limit))
	}

	var lastProfiler *pipeline.ProfilerRP
	if plan.Profile && len(profilers) > 0 {
		lastProfiler = profilers[len(profilers)-1]
	}

	if plan.Loader != nil {
		locker = pipeline.NewBufferLockerRP(handle, cur, s.SpecLock, s.GlobalLock)
		cur = wrap(locker)
		cur = wrap(pipeline.NewLoaderRP(handle, cur, plan.Loader, plan.LoadMode, plan.LoadKeys))
		cur = wrap(pipeline.NewUnlockerRP(handle, cur, s.GlobalLock, locker.LockState()))
		if plan.Profile && len(profilers) > 0 {
			lastProfiler = profilers[len(profilers)-1]
		}
	}

	if plan.CountOnly {
		cur = pipeline.NewCounterRP(handle, cur, lastProfiler)
		handle.Register(cur)
	}

	defer handle.Free()

	result, status := s.drain(ctx, handle, cur, plan.CountOnly)
	result.Total = handle.Total()
	metrics.QueriesTotal.WithLabelValues(status.String()).Inc()

	switch status {
	case pipeline.EOF:
		return result, nil
	case pipeline.TimedOut:
		result.TimedOut = true
		return result, nil
	case pipeline.ErrStatus:
		if handle.Err() != nil {
			return nil, handle.Err()
		}
		return nil, fmt.Errorf("executor: pipeline reported error with no cause recorded")
	default:
		return nil, fmt.Errorf("executor: unexpected terminal status %s", status)
	}
}

func (s *Service) resolveK(requested int) int {
	if requested <= 0 {
		return 0
	}
	if s.Config.MaxResultsToUnsortedMode > 0 && requested > s.Config.MaxResultsToUnsortedMode {
		return 0
	}
	if s.Config.MaxSearchResults > 0 && requested > s.Config.MaxSearchResults {
		return s.Config.MaxSearchResults
	}
	return requested
}

func (s *Service) drain(ctx context.Context, handle *pipeline.Handle, end pipeline.RP, countOnly bool) (*Result, pipeline.Status) {
	if countOnly {
		rec := pipeline.NewRecord(s.Metadata)
		st := end.Next(ctx, rec)
		counter, _ := end.(*pipeline.CounterRP)
		result := &Result{}
		if counter != nil {
			result.Count = counter.Count()
		}
		return result, st
	}

	result := &Result{}
	for {
		rec := pipeline.NewRecord(s.Metadata)
		st := end.Next(ctx, rec)
		if st == pipeline.OK {
			result.Records = append(result.Records, rec)
			continue
		}
		return result, st
	}
}
