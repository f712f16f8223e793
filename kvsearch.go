package kvsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kvsearch/internal/executor"
	"github.com/kailas-cloud/kvsearch/internal/host"
	"github.com/kailas-cloud/kvsearch/internal/host/memindex"
	"github.com/kailas-cloud/kvsearch/internal/host/redisfields"
	"github.com/kailas-cloud/kvsearch/internal/pipeline"
)

const defaultReadinessTimeout = 10 * time.Second

// Engine is the kvsearch client entry point: a field-loading store plus the
// query execution pipeline wired on top of it.
type Engine struct {
	store    *redisfields.Store
	metadata *host.MemMetadataTable
	svc      *executor.Service
	logger   *zap.Logger
}

// New creates an Engine and connects its field-loading store. The provided
// context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg := &engineConfig{keyPrefix: "kvsearch:"}
	for _, o := range opts {
		o.apply(cfg)
	}
	applyEngineDefaults(cfg)

	if len(cfg.addrs) == 0 {
		return nil, errors.New("kvsearch: database address required (use WithValkey or WithRedis)")
	}

	store, err := redisfields.NewStore(redisfields.Config{
		Addrs:     cfg.addrs,
		Username:  cfg.username,
		Password:  cfg.password,
		DB:        cfg.db,
		KeyPrefix: cfg.keyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("kvsearch: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("kvsearch: database not ready: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metadata := host.NewMemMetadataTable()
	specLock := host.NewSpecLock()
	globalLock := host.NewGlobalLock()

	poolSize := cfg.poolSize
	if !cfg.concurrentMode {
		poolSize = 0
	}
	pool := executor.NewPool(poolSize)
	svc := executor.NewService(metadata, specLock, globalLock, pool, logger, cfg.pipeline)

	logger.Info("kvsearch engine connected",
		zap.String("driver", cfg.driver),
		zap.Strings("addrs", cfg.addrs),
		zap.Bool("concurrent_mode", cfg.concurrentMode),
	)

	return &Engine{store: store, metadata: metadata, svc: svc, logger: logger}, nil
}

func applyEngineDefaults(c *engineConfig) {
	if c.pipeline.TimeoutPolicy == "" {
		c.pipeline.TimeoutPolicy = "return"
	}
	if c.pipeline.MaxSearchResults <= 0 {
		c.pipeline.MaxSearchResults = 1000
	}
	if c.pipeline.MaxResultsToUnsortedMode <= 0 {
		c.pipeline.MaxResultsToUnsortedMode = 10000
	}
	if c.concurrentMode && c.poolSize <= 0 {
		c.poolSize = 16
	}
	if c.keyPrefix == "" {
		c.keyPrefix = "kvsearch:"
	}
}

// Close releases the engine's field-loading store connection.
func (e *Engine) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// Ping checks field-store connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("kvsearch: ping: %w", err)
	}
	return nil
}

// Metadata returns the in-process document metadata table backing this
// engine, so callers can seed sort vectors and key pointers before running
// queries against the docs they describe.
func (e *Engine) Metadata() *host.MemMetadataTable {
	return e.metadata
}

// Candidate is a single posting entry a caller supplies as query input,
// standing in for what an inverted index iterator would otherwise produce.
type Candidate struct {
	DocID   uint64
	Metrics map[string]float64
}

// SortField requests field-based ordering instead of score ordering.
type SortField struct {
	Key       string
	Ascending bool
}

// QueryRequest describes one query's worth of input to the pipeline.
type QueryRequest struct {
	Candidates []Candidate
	SortFields []SortField
	// K is the sorter's top-K cap; 0 means dynamic growth.
	K      int
	Offset int
	Limit  int

	// LoadKeys requests specific document fields be loaded for each result.
	LoadKeys []string
	// LoadAllFields loads every stored field into each result's row instead
	// of just LoadKeys. ResultItem.Fields still carries only the keys named
	// in LoadKeys; other loaded fields are not returned.
	LoadAllFields bool

	// CountOnly replaces results with a single count.
	CountOnly bool
	// Profile attaches per-stage timing to the query. The timings are
	// exported through the pipeline's Prometheus metrics, not returned in
	// QueryResult.
	Profile bool
}

// ResultItem is a single ranked, optionally field-loaded document.
type ResultItem struct {
	DocID  uint64
	Score  float64
	Fields map[string]string
}

// QueryResult carries what a query produced.
type QueryResult struct {
	Total    int
	Count    int
	TimedOut bool
	Results  []ResultItem
}

// Query runs req through the pipeline: score, sort, page, and optionally
// load fields, returning ranked results.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	records := make([]host.IndexRecord, len(req.Candidates))
	for i, c := range req.Candidates {
		records[i] = host.IndexRecord{DocID: c.DocID, Metrics: c.Metrics}
	}

	plan := executor.Plan{
		Iterator:    memindex.NewSliceIterator(records),
		Scorer:      scoreFromMetrics,
		LoadMetrics: true,
		K:           req.K,
		Offset:      req.Offset,
		Limit:       req.Limit,
		CountOnly:   req.CountOnly,
		Profile:     req.Profile,
	}
	for _, f := range req.SortFields {
		plan.SortFields = append(plan.SortFields, pipeline.SortField{Key: f.Key, Ascending: f.Ascending})
	}
	if len(req.LoadKeys) > 0 || req.LoadAllFields {
		plan.Loader = e.store
		plan.LoadKeys = req.LoadKeys
		if req.LoadAllFields {
			plan.LoadMode = host.LoadAllKeys
		}
	}

	result, err := e.svc.Execute(ctx, plan)
	if err != nil {
		return QueryResult{}, fmt.Errorf("kvsearch: query: %w", err)
	}
	defer result.Release()

	out := QueryResult{Total: result.Total, Count: result.Count, TimedOut: result.TimedOut}
	for _, rec := range result.Records {
		item := ResultItem{DocID: rec.DocID, Score: rec.Score}
		for _, k := range req.LoadKeys {
			if v, ok := rec.Row.Get(k); ok {
				if item.Fields == nil {
					item.Fields = make(map[string]string)
				}
				item.Fields[k] = v.String()
			}
		}
		out.Results = append(out.Results, item)
	}
	return out, nil
}

// scoreFromMetrics reads the "score" metric straight through. minScore is
// the sorter's current top-K pruning hint, not a filter sentinel: a
// record below it still has a real score and is pruned by the sorter's
// own heap eviction, not by being counted out of Total here. The host's
// real relevance function is an external collaborator out of scope here.
func scoreFromMetrics(_ context.Context, ir host.IndexRecord, _ *host.DocMeta, _ float64) (float64, *host.Explain) {
	return ir.Metrics["score"], nil
}
