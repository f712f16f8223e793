package executor

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kvsearch/internal/config"
	"github.com/kailas-cloud/kvsearch/internal/host"
	"github.com/kailas-cloud/kvsearch/internal/host/memindex"
	"github.com/kailas-cloud/kvsearch/internal/pipeline"
)

func newTestService(t *testing.T, cfg config.PipelineConfig) (*Service, *host.MemMetadataTable) {
	t.Helper()
	metadata := host.NewMemMetadataTable()
	specLock := host.NewSpecLock()
	globalLock := host.NewGlobalLock()
	pool := NewPool(0)
	if cfg.TimeoutPolicy == "" {
		cfg.TimeoutPolicy = "return"
	}
	svc := NewService(metadata, specLock, globalLock, pool, zap.NewNop(), cfg)
	return svc, metadata
}

func scoreFromMetric(_ context.Context, ir host.IndexRecord, _ *host.DocMeta, minScore float64) (float64, *host.Explain) {
	v := ir.Metrics["score"]
	if v < minScore {
		return pipeline.FilterOut, nil
	}
	return v, nil
}

func TestService_Execute_RanksByScoreTopK(t *testing.T) {
	svc, metadata := newTestService(t, config.PipelineConfig{MaxSearchResults: 10, MaxResultsToUnsortedMode: 100})
	for _, id := range []uint64{1, 2, 3, 4} {
		metadata.Put(id, &host.DocMeta{KeyPtr: "doc"})
	}

	records := []host.IndexRecord{
		{DocID: 1, Metrics: map[string]float64{"score": 0.2}},
		{DocID: 2, Metrics: map[string]float64{"score": 0.9}},
		{DocID: 3, Metrics: map[string]float64{"score": 0.5}},
		{DocID: 4, Metrics: map[string]float64{"score": 0.7}},
	}

	plan := Plan{
		Iterator: memindex.NewSliceIterator(records),
		Scorer:   scoreFromMetric,
		K:        2,
	}

	result, err := svc.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer result.Release()

	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if result.Records[0].DocID != 2 || result.Records[1].DocID != 4 {
		t.Fatalf("expected docs [2 4] in descending score order, got [%d %d]", result.Records[0].DocID, result.Records[1].DocID)
	}
	if result.Total != 4 {
		t.Fatalf("expected total 4, got %d", result.Total)
	}
}

func TestService_Execute_CountOnlySkipsRecords(t *testing.T) {
	svc, metadata := newTestService(t, config.PipelineConfig{MaxSearchResults: 10, MaxResultsToUnsortedMode: 100})
	for _, id := range []uint64{1, 2, 3} {
		metadata.Put(id, &host.DocMeta{KeyPtr: "doc"})
	}

	records := []host.IndexRecord{
		{DocID: 1, Metrics: map[string]float64{"score": 0.2}},
		{DocID: 2, Metrics: map[string]float64{"score": 0.9}},
		{DocID: 3, Metrics: map[string]float64{"score": 0.5}},
	}

	plan := Plan{
		Iterator:  memindex.NewSliceIterator(records),
		Scorer:    scoreFromMetric,
		CountOnly: true,
	}

	result, err := svc.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 0 {
		t.Fatalf("expected no records under CountOnly, got %d", len(result.Records))
	}
	if result.Count != 3 {
		t.Fatalf("expected count 3, got %d", result.Count)
	}
}

func TestService_Execute_ScorerFiltersOutLowScoringDocs(t *testing.T) {
	svc, metadata := newTestService(t, config.PipelineConfig{MaxSearchResults: 10, MaxResultsToUnsortedMode: 100})
	for _, id := range []uint64{1, 2} {
		metadata.Put(id, &host.DocMeta{KeyPtr: "doc"})
	}

	records := []host.IndexRecord{
		{DocID: 1, Metrics: map[string]float64{"score": 0.05}},
		{DocID: 2, Metrics: map[string]float64{"score": 0.8}},
	}

	floorScorer := func(_ context.Context, ir host.IndexRecord, _ *host.DocMeta, _ float64) (float64, *host.Explain) {
		v := ir.Metrics["score"]
		if v < 0.5 {
			return pipeline.FilterOut, nil
		}
		return v, nil
	}

	plan := Plan{
		Iterator: memindex.NewSliceIterator(records),
		Scorer:   floorScorer,
	}

	result, err := svc.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer result.Release()

	if len(result.Records) != 1 || result.Records[0].DocID != 2 {
		t.Fatalf("expected only doc 2 to pass the 0.5 floor, got %d records", len(result.Records))
	}
	if result.Total != 1 {
		t.Fatalf("expected total 1 after filtering doc 1, got %d", result.Total)
	}
}

func TestService_Execute_InvalidTimeoutPolicyErrors(t *testing.T) {
	svc, _ := newTestService(t, config.PipelineConfig{TimeoutPolicy: "bogus"})

	plan := Plan{Iterator: memindex.NewSliceIterator(nil)}
	_, err := svc.Execute(context.Background(), plan)
	if err == nil {
		t.Fatal("expected an error for an invalid timeout policy")
	}
}

func TestService_Execute_EmptyIteratorYieldsNoRecords(t *testing.T) {
	svc, _ := newTestService(t, config.PipelineConfig{MaxSearchResults: 10, MaxResultsToUnsortedMode: 100})

	plan := Plan{Iterator: memindex.NewSliceIterator(nil)}
	result, err := svc.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(result.Records))
	}
	if result.Total != 0 {
		t.Fatalf("expected total 0, got %d", result.Total)
	}
}
