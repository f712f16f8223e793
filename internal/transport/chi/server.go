// Package chi exposes the query pipeline over HTTP: a single query
// endpoint plus health and metrics, wired to internal/executor instead of
// the teacher SDK's collection/document use cases.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kvsearch/internal/executor"
	"github.com/kailas-cloud/kvsearch/internal/host"
	"github.com/kailas-cloud/kvsearch/internal/host/memindex"
	"github.com/kailas-cloud/kvsearch/internal/pipeline"
)

// errorHandler tries to handle a pipeline error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the query pipeline's HTTP surface.
type Server struct {
	svc           *executor.Service
	loader        host.FieldLoader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server over svc. loader is consulted when a
// request sets load_keys or load_all_fields; it may be nil, in which case
// such requests return documents with no fields populated.
func NewServer(svc *executor.Service, loader host.FieldLoader, logger *zap.Logger) *Server {
	s := &Server{svc: svc, loader: loader, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(pipeline.ErrInvariantBreach, http.StatusInternalServerError, "invariant_breach"),
		sentinelHandler(pipeline.ErrAllocationFailed, http.StatusInternalServerError, "allocation_failed"),
	}
	return s
}

// candidate is a single posting entry supplied by the caller. The inverted
// index that would normally produce these is an external collaborator out
// of scope here; the query endpoint takes them as input instead of
// resolving them from a query string itself.
type candidate struct {
	DocID   uint64             `json:"doc_id"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

type sortFieldReq struct {
	Key       string `json:"key"`
	Ascending bool   `json:"ascending"`
}

type queryRequest struct {
	Candidates []candidate    `json:"candidates"`
	SortFields []sortFieldReq `json:"sort_fields,omitempty"`
	K          int            `json:"k,omitempty"`
	Offset     int            `json:"offset,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	LoadKeys   []string       `json:"load_keys,omitempty"`
	LoadAll    bool           `json:"load_all_fields,omitempty"`
	CountOnly  bool           `json:"count_only,omitempty"`
	Profile    bool           `json:"profile,omitempty"`
}

type resultItem struct {
	DocID  uint64            `json:"doc_id"`
	Score  float64           `json:"score"`
	Fields map[string]string `json:"fields,omitempty"`
}

type queryResponse struct {
	Total    int          `json:"total"`
	Count    int          `json:"count,omitempty"`
	TimedOut bool         `json:"timed_out,omitempty"`
	Results  []resultItem `json:"results,omitempty"`
}

// Query handles POST /v1/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	records := make([]host.IndexRecord, len(req.Candidates))
	for i, c := range req.Candidates {
		records[i] = host.IndexRecord{DocID: c.DocID, Metrics: c.Metrics}
	}

	plan := executor.Plan{
		Iterator:    memindex.NewSliceIterator(records),
		Scorer:      identityScorer,
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
	if (len(req.LoadKeys) > 0 || req.LoadAll) && s.loader != nil {
		plan.Loader = s.loader
		plan.LoadKeys = req.LoadKeys
		if req.LoadAll {
			plan.LoadMode = host.LoadAllKeys
		}
	}

	result, err := s.svc.Execute(r.Context(), plan)
	if err != nil {
		s.handlePipelineError(w, err)
		return
	}
	defer result.Release()

	resp := queryResponse{Total: result.Total, Count: result.Count, TimedOut: result.TimedOut}
	for _, rec := range result.Records {
		item := resultItem{DocID: rec.DocID, Score: rec.Score}
		for _, k := range req.LoadKeys {
			if v, ok := rec.Row.Get(k); ok {
				if item.Fields == nil {
					item.Fields = make(map[string]string)
				}
				item.Fields[k] = v.String()
			}
		}
		resp.Results = append(resp.Results, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// identityScorer reads the "score" metric straight through. minScore is
// the sorter's current top-K pruning hint, not a filter sentinel, so a
// record under it still carries a real score here; the sorter's own heap
// eviction is what prunes it. It stands in for the host's real relevance
// function, which is out of scope here.
func identityScorer(_ context.Context, ir host.IndexRecord, _ *host.DocMeta, _ float64) (float64, *host.Explain) {
	return ir.Metrics["score"], nil
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handlePipelineError(w http.ResponseWriter, err error) {
	s.logger.Warn("pipeline error", zap.Error(err))
	msg := "internal error"
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		msg = pe.Error()
	}
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
