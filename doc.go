// Package kvsearch provides a Go client for the kvsearch query execution
// pipeline: a pull-based chain of result processors that turns index
// postings into ranked, paged, field-loaded documents.
//
// The inverted index and its posting-list iterators are an external
// collaborator — kvsearch takes candidate postings as input rather than
// resolving them from a query string itself.
//
//	engine, _ := kvsearch.New(ctx, kvsearch.WithValkey([]string{"localhost:6379"}, ""))
//	defer engine.Close()
//
//	res, _ := engine.Query(ctx, kvsearch.QueryRequest{
//	    Candidates: []kvsearch.Candidate{{DocID: 1, Metrics: map[string]float64{"score": 0.9}}},
//	    K:          10,
//	    LoadKeys:   []string{"title"},
//	})
package kvsearch
