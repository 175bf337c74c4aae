package hybridstore

import (
	"context"
	"math"
	"sort"

	"github.com/synapseos/hybridstore/internal/quadstore"
)

// ScoredURI is a single hybrid-search hit.
type ScoredURI struct {
	URI   string
	Score float64
}

// HybridSearch runs a vector search for query, then for each hit expands
// outward through the quad store up to graphDepth hops, decaying each
// expanded hit's score by 0.8^depth_level (depth_level is the BFS depth at
// which that node was reached, 1 for an immediate neighbor). This departs
// deliberately from original_source/store.rs::hybrid_search, whose decay is
// a flat *0.8 regardless of depth: the exponential form is what the score
// monotonicity invariant actually requires.
func (s *Store) HybridSearch(ctx context.Context, query string, vectorK, graphDepth int) ([]ScoredURI, error) {
	if s.Vectors == nil || s.embedder == nil {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}

	hits := s.Vectors.Search(ctx, queryVec, vectorK)

	var all []ScoredURI
	for _, hit := range hits {
		all = append(all, ScoredURI{URI: hit.URI, Score: float64(hit.Score)})
		if graphDepth > 0 {
			all = append(all, s.expandGraph(hit.URI, hit.Score, graphDepth, 1)...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	seen := make(map[string]bool, len(all))
	out := make([]ScoredURI, 0, len(all))
	for _, r := range all {
		if seen[r.URI] {
			continue
		}
		seen[r.URI] = true
		out = append(out, r)
	}

	return out, nil
}

// expandGraph walks the quad store outward from uri (crossing graphs
// indiscriminately, per the governing spec), emitting one scored hit per
// outgoing quad's object and recursing on that object until depthRemaining
// is exhausted.
func (s *Store) expandGraph(uri string, baseScore float32, depthRemaining, level int) []ScoredURI {
	if depthRemaining <= 0 {
		return nil
	}

	subject := quadstore.IRI(uri)
	quads := s.Quads.QuadsForPattern(quadstore.Pattern{Subject: &subject})

	decay := float64(baseScore) * math.Pow(0.8, float64(level))

	var out []ScoredURI
	for _, q := range quads {
		objURI := q.Object.Value
		out = append(out, ScoredURI{URI: objURI, Score: decay})
		if depthRemaining > 1 {
			out = append(out, s.expandGraph(objURI, baseScore, depthRemaining-1, level+1)...)
		}
	}
	return out
}
