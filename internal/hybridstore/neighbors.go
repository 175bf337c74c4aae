package hybridstore

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/synapseos/hybridstore/internal/quadstore"
)

// Direction selects which quads neighbors of a node are drawn from.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
	Both     Direction = "both"
)

// Scoring selects the neighbor-scoring function.
type Scoring string

const (
	ScoringDefault Scoring = ""
	ScoringDegree  Scoring = "degree"
)

// Neighbor is a single node reached by Neighbors, along with the BFS depth
// it was first reached at and its score.
type Neighbor struct {
	URI   string
	Depth int
	Score float64
}

// NeighborOptions parameterizes a Neighbors BFS.
type NeighborOptions struct {
	Direction     Direction
	Depth         int
	LimitPerLayer int // 0 means unlimited
	EdgeFilter    string
	Scoring       Scoring
}

// Neighbors resolves startID to its uri via the namespace's uri dictionary,
// then breadth-first walks the quad store up to opts.Depth hops, never
// revisiting a uri. Score at depth d is 1/d, or (1/d)/max(1, ln(degree))
// when opts.Scoring is "degree" and the neighbor's degree exceeds 1.
func (s *Store) Neighbors(startID uint32, opts NeighborOptions) ([]Neighbor, error) {
	startURI, ok := s.URIs.GetURI(startID)
	if !ok {
		return nil, fmt.Errorf("hybridstore: no uri registered for id %d", startID)
	}

	visited := map[string]bool{startURI: true}
	frontier := []string{startURI}

	var out []Neighbor
	for depth := 1; depth <= opts.Depth && len(frontier) > 0; depth++ {
		var next []string
		added := 0
		for _, node := range frontier {
			if opts.LimitPerLayer > 0 && added >= opts.LimitPerLayer {
				break
			}
			for _, target := range s.edgesFrom(node, opts.Direction, opts.EdgeFilter) {
				if visited[target] {
					continue
				}
				if opts.LimitPerLayer > 0 && added >= opts.LimitPerLayer {
					break
				}
				visited[target] = true
				added++

				score := 1.0 / float64(depth)
				if opts.Scoring == ScoringDegree {
					if deg := s.Quads.Degree(target); deg > 1 {
						score /= math.Max(1, math.Log(float64(deg)))
					}
				}

				out = append(out, Neighbor{URI: target, Depth: depth, Score: score})
				next = append(next, target)
			}
		}
		frontier = next
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// edgesFrom returns the neighbor uris of node reachable via dir, restricted
// to predicates containing edgeFilter as a substring (empty matches all).
func (s *Store) edgesFrom(node string, dir Direction, edgeFilter string) []string {
	var out []string

	if dir == Outgoing || dir == Both {
		subject := quadstore.IRI(node)
		for _, q := range s.Quads.QuadsForPattern(quadstore.Pattern{Subject: &subject}) {
			if edgeFilter != "" && !strings.Contains(q.Predicate.Value, edgeFilter) {
				continue
			}
			out = append(out, q.Object.Value)
		}
	}

	if dir == Incoming || dir == Both {
		object := quadstore.IRI(node)
		for _, q := range s.Quads.QuadsForPattern(quadstore.Pattern{Object: &object}) {
			if edgeFilter != "" && !strings.Contains(q.Predicate.Value, edgeFilter) {
				continue
			}
			out = append(out, q.Subject.Value)
		}
	}

	return out
}
