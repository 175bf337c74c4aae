// Package mcp implements tool handlers for MCP server
package mcp

import (
	"context"
	"fmt"

	"github.com/synapseos/hybridstore/internal/hybridstore"
	"github.com/synapseos/hybridstore/internal/namespace"
	"github.com/synapseos/hybridstore/internal/quadstore"
	"github.com/synapseos/hybridstore/internal/reasoner"
	"go.uber.org/zap"
)

// HandlerDependencies contains dependencies for tool handlers.
type HandlerDependencies struct {
	Namespaces *namespace.Manager
	Logger     *zap.Logger
}

func (d *HandlerDependencies) store(ns string) (*hybridstore.Store, error) {
	return d.Namespaces.GetStore(ns)
}

// handleIngest ingests a batch of triples into a namespace.
func handleIngest(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	rawTriples, _ := args["triples"].([]interface{})

	triples := make([]quadstore.IngestTriple, 0, len(rawTriples))
	for _, rt := range rawTriples {
		m, ok := rt.(map[string]interface{})
		if !ok {
			continue
		}
		triple := quadstore.IngestTriple{
			Subject:   getString(m, "subject"),
			Predicate: getString(m, "predicate"),
			Object:    getString(m, "object"),
		}
		if provRaw, ok := m["provenance"].(map[string]interface{}); ok {
			triple.Provenance = &quadstore.Provenance{
				Source:    getString(provRaw, "source"),
				Timestamp: getString(provRaw, "timestamp"),
				Method:    getString(provRaw, "method"),
			}
		}
		triples = append(triples, triple)
	}

	store, err := deps.store(ns)
	if err != nil {
		return nil, err
	}

	added, err := store.Ingest(triples)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"added": added}, nil
}

// handleSearch runs a vector-only search.
func handleSearch(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	query := getString(args, "query")
	limit := getInt(args, "limit", 10)

	store, err := deps.store(ns)
	if err != nil {
		return nil, err
	}

	return store.Search(ctx, query, limit)
}

// handleHybridSearch runs a vector search fanned into graph expansion.
func handleHybridSearch(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	query := getString(args, "query")
	vectorK := getInt(args, "vector_k", 10)
	graphDepth := getInt(args, "graph_depth", 1)

	store, err := deps.store(ns)
	if err != nil {
		return nil, err
	}

	return store.HybridSearch(ctx, query, vectorK, graphDepth)
}

// handleNeighbors runs a breadth-first graph traversal from a uri.
func handleNeighbors(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	uri := getString(args, "uri")

	store, err := deps.store(ns)
	if err != nil {
		return nil, err
	}

	startID, err := store.ResolveID(uri)
	if err != nil {
		return nil, err
	}

	opts := hybridstore.NeighborOptions{
		Direction:     hybridstore.Direction(getStringDefault(args, "direction", "outgoing")),
		Depth:         getInt(args, "depth", 1),
		LimitPerLayer: getInt(args, "limit_per_layer", 0),
		EdgeFilter:    getString(args, "edge_filter"),
		Scoring:       hybridstore.Scoring(getString(args, "scoring")),
	}

	return store.Neighbors(startID, opts)
}

// handleSPARQL runs a SPARQL query against a namespace.
func handleSPARQL(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	query := getString(args, "query")

	store, err := deps.store(ns)
	if err != nil {
		return nil, err
	}

	return store.QuerySPARQL(query)
}

// handleReason applies RDFS/OWL-RL inference to a namespace.
func handleReason(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	strategy := parseStrategy(getStringDefault(args, "strategy", "rdfs"))
	materialize := getBool(args, "materialize", false)

	store, err := deps.store(ns)
	if err != nil {
		return nil, err
	}

	inferred, inserted, err := store.ApplyReasoning(strategy, materialize)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"inferred": inferred, "inserted": inserted}, nil
}

// handleDeleteNamespace removes a namespace and its data.
func handleDeleteNamespace(ctx context.Context, deps *HandlerDependencies, args map[string]interface{}) (interface{}, error) {
	ns := getString(args, "namespace")
	if ns == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if err := deps.Namespaces.DeleteNamespace(ns); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": ns}, nil
}

func parseStrategy(s string) reasoner.Strategy {
	switch s {
	case "owlrl", "owl-rl":
		return reasoner.OWLRL
	case "none":
		return reasoner.None
	default:
		return reasoner.RDFS
	}
}

// RegisterHandlers returns the raw tool-name -> handler map, one entry per
// schema in ToolSchemas.
func RegisterHandlers() map[string]func(context.Context, *HandlerDependencies, map[string]interface{}) (interface{}, error) {
	return map[string]func(context.Context, *HandlerDependencies, map[string]interface{}) (interface{}, error){
		"ingest":           handleIngest,
		"search":           handleSearch,
		"hybrid_search":    handleHybridSearch,
		"neighbors":        handleNeighbors,
		"sparql":           handleSPARQL,
		"reason":           handleReason,
		"delete_namespace": handleDeleteNamespace,
	}
}

func getString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func getStringDefault(args map[string]interface{}, key, def string) string {
	if v := getString(args, key); v != "" {
		return v
	}
	return def
}

func getInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func getBool(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}
