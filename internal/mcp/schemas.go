// Package mcp defines tool schemas for MCP
package mcp

// ToolSchemas returns all available tool definitions, one per hybrid-store
// operation exposed to MCP clients.
func ToolSchemas() []Tool {
	return []Tool{
		{
			Definition: ToolDefinition{
				Name:        "ingest",
				Description: "Ingest a batch of (subject, predicate, object) triples into a namespace's hybrid store",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace": map[string]interface{}{
							"type":        "string",
							"description": "Target namespace, defaults to \"default\"",
						},
						"triples": map[string]interface{}{
							"type":        "array",
							"description": "Triples to ingest",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"subject":   map[string]interface{}{"type": "string"},
									"predicate": map[string]interface{}{"type": "string"},
									"object":    map[string]interface{}{"type": "string"},
									"provenance": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"source":    map[string]interface{}{"type": "string"},
											"timestamp": map[string]interface{}{"type": "string"},
											"method":    map[string]interface{}{"type": "string"},
										},
									},
								},
								"required": []string{"subject", "predicate", "object"},
							},
						},
					},
					"required": []string{"triples"},
				},
			},
		},
		{
			Definition: ToolDefinition{
				Name:        "search",
				Description: "Vector-search a namespace's ingested content for text similar to a query",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace": map[string]interface{}{"type": "string"},
						"query":     map[string]interface{}{"type": "string"},
						"limit":     map[string]interface{}{"type": "integer", "default": 10},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Definition: ToolDefinition{
				Name:        "hybrid_search",
				Description: "Vector search fanned out through graph expansion, returning (uri, score) pairs",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace":   map[string]interface{}{"type": "string"},
						"query":       map[string]interface{}{"type": "string"},
						"vector_k":    map[string]interface{}{"type": "integer", "default": 10},
						"graph_depth": map[string]interface{}{"type": "integer", "default": 1},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Definition: ToolDefinition{
				Name:        "neighbors",
				Description: "Breadth-first graph traversal from a uri",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace":       map[string]interface{}{"type": "string"},
						"uri":             map[string]interface{}{"type": "string"},
						"direction":       map[string]interface{}{"type": "string", "enum": []string{"outgoing", "incoming", "both"}, "default": "outgoing"},
						"depth":           map[string]interface{}{"type": "integer", "default": 1},
						"limit_per_layer": map[string]interface{}{"type": "integer", "default": 0},
						"edge_filter":     map[string]interface{}{"type": "string"},
						"scoring":         map[string]interface{}{"type": "string", "enum": []string{"", "degree"}},
					},
					"required": []string{"uri"},
				},
			},
		},
		{
			Definition: ToolDefinition{
				Name:        "sparql",
				Description: "Run a SELECT/ASK/CONSTRUCT/DESCRIBE SPARQL query against a namespace",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace": map[string]interface{}{"type": "string"},
						"query":     map[string]interface{}{"type": "string"},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Definition: ToolDefinition{
				Name:        "reason",
				Description: "Run RDFS/OWL-RL inference over a namespace, optionally materializing derived triples",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace":   map[string]interface{}{"type": "string"},
						"strategy":    map[string]interface{}{"type": "string", "enum": []string{"none", "rdfs", "owlrl"}, "default": "rdfs"},
						"materialize": map[string]interface{}{"type": "boolean", "default": false},
					},
				},
			},
		},
		{
			Definition: ToolDefinition{
				Name:        "delete_namespace",
				Description: "Delete a namespace and all of its stored data",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"namespace": map[string]interface{}{"type": "string"},
					},
					"required": []string{"namespace"},
				},
			},
		},
	}
}
