// Package main demonstrates using the synapse hybrid store Go SDK.
package main

import (
	"context"
	"fmt"
	"log"

	synapse "github.com/synapseos/hybridstore/sdk/go"
)

func main() {
	client := synapse.NewClient(synapse.ClientConfig{
		BaseURL: "http://localhost:8080",
	})
	client.SetToken("dev-token")

	ctx := context.Background()

	ingest, err := client.Ingest(ctx, &synapse.IngestRequest{
		Namespace: "demo",
		Triples: []synapse.Triple{
			{
				Subject:   "http://synapse.os/claude",
				Predicate: "http://synapse.os/worksOn",
				Object:    "http://synapse.os/mcp",
				Provenance: &synapse.Provenance{
					Source: "demo-script",
					Method: "manual",
				},
			},
		},
	})
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	fmt.Printf("ingested %d new triples\n", ingest.Added)

	hits, err := client.Search(ctx, &synapse.SearchRequest{
		Namespace: "demo",
		Query:     "claude mcp",
		Limit:     5,
	})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	fmt.Printf("found %d vector hits\n", len(hits))
	for _, hit := range hits {
		fmt.Printf("  - %s (score %.3f)\n", hit.URI, hit.Score)
	}

	neighbors, err := client.Neighbors(ctx, &synapse.NeighborsRequest{
		Namespace: "demo",
		URI:       "http://synapse.os/claude",
		Direction: synapse.DirectionOutgoing,
		Depth:     2,
	})
	if err != nil {
		log.Fatalf("neighbors failed: %v", err)
	}
	fmt.Printf("found %d neighbors\n", len(neighbors))

	reasoned, err := client.Reason(ctx, &synapse.ReasonRequest{
		Namespace: "demo",
		Strategy:  "rdfs",
	})
	if err != nil {
		log.Fatalf("reason failed: %v", err)
	}
	fmt.Printf("inference produced %d derived triples\n", len(reasoned.Inferred))
}
