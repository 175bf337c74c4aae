package hybridstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/synapseos/hybridstore/internal/quadstore"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

const (
	provWasDerivedFrom = "http://www.w3.org/ns/prov#wasDerivedFrom"
	provGeneratedAt    = "http://www.w3.org/ns/prov#generatedAtTime"
	provWasGeneratedBy = "http://www.w3.org/ns/prov#wasGeneratedBy"
	defaultURIPrefix   = "http://synapse.os/"
)

// provenanceKey is a value-comparable copy of quadstore.Provenance, used to
// group triples sharing the same provenance into one urn:batch:<uuid> graph.
type provenanceKey struct {
	Source, Timestamp, Method string
}

// Ingest inserts triples into the store, grouping by provenance into fresh
// urn:batch:<uuid> named graphs (one per distinct non-empty Provenance
// value in the batch) and rolling a triple's quad back if the paired
// vector insert fails, per original_source/store.rs::ingest_triples.
// Triples are processed in the caller-supplied order.
func (s *Store) Ingest(triples []quadstore.IngestTriple) (int, error) {
	graphFor := make(map[provenanceKey]string)
	added := 0

	for _, t := range triples {
		graph := ""
		if t.Provenance != nil {
			key := provenanceKey(*t.Provenance)
			g, ok := graphFor[key]
			if !ok {
				g = "urn:batch:" + uuid.NewString()
				if err := s.insertProvenance(g, *t.Provenance); err != nil {
					return added, err
				}
				graphFor[key] = g
			}
			graph = g
		}

		ok, err := s.ingestOne(t, graph)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}

	return added, nil
}

// insertProvenance writes the three PROV triples describing a batch node
// into the default graph.
func (s *Store) insertProvenance(batchIRI string, p quadstore.Provenance) error {
	subject := quadstore.IRI(batchIRI)
	triples := []quadstore.Quad{
		{Subject: subject, Predicate: quadstore.IRI(provWasDerivedFrom), Object: quadstore.Literal(p.Source)},
		{Subject: subject, Predicate: quadstore.IRI(provGeneratedAt), Object: quadstore.Literal(p.Timestamp)},
		{Subject: subject, Predicate: quadstore.IRI(provWasGeneratedBy), Object: quadstore.Literal(p.Method)},
	}
	for _, q := range triples {
		if _, err := s.Quads.Insert(q); err != nil {
			return fmt.Errorf("hybridstore: insert provenance triple: %w", err)
		}
	}
	return nil
}

// ingestOne resolves, inserts and (if a vector index is attached) embeds a
// single triple within graph, rolling the quad back on embed/vector failure.
func (s *Store) ingestOne(t quadstore.IngestTriple, graph string) (bool, error) {
	subjectURI := ensureURI(t.Subject)
	predicateURI := ensureURI(t.Predicate)
	objectTerm := resolveObject(t.Object)

	quad := quadstore.Quad{
		Subject:   quadstore.IRI(subjectURI),
		Predicate: quadstore.IRI(predicateURI),
		Object:    objectTerm,
		Graph:     graph,
	}

	inserted, err := s.Quads.Insert(quad)
	if err != nil {
		return false, fmt.Errorf("hybridstore: insert quad: %w", err)
	}
	if !inserted {
		return false, nil
	}

	if s.Vectors == nil || s.embedder == nil {
		return true, nil
	}

	objectStr := objectTerm.String()

	contentBuf := bytebufferpool.Get()
	defer bytebufferpool.Put(contentBuf)
	contentBuf.SetString(subjectURI)
	contentBuf.WriteByte(' ')
	contentBuf.WriteString(predicateURI)
	contentBuf.WriteByte(' ')
	contentBuf.WriteString(objectStr)
	content := contentBuf.String()

	keyBuf := bytebufferpool.Get()
	defer bytebufferpool.Put(keyBuf)
	keyBuf.SetString(subjectURI)
	keyBuf.WriteByte('|')
	keyBuf.WriteString(predicateURI)
	keyBuf.WriteByte('|')
	keyBuf.WriteString(objectStr)
	key := keyBuf.String()

	vec, err := s.embedder.Embed(content)
	if err != nil {
		if _, rbErr := s.Quads.Remove(quad); rbErr != nil {
			s.logger.Error("rollback after embed failure also failed", zap.Error(rbErr))
		}
		return false, fmt.Errorf("hybridstore: embed triple, rolled back: %w", err)
	}

	metadata := map[string]interface{}{
		"uri":       subjectURI,
		"predicate": predicateURI,
		"object":    objectStr,
		"type":      "triple",
	}
	if _, err := s.Vectors.Add(key, vec, metadata); err != nil {
		if _, rbErr := s.Quads.Remove(quad); rbErr != nil {
			s.logger.Error("rollback after vector insert failure also failed", zap.Error(rbErr))
		}
		return false, fmt.Errorf("hybridstore: vector insert, rolled back: %w", err)
	}

	return true, nil
}

// ensureURI prefixes raw with the namespace's default IRI base unless it is
// already absolute.
func ensureURI(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return defaultURIPrefix + raw
}

// resolveObject resolves a triple's object position: an absolute http(s)
// URI becomes an IRI term, anything else becomes a literal (any wrapping
// quotes are stripped).
func resolveObject(raw string) quadstore.Term {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return quadstore.IRI(raw)
	}
	return quadstore.Literal(strings.Trim(raw, `"`))
}
