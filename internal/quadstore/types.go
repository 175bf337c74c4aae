// Package quadstore is a durable, namespace-scoped RDF quad store: triples
// plus an optional named graph, backed by go.etcd.io/bbolt with in-memory
// pattern indexes, and a minimal SPARQL subset evaluator.
package quadstore

import "strings"

// Term is either an IRI or a literal. The leading-quote heuristic used
// throughout ingest (a value beginning with `"` is a literal) is encoded
// here via the IsLiteral flag rather than re-derived at every call site.
type Term struct {
	Value     string
	IsLiteral bool
}

// IRI constructs an IRI term.
func IRI(value string) Term { return Term{Value: value} }

// Literal constructs a literal term.
func Literal(value string) Term { return Term{Value: value, IsLiteral: true} }

// String renders the term the way it would appear in a quad's string form:
// IRIs unwrapped, literals double-quoted.
func (t Term) String() string {
	if t.IsLiteral {
		return `"` + t.Value + `"`
	}
	return t.Value
}

// ParseTerm builds a Term from a raw triple-position string using the
// leading-quote heuristic: a value starting with `"` is a literal (the
// quotes are stripped), anything else is treated as an IRI.
func ParseTerm(raw string) Term {
	if strings.HasPrefix(raw, `"`) {
		return Literal(strings.Trim(raw, `"`))
	}
	return IRI(raw)
}

// Quad is a triple plus its named graph. Graph == "" means the default
// graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     string
}

// Provenance describes where an ingested batch of triples came from; each
// distinct Provenance creates its own `urn:batch:<uuid>` named graph.
type Provenance struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Method    string `json:"method"`
}

// IngestTriple is a single triple submitted for ingest, prior to URI
// resolution and provenance-graph assignment.
type IngestTriple struct {
	Subject    string
	Predicate  string
	Object     string
	Provenance *Provenance
}
