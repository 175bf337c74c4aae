package quadstore

import (
	"fmt"
	"strings"

	"github.com/synapseos/hybridstore/internal/jsonx"
	"github.com/synapseos/hybridstore/internal/synerr"
)

// QuerySPARQL evaluates a small SPARQL subset: SELECT/ASK/CONSTRUCT/DESCRIBE
// over a conjunction of triple patterns inside a single WHERE block, with an
// optional trailing FILTER(isIRI(?v)) or FILTER(isLiteral(?v)). This is
// intentionally not a general SPARQL engine: the corpus has no RDF query
// library at all, and the spec names only this subset as required.
//
// Supported forms:
//
//	SELECT ?s ?o WHERE { ?s <http://pred> ?o . FILTER(isIRI(?o)) }
//	ASK WHERE { <http://a> <http://pred> ?o }
//	CONSTRUCT { ?s <http://pred> ?o } WHERE { ?s <http://pred> ?o }
//	DESCRIBE <http://a>
//
// Results are returned as a JSON string: an array of variable-binding
// objects for SELECT, `true`/`false` for ASK, an array of quad objects for
// CONSTRUCT/DESCRIBE.
func (s *Store) QuerySPARQL(query string) (string, error) {
	q := strings.TrimSpace(query)
	upper := strings.ToUpper(q)

	switch {
	case strings.HasPrefix(upper, "SELECT"):
		return s.evalSelect(q)
	case strings.HasPrefix(upper, "ASK"):
		return s.evalAsk(q)
	case strings.HasPrefix(upper, "CONSTRUCT"):
		return s.evalConstruct(q)
	case strings.HasPrefix(upper, "DESCRIBE"):
		return s.evalDescribe(q)
	default:
		return "", fmt.Errorf("%w: unsupported SPARQL query form", synerr.ErrInvalidInput)
	}
}

type queryPattern struct {
	subject   patternTerm
	predicate patternTerm
	object    patternTerm
}

type patternTerm struct {
	variable string // non-empty if this position is a ?var
	term     Term
}

type filterClause struct {
	fn  string // "isIRI" or "isLiteral"
	arg string // variable name
}

func parseTerm(tok string) patternTerm {
	if strings.HasPrefix(tok, "?") {
		return patternTerm{variable: tok[1:]}
	}
	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
		return patternTerm{term: IRI(tok[1 : len(tok)-1])}
	}
	return patternTerm{term: ParseTerm(tok)}
}

// extractBlock pulls out the contents between the first '{' and its
// matching '}'.
func extractBlock(q string) (string, error) {
	start := strings.Index(q, "{")
	end := strings.LastIndex(q, "}")
	if start < 0 || end < 0 || end < start {
		return "", fmt.Errorf("%w: missing {} block", synerr.ErrInvalidInput)
	}
	return strings.TrimSpace(q[start+1 : end]), nil
}

// parseWherePatterns splits a WHERE block body into triple patterns and a
// single optional trailing FILTER clause.
func parseWherePatterns(body string) ([]queryPattern, *filterClause, error) {
	var filter *filterClause

	if idx := strings.Index(strings.ToUpper(body), "FILTER"); idx >= 0 {
		filterPart := body[idx:]
		body = strings.TrimSpace(body[:idx])

		open := strings.Index(filterPart, "(")
		closeParen := strings.LastIndex(filterPart, ")")
		if open >= 0 && closeParen > open {
			inner := strings.TrimSpace(filterPart[open+1 : closeParen])
			fnEnd := strings.Index(inner, "(")
			if fnEnd > 0 {
				fnName := strings.TrimSpace(inner[:fnEnd])
				argInner := strings.TrimSuffix(strings.TrimPrefix(inner[fnEnd:], "("), ")")
				argInner = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(argInner), "?"))
				filter = &filterClause{fn: fnName, arg: argInner}
			}
		}
	}

	body = strings.TrimSuffix(strings.TrimSpace(body), ".")
	var patterns []queryPattern
	for _, clause := range strings.Split(body, ".") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		toks := strings.Fields(clause)
		if len(toks) != 3 {
			return nil, nil, fmt.Errorf("%w: malformed triple pattern %q", synerr.ErrInvalidInput, clause)
		}
		patterns = append(patterns, queryPattern{
			subject:   parseTerm(toks[0]),
			predicate: parseTerm(toks[1]),
			object:    parseTerm(toks[2]),
		})
	}
	if len(patterns) == 0 {
		return nil, nil, fmt.Errorf("%w: empty WHERE clause", synerr.ErrInvalidInput)
	}
	return patterns, filter, nil
}

type binding map[string]Term

// solve evaluates a conjunction of patterns left to right, nested-loop
// joining on shared variables, and applies filter as a post-condition.
func (s *Store) solve(patterns []queryPattern, filter *filterClause) []binding {
	bindings := []binding{{}}

	for _, p := range patterns {
		var next []binding
		for _, b := range bindings {
			pat := Pattern{}
			if p.subject.variable == "" {
				t := p.subject.term
				pat.Subject = &t
			} else if bound, ok := b[p.subject.variable]; ok {
				pat.Subject = &bound
			}
			if p.predicate.variable == "" {
				t := p.predicate.term
				pat.Predicate = &t
			} else if bound, ok := b[p.predicate.variable]; ok {
				pat.Predicate = &bound
			}
			if p.object.variable == "" {
				t := p.object.term
				pat.Object = &t
			} else if bound, ok := b[p.object.variable]; ok {
				pat.Object = &bound
			}

			for _, q := range s.QuadsForPattern(pat) {
				nb := cloneBinding(b)
				if p.subject.variable != "" {
					nb[p.subject.variable] = q.Subject
				}
				if p.predicate.variable != "" {
					nb[p.predicate.variable] = q.Predicate
				}
				if p.object.variable != "" {
					nb[p.object.variable] = q.Object
				}
				next = append(next, nb)
			}
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}

	if filter != nil {
		var filtered []binding
		for _, b := range bindings {
			term, ok := b[filter.arg]
			if !ok {
				continue
			}
			switch filter.fn {
			case "isIRI":
				if !term.IsLiteral {
					filtered = append(filtered, b)
				}
			case "isLiteral":
				if term.IsLiteral {
					filtered = append(filtered, b)
				}
			default:
				filtered = append(filtered, b)
			}
		}
		bindings = filtered
	}

	return bindings
}

func cloneBinding(b binding) binding {
	nb := make(binding, len(b)+1)
	for k, v := range b {
		nb[k] = v
	}
	return nb
}

func (s *Store) evalSelect(q string) (string, error) {
	upper := strings.ToUpper(q)
	whereIdx := strings.Index(upper, "WHERE")
	if whereIdx < 0 {
		return "", fmt.Errorf("%w: SELECT requires WHERE", synerr.ErrInvalidInput)
	}
	varsPart := strings.TrimSpace(q[len("SELECT"):whereIdx])
	var vars []string
	for _, v := range strings.Fields(varsPart) {
		vars = append(vars, strings.TrimPrefix(v, "?"))
	}

	body, err := extractBlock(q[whereIdx:])
	if err != nil {
		return "", err
	}
	patterns, filter, err := parseWherePatterns(body)
	if err != nil {
		return "", err
	}

	bindings := s.solve(patterns, filter)

	rows := make([]map[string]string, 0, len(bindings))
	for _, b := range bindings {
		row := make(map[string]string, len(vars))
		for _, v := range vars {
			if t, ok := b[v]; ok {
				row[v] = t.String()
			}
		}
		rows = append(rows, row)
	}

	out, err := jsonx.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("%w: %v", synerr.ErrInvalidInput, err)
	}
	return string(out), nil
}

func (s *Store) evalAsk(q string) (string, error) {
	whereIdx := strings.Index(strings.ToUpper(q), "WHERE")
	if whereIdx < 0 {
		return "", fmt.Errorf("%w: ASK requires WHERE", synerr.ErrInvalidInput)
	}
	body, err := extractBlock(q[whereIdx:])
	if err != nil {
		return "", err
	}
	patterns, filter, err := parseWherePatterns(body)
	if err != nil {
		return "", err
	}
	bindings := s.solve(patterns, filter)
	if len(bindings) > 0 {
		return "true", nil
	}
	return "false", nil
}

func (s *Store) evalConstruct(q string) (string, error) {
	upper := strings.ToUpper(q)
	whereIdx := strings.Index(upper, "WHERE")
	if whereIdx < 0 {
		return "", fmt.Errorf("%w: CONSTRUCT requires WHERE", synerr.ErrInvalidInput)
	}
	templateBody, err := extractBlock(q[:whereIdx])
	if err != nil {
		return "", err
	}
	templatePatterns, _, err := parseWherePatterns(templateBody)
	if err != nil {
		return "", err
	}

	whereBody, err := extractBlock(q[whereIdx:])
	if err != nil {
		return "", err
	}
	patterns, filter, err := parseWherePatterns(whereBody)
	if err != nil {
		return "", err
	}

	bindings := s.solve(patterns, filter)

	var quads []Quad
	for _, b := range bindings {
		for _, tp := range templatePatterns {
			quads = append(quads, Quad{
				Subject:   resolveTemplateTerm(tp.subject, b),
				Predicate: resolveTemplateTerm(tp.predicate, b),
				Object:    resolveTemplateTerm(tp.object, b),
			})
		}
	}

	out, err := jsonx.Marshal(quads)
	if err != nil {
		return "", fmt.Errorf("%w: %v", synerr.ErrInvalidInput, err)
	}
	return string(out), nil
}

func resolveTemplateTerm(pt patternTerm, b binding) Term {
	if pt.variable == "" {
		return pt.term
	}
	if t, ok := b[pt.variable]; ok {
		return t
	}
	return Term{}
}

func (s *Store) evalDescribe(q string) (string, error) {
	rest := strings.TrimSpace(q[len("DESCRIBE"):])
	rest = strings.TrimPrefix(rest, "<")
	rest = strings.TrimSuffix(rest, ">")
	uri := strings.TrimSpace(rest)

	subjTerm := IRI(uri)
	quads := s.QuadsForPattern(Pattern{Subject: &subjTerm})
	quads = append(quads, s.QuadsForPattern(Pattern{Object: &subjTerm})...)

	out, err := jsonx.Marshal(quads)
	if err != nil {
		return "", fmt.Errorf("%w: %v", synerr.ErrInvalidInput, err)
	}
	return string(out), nil
}
