// Package reasoner derives implicit triples from a quadstore.Store under
// RDFS or OWL-RL semantics, each rule run once per Materialize call.
package reasoner

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/synapseos/hybridstore/internal/quadstore"
)

const (
	rdfType        = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	rdfsSubClassOf = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	rdfsSubPropOf  = "http://www.w3.org/2000/01/rdf-schema#subPropertyOf"
	rdfsDomain     = "http://www.w3.org/2000/01/rdf-schema#domain"
	rdfsRange      = "http://www.w3.org/2000/01/rdf-schema#range"
	owlInverseOf   = "http://www.w3.org/2002/07/owl#inverseOf"
	owlSymmetric   = "http://www.w3.org/2002/07/owl#SymmetricProperty"
	owlTransitive  = "http://www.w3.org/2002/07/owl#TransitiveProperty"
)

// Strategy selects which rule family Apply/Materialize run.
type Strategy int

const (
	// None runs no inference.
	None Strategy = iota
	// RDFS runs subclass/subproperty transitivity and domain/range rules.
	RDFS
	// OWLRL runs the RDFS rules plus symmetric/transitive/inverse-of.
	OWLRL
)

// RuleSet selects individual inference rules for fine-grained control,
// independent of Strategy (a caller can run OWLRL but disable domain_range,
// for instance).
type RuleSet struct {
	SubclassTransitivity   bool
	SubpropertyTransitivity bool
	DomainRange            bool
	InverseOf              bool
	SymmetricProperty      bool
	TransitiveProperty     bool
}

// RDFSRules returns the rule set RDFS strategy runs.
func RDFSRules() RuleSet {
	return RuleSet{SubclassTransitivity: true, SubpropertyTransitivity: true, DomainRange: true}
}

// OWLRLRules returns the rule set OWLRL strategy runs.
func OWLRLRules() RuleSet {
	return RuleSet{
		SubclassTransitivity:    true,
		SubpropertyTransitivity: true,
		DomainRange:             true,
		InverseOf:               true,
		SymmetricProperty:       true,
		TransitiveProperty:      true,
	}
}

// RuleSetFromString parses a comma-separated rule-name list, as accepted
// by the reasoning strategy configuration.
func RuleSetFromString(rules string) RuleSet {
	var rs RuleSet
	for _, rule := range strings.Split(rules, ",") {
		switch strings.ToLower(strings.TrimSpace(rule)) {
		case "subclass", "subclass_transitivity":
			rs.SubclassTransitivity = true
		case "subproperty", "subproperty_transitivity":
			rs.SubpropertyTransitivity = true
		case "domain_range", "dr":
			rs.DomainRange = true
		case "inverse", "inverse_of":
			rs.InverseOf = true
		case "symmetric", "symmetric_property":
			rs.SymmetricProperty = true
		case "transitive", "transitive_property":
			rs.TransitiveProperty = true
		case "rdfs":
			rs = RDFSRules()
		case "owlrl", "owl-rl":
			rs = OWLRLRules()
		}
	}
	return rs
}

// Inferred is a single derived triple, subject/predicate/object IRIs.
type Inferred struct {
	Subject   string
	Predicate string
	Object    string
}

// Reasoner applies a fixed rule set to a quadstore.Store.
type Reasoner struct {
	strategy Strategy
	rules    RuleSet
}

// New creates a reasoner running strategy's default rule set.
func New(strategy Strategy) *Reasoner {
	var rules RuleSet
	switch strategy {
	case RDFS:
		rules = RDFSRules()
	case OWLRL:
		rules = OWLRLRules()
	}
	return &Reasoner{strategy: strategy, rules: rules}
}

// WithRules creates a reasoner running an explicit rule set under strategy.
func WithRules(strategy Strategy, rules RuleSet) *Reasoner {
	return &Reasoner{strategy: strategy, rules: rules}
}

// Rules returns the reasoner's active rule configuration.
func (r *Reasoner) Rules() RuleSet { return r.rules }

// Apply returns the triples implied by store under the reasoner's rules,
// without modifying store. Each rule runs once: the transitivity rules
// compute the full closure of their predicate, the other rules make a
// single pass, and rules are not re-run against each other's derivations
// within a single Apply call (see materialize for the repeatable variant).
func (r *Reasoner) Apply(store *quadstore.Store) []Inferred {
	if r.strategy == None {
		return nil
	}

	var out []Inferred
	if r.rules.SubclassTransitivity {
		out = append(out, transitiveClosure(store, rdfsSubClassOf)...)
	}
	if r.rules.SubpropertyTransitivity {
		out = append(out, transitiveClosure(store, rdfsSubPropOf)...)
	}
	if r.rules.DomainRange {
		out = append(out, domainRange(store)...)
	}
	if r.rules.InverseOf {
		out = append(out, inverseOf(store)...)
	}
	if r.rules.SymmetricProperty {
		out = append(out, symmetricProperty(store)...)
	}
	if r.rules.TransitiveProperty {
		out = append(out, transitiveProperty(store)...)
	}
	return out
}

// Materialize applies the reasoner's rules and inserts any derived triple
// not already present in store, returning the count of newly inserted
// triples. Derived triples already present are skipped and the number
// skipped is not reported; failed inserts are aggregated into a single
// returned error via go-multierror.
func (r *Reasoner) Materialize(store *quadstore.Store) (int, error) {
	inferred := r.Apply(store)

	var errs *multierror.Error
	count := 0
	skipped := 0

	for _, inf := range inferred {
		q := quadstore.Quad{
			Subject:   quadstore.IRI(inf.Subject),
			Predicate: quadstore.IRI(inf.Predicate),
			Object:    quadstore.IRI(inf.Object),
		}
		if store.Contains(q) {
			skipped++
			continue
		}
		added, err := store.Insert(q)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("materialize %s %s %s: %w",
				inf.Subject, inf.Predicate, inf.Object, err))
			continue
		}
		if added {
			count++
		}
	}

	return count, errs.ErrorOrNil()
}

// transitiveClosure derives A<pred>C for every B<pred>C and A<pred>B pair,
// repeating the pairwise scan over the derived edges until a pass adds no
// new pair, grounded on original_source/reasoner.rs's RDFS subClassOf pass.
// Each derived pair is returned once.
func transitiveClosure(store *quadstore.Store, pred string) []Inferred {
	predTerm := quadstore.IRI(pred)
	edges := store.QuadsForPattern(quadstore.Pattern{Predicate: &predTerm})

	var out []Inferred
	derived := make(map[[2]string]bool)
	for grew := true; grew; {
		grew = false
		for _, bc := range edges {
			for _, ab := range edges {
				if ab.Object.Value == bc.Subject.Value && !ab.Object.IsLiteral && !bc.Subject.IsLiteral {
					k := [2]string{ab.Subject.Value, bc.Object.Value}
					if derived[k] {
						continue
					}
					derived[k] = true
					grew = true
					out = append(out, Inferred{
						Subject:   ab.Subject.Value,
						Predicate: pred,
						Object:    bc.Object.Value,
					})
					edges = append(edges, quadstore.Quad{Subject: ab.Subject, Predicate: predTerm, Object: bc.Object})
				}
			}
		}
	}
	return out
}

// domainRange derives (S rdf:type C) from (P rdfs:domain C) and (S P O),
// and (O rdf:type C) from (P rdfs:range C) and (S P O).
func domainRange(store *quadstore.Store) []Inferred {
	domainPred := quadstore.IRI(rdfsDomain)
	rangePred := quadstore.IRI(rdfsRange)

	domains := store.QuadsForPattern(quadstore.Pattern{Predicate: &domainPred})
	ranges := store.QuadsForPattern(quadstore.Pattern{Predicate: &rangePred})

	var out []Inferred
	for _, d := range domains {
		propTerm := d.Subject
		triples := store.QuadsForPattern(quadstore.Pattern{Predicate: &propTerm})
		for _, t := range triples {
			out = append(out, Inferred{Subject: t.Subject.Value, Predicate: rdfType, Object: d.Object.Value})
		}
	}
	for _, rg := range ranges {
		propTerm := rg.Subject
		triples := store.QuadsForPattern(quadstore.Pattern{Predicate: &propTerm})
		for _, t := range triples {
			if t.Object.IsLiteral {
				continue
			}
			out = append(out, Inferred{Subject: t.Object.Value, Predicate: rdfType, Object: rg.Object.Value})
		}
	}
	return out
}

// inverseOf derives (O Q S) from (P owl:inverseOf Q) and (S P O).
func inverseOf(store *quadstore.Store) []Inferred {
	invPred := quadstore.IRI(owlInverseOf)
	pairs := store.QuadsForPattern(quadstore.Pattern{Predicate: &invPred})

	var out []Inferred
	for _, pair := range pairs {
		propTerm := pair.Subject
		triples := store.QuadsForPattern(quadstore.Pattern{Predicate: &propTerm})
		for _, t := range triples {
			if t.Object.IsLiteral {
				continue
			}
			out = append(out, Inferred{Subject: t.Object.Value, Predicate: pair.Object.Value, Object: t.Subject.Value})
		}
	}
	return out
}

// symmetricProperty derives (O P S) from (P rdf:type owl:SymmetricProperty)
// and (S P O).
func symmetricProperty(store *quadstore.Store) []Inferred {
	typePred := quadstore.IRI(rdfType)
	symTerm := quadstore.IRI(owlSymmetric)
	symProps := store.QuadsForPattern(quadstore.Pattern{Predicate: &typePred, Object: &symTerm})

	var out []Inferred
	for _, sp := range symProps {
		propTerm := sp.Subject
		triples := store.QuadsForPattern(quadstore.Pattern{Predicate: &propTerm})
		for _, t := range triples {
			if t.Object.IsLiteral {
				continue
			}
			out = append(out, Inferred{Subject: t.Object.Value, Predicate: propTerm.Value, Object: t.Subject.Value})
		}
	}
	return out
}

// transitiveProperty derives (S P Z) from (P rdf:type owl:TransitiveProperty),
// (S P O) and (O P Z).
func transitiveProperty(store *quadstore.Store) []Inferred {
	typePred := quadstore.IRI(rdfType)
	transTerm := quadstore.IRI(owlTransitive)
	transProps := store.QuadsForPattern(quadstore.Pattern{Predicate: &typePred, Object: &transTerm})

	var out []Inferred
	for _, tp := range transProps {
		out = append(out, transitiveClosure(store, tp.Subject.Value)...)
	}
	return out
}
