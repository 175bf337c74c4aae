package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapseos/hybridstore/internal/quadstore"
)

func TestRDFSSubclassTransitivity(t *testing.T) {
	store, err := quadstore.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	a := quadstore.IRI("http://example.org/A")
	b := quadstore.IRI("http://example.org/B")
	c := quadstore.IRI("http://example.org/C")
	subClassOf := quadstore.IRI(rdfsSubClassOf)

	_, err = store.Insert(quadstore.Quad{Subject: a, Predicate: subClassOf, Object: b})
	require.NoError(t, err)
	_, err = store.Insert(quadstore.Quad{Subject: b, Predicate: subClassOf, Object: c})
	require.NoError(t, err)

	r := New(RDFS)
	inferred := r.Apply(store)

	found := false
	for _, inf := range inferred {
		if inf.Subject == a.Value && inf.Object == c.Value {
			found = true
			break
		}
	}
	assert.True(t, found, "expected A subClassOf C to be inferred")
}

func TestMaterializeSkipsDuplicates(t *testing.T) {
	store, err := quadstore.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	a := quadstore.IRI("http://example.org/A")
	b := quadstore.IRI("http://example.org/B")
	c := quadstore.IRI("http://example.org/C")
	subClassOf := quadstore.IRI(rdfsSubClassOf)

	_, _ = store.Insert(quadstore.Quad{Subject: a, Predicate: subClassOf, Object: b})
	_, _ = store.Insert(quadstore.Quad{Subject: b, Predicate: subClassOf, Object: c})

	r := New(RDFS)
	n1, err := r.Materialize(store)
	require.NoError(t, err)
	assert.Equal(t, 1, n1, "only A subClassOf C should be newly inferred")

	n2, err := r.Materialize(store)
	require.NoError(t, err)
	assert.Equal(t, 0, n2, "re-materializing finds nothing new")
}

func TestSymmetricProperty(t *testing.T) {
	store, err := quadstore.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	knows := quadstore.IRI("http://example.org/knows")
	alice := quadstore.IRI("http://example.org/alice")
	bob := quadstore.IRI("http://example.org/bob")

	_, _ = store.Insert(quadstore.Quad{Subject: knows, Predicate: quadstore.IRI(rdfType), Object: quadstore.IRI(owlSymmetric)})
	_, _ = store.Insert(quadstore.Quad{Subject: alice, Predicate: knows, Object: bob})

	r := New(OWLRL)
	inferred := r.Apply(store)

	found := false
	for _, inf := range inferred {
		if inf.Subject == bob.Value && inf.Predicate == knows.Value && inf.Object == alice.Value {
			found = true
		}
	}
	assert.True(t, found, "expected bob knows alice to be inferred from symmetry")
}

func TestNoneStrategyInfersNothing(t *testing.T) {
	store, err := quadstore.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	a := quadstore.IRI("http://example.org/A")
	b := quadstore.IRI("http://example.org/B")
	_, _ = store.Insert(quadstore.Quad{Subject: a, Predicate: quadstore.IRI(rdfsSubClassOf), Object: b})

	r := New(None)
	assert.Empty(t, r.Apply(store))
}
