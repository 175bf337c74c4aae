package quadstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertContainsRemove(t *testing.T) {
	s := openTestStore(t)

	q := Quad{Subject: IRI("http://synapse.os/a"), Predicate: IRI("http://synapse.os/p"), Object: IRI("http://synapse.os/b")}

	added, err := s.Insert(q)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, s.Contains(q))

	added, err = s.Insert(q)
	require.NoError(t, err)
	assert.False(t, added, "re-insert of the same quad is a no-op")

	removed, err := s.Remove(q)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.Contains(q))
}

func TestQuadsForPattern(t *testing.T) {
	s := openTestStore(t)

	a := IRI("http://synapse.os/a")
	b := IRI("http://synapse.os/b")
	p1 := IRI("http://synapse.os/knows")
	p2 := IRI("http://synapse.os/likes")

	_, _ = s.Insert(Quad{Subject: a, Predicate: p1, Object: b})
	_, _ = s.Insert(Quad{Subject: a, Predicate: p2, Object: b})
	_, _ = s.Insert(Quad{Subject: b, Predicate: p1, Object: a})

	results := s.QuadsForPattern(Pattern{Subject: &a})
	assert.Len(t, results, 2)

	results = s.QuadsForPattern(Pattern{Subject: &a, Predicate: &p1})
	assert.Len(t, results, 1)
}

func TestDegree(t *testing.T) {
	s := openTestStore(t)

	a := IRI("http://synapse.os/a")
	b := IRI("http://synapse.os/b")
	c := IRI("http://synapse.os/c")
	p := IRI("http://synapse.os/rel")

	_, _ = s.Insert(Quad{Subject: a, Predicate: p, Object: b})
	_, _ = s.Insert(Quad{Subject: c, Predicate: p, Object: a})

	assert.Equal(t, 2, s.Degree("http://synapse.os/a"))
}

func TestReopenRebuildsIndexes(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	q := Quad{Subject: IRI("http://synapse.os/a"), Predicate: IRI("http://synapse.os/p"), Object: Literal("hello")}
	_, err = s1.Insert(q)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	assert.True(t, s2.Contains(q))
	assert.Equal(t, 1, s2.Len())
}

func TestQuerySPARQLSelect(t *testing.T) {
	s := openTestStore(t)

	a := IRI("http://synapse.os/alice")
	p := IRI("http://synapse.os/knows")
	_, _ = s.Insert(Quad{Subject: a, Predicate: p, Object: IRI("http://synapse.os/bob")})
	_, _ = s.Insert(Quad{Subject: a, Predicate: p, Object: Literal("not-a-uri")})

	out, err := s.QuerySPARQL(`SELECT ?o WHERE { <http://synapse.os/alice> <http://synapse.os/knows> ?o . FILTER(isIRI(?o)) }`)
	require.NoError(t, err)
	assert.Contains(t, out, "http://synapse.os/bob")
	assert.NotContains(t, out, "not-a-uri")
}

func TestQuerySPARQLAsk(t *testing.T) {
	s := openTestStore(t)
	a := IRI("http://synapse.os/alice")
	p := IRI("http://synapse.os/knows")
	b := IRI("http://synapse.os/bob")
	_, _ = s.Insert(Quad{Subject: a, Predicate: p, Object: b})

	out, err := s.QuerySPARQL(`ASK WHERE { <http://synapse.os/alice> <http://synapse.os/knows> <http://synapse.os/bob> }`)
	require.NoError(t, err)
	assert.Equal(t, "true", out)

	out, err = s.QuerySPARQL(`ASK WHERE { <http://synapse.os/alice> <http://synapse.os/knows> <http://synapse.os/carol> }`)
	require.NoError(t, err)
	assert.Equal(t, "false", out)
}
