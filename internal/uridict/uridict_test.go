package uridict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapseos/hybridstore/internal/jsonx"
)

func TestGetOrCreateIDIsStable(t *testing.T) {
	d, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer d.Close()

	id1, err := d.GetOrCreateID("http://synapse.os/alice")
	require.NoError(t, err)

	id2, err := d.GetOrCreateID("http://synapse.os/alice")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	id3, err := d.GetOrCreateID("http://synapse.os/bob")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestGetURIRoundTrip(t *testing.T) {
	d, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer d.Close()

	id, err := d.GetOrCreateID("http://synapse.os/alice")
	require.NoError(t, err)

	uri, ok := d.GetURI(id)
	require.True(t, ok)
	assert.Equal(t, "http://synapse.os/alice", uri)

	_, ok = d.GetURI(id + 1000)
	assert.False(t, ok)
}

func TestGetOrCreateIDWritesJSONSnapshot(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir, nil)
	require.NoError(t, err)
	defer d.Close()

	idAlice, err := d.GetOrCreateID("http://synapse.os/alice")
	require.NoError(t, err)
	idBob, err := d.GetOrCreateID("http://synapse.os/bob")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "uri_mappings.json"))
	require.NoError(t, err)

	var snap struct {
		URIToID map[string]uint32 `json:"uri_to_id"`
		NextID  uint32            `json:"next_id"`
	}
	require.NoError(t, jsonx.Unmarshal(data, &snap))

	assert.Equal(t, idAlice, snap.URIToID["http://synapse.os/alice"])
	assert.Equal(t, idBob, snap.URIToID["http://synapse.os/bob"])
	assert.Greater(t, snap.NextID, idBob)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	d1, err := Open(dir, nil)
	require.NoError(t, err)
	id, err := d1.GetOrCreateID("http://synapse.os/alice")
	require.NoError(t, err)
	require.NoError(t, d1.Close())

	d2, err := Open(dir, nil)
	require.NoError(t, err)
	defer d2.Close()

	gotID, ok := d2.GetID("http://synapse.os/alice")
	require.True(t, ok)
	assert.Equal(t, id, gotID)
}
