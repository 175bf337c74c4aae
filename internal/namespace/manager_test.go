package namespace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapseos/hybridstore/internal/embedding"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := embedding.Config{Provider: "mock", Dim: 16}
	m, err := New(dir, 16, cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, dir
}

func TestGetStoreOpensLazilyAndIsShared(t *testing.T) {
	m, dir := newTestManager(t)

	s1, err := m.GetStore("team-a")
	require.NoError(t, err)

	s2, err := m.GetStore("team-a")
	require.NoError(t, err)

	assert.Same(t, s1, s2, "repeated GetStore must return the same handle")
	_, err = os.Stat(filepath.Join(dir, "team-a"))
	assert.NoError(t, err, "namespace directory should have been created")
}

func TestGetStoreEmptyNameIsDefault(t *testing.T) {
	m, _ := newTestManager(t)

	s1, err := m.GetStore("")
	require.NoError(t, err)
	s2, err := m.GetStore("default")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
}

func TestDeleteNamespaceRemovesDirectory(t *testing.T) {
	m, dir := newTestManager(t)

	_, err := m.GetStore("gone")
	require.NoError(t, err)

	require.NoError(t, m.DeleteNamespace("gone"))
	_, statErr := os.Stat(filepath.Join(dir, "gone"))
	assert.True(t, os.IsNotExist(statErr))

	// Deleting an already-missing namespace is still success.
	assert.NoError(t, m.DeleteNamespace("gone"))
}
