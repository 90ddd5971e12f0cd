package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_GeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	id, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID.String())

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestLoadOrCreate_ReloadsSameIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)

	second, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestDeriveHarbor_IsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	id, err := LoadOrCreate(path)
	require.NoError(t, err)

	h1 := id.DeriveHarbor()
	h2 := id.DeriveHarbor()
	assert.Equal(t, h1, h2)
}

func TestLoadOrCreate_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}
