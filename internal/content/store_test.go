package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, root, dir, name string, body []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, dir, name), body, 0644))
}

func TestFSStore_LoadAndList(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "packs", "secondwin.json", []byte(`{"pack":"secondwin"}`))
	writeDoc(t, root, "packs", "alliances.json", []byte(`{"pack":"alliances"}`))
	writeDoc(t, root, "packs", "notes.txt", []byte(`ignored`))
	writeDoc(t, root, "rulebook", "base.json", []byte(`{"version":"1.0.0"}`))

	store := NewFSStore(root)

	data, err := store.Load(KindPackModifiers, "secondwin")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pack":"secondwin"}`, string(data))

	names, err := store.List(KindPackModifiers)
	require.NoError(t, err)
	assert.Equal(t, []string{"alliances", "secondwin"}, names)

	data, err = store.Load(KindBaseRulebook, BaseRulebookName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.0.0")
}

func TestFSStore_NotFound(t *testing.T) {
	store := NewFSStore(t.TempDir())
	_, err := store.Load(KindPackModifiers, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_ListMissingKindDir(t *testing.T) {
	store := NewFSStore(t.TempDir())
	names, err := store.List(KindBoardTopology)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbedded_ShippedContent(t *testing.T) {
	store := Embedded()

	data, err := store.Load(KindBaseRulebook, BaseRulebookName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Conquest Base Rules")

	packs, err := store.List(KindPackModifiers)
	require.NoError(t, err)
	assert.Contains(t, packs, "secondwin")
	assert.Contains(t, packs, "fortifications")

	boards, err := store.List(KindBoardTopology)
	require.NoError(t, err)
	assert.Equal(t, []string{"advanced", "original"}, boards)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(KindBoardTopology, "original", []byte(`{"version":"original"}`)))
	require.NoError(t, store.Put(KindBoardTopology, "advanced", []byte(`{"version":"advanced"}`)))

	data, err := store.Load(KindBoardTopology, "original")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"original"}`, string(data))

	names, err := store.List(KindBoardTopology)
	require.NoError(t, err)
	assert.Equal(t, []string{"advanced", "original"}, names)

	// Replacing an existing document keeps a single row.
	require.NoError(t, store.Put(KindBoardTopology, "original", []byte(`{"version":"original","rev":2}`)))
	data, err = store.Load(KindBoardTopology, "original")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rev"`)
	names, err = store.List(KindBoardTopology)
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(KindPackModifiers, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_EmptyNameRejected(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.Put(KindPackModifiers, "", []byte(`{}`)))
}
