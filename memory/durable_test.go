package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDurableFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenDurableStore_Missing(t *testing.T) {
	_, err := OpenDurableStore(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreMissing)
}

func TestOpenDurableStore_Invalid(t *testing.T) {
	for _, content := range []string{"", "not json", "[]", "null", `{"k": 1}`} {
		path := newDurableFile(t, content)
		_, err := OpenDurableStore(path)
		require.Error(t, err, content)
		assert.ErrorIs(t, err, ErrStoreCorrupt, content)
	}
}

func TestOpenDurableStore_DoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	_, _ = OpenDurableStore(path)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDurableStore_StoreRetrieve(t *testing.T) {
	ctx := context.Background()
	s, err := OpenDurableStore(newDurableFile(t, "{}"))
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "user_name", "Alice"))
	got, err := s.Get(ctx, "user_name")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Alice", got.Value)
}

func TestDurableStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, "{}")

	first, err := OpenDurableStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "os", "linux"))

	second, err := OpenDurableStore(path)
	require.NoError(t, err)
	got, err := second.Get(ctx, "os")
	require.NoError(t, err)
	assert.Equal(t, "linux", got.Value)
}

func TestDurableStore_FileFormat(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, "{}")
	s, err := OpenDurableStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "a", "1"))
	require.NoError(t, s.Put(ctx, "b", "two"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"1\",\n  \"b\": \"two\"\n}\n", string(data))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]string{"a": "1", "b": "two"}, decoded)
}

func TestDurableStore_PicksUpExternalEdits(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, `{"a": "1"}`)
	s, err := OpenDurableStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"b": "2"}`), 0o644))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, got.Found)
}

func TestDurableStore_PutReloadsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, "{}")
	s, err := OpenDurableStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"external": "yes"}`), 0o644))
	require.NoError(t, s.Put(ctx, "mine", "too"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"external", "mine"}, keys)
}

func TestDurableStore_RemoveAbsentRewrites(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, `{"keep":"me"}`)
	s, err := OpenDurableStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "ghost"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"keep\": \"me\"\n}\n", string(data))
}

func TestDurableStore_RejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, `{"keep":"me"}`)
	s, err := OpenDurableStore(path)
	require.NoError(t, err)

	for _, kv := range [][2]string{{"k\xff", "v"}, {"k", "v\xfe"}, {"k\xff", "v\xfe"}} {
		err := s.Put(ctx, kv[0], kv[1])
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"keep":"me"}`, string(data))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, keys)

	require.NoError(t, s.Put(ctx, "naïve", "café ☕"))
	got, err := s.Get(ctx, "naïve")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "café ☕", got.Value)
}

func TestDurableStore_Scenario(t *testing.T) {
	ctx := context.Background()
	s, err := OpenDurableStore(newDurableFile(t, "{}"))
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "user_name", "Alice"))
	got, _ := s.Get(ctx, "user_name")
	assert.Equal(t, "Alice", got.Text())

	require.NoError(t, s.Delete(ctx, "user_name"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, "user_name")

	got, _ = s.Get(ctx, "user_name")
	assert.Equal(t, "No value found for key in persistent memory: user_name", got.Text())
}

func TestDurableStore_FileRemovedUnderneath(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, "{}")
	s, err := OpenDurableStore(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStoreMissing)
	assert.ErrorIs(t, s.Put(ctx, "k", "v"), ErrStoreMissing)
}

func TestDurableStore_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	path := newDurableFile(t, "{}")
	s, err := OpenDurableStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", "v"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "memory.json", entries[0].Name())
}

func TestInitDurableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "memory.json")
	require.NoError(t, InitDurableFile(path))

	s, err := OpenDurableStore(path)
	require.NoError(t, err)
	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Put(context.Background(), "k", "v"))
	require.NoError(t, InitDurableFile(path))
	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, got.Found, "existing file must not be overwritten")
}

func TestDurableStore_ScopeOverride(t *testing.T) {
	s, err := OpenDurableStore(newDurableFile(t, "{}"), WithScope("shared"))
	require.NoError(t, err)
	assert.Equal(t, Scope("shared"), s.Scope())
}
