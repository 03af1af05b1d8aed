package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/budget"
	"github.com/intelcave/thinkmachine/session"
	"github.com/intelcave/thinkmachine/subagent"
)

func makeTranscript(id string, updated time.Time) *session.Transcript {
	return &session.Transcript{
		ID: id,
		Turns: []conversation.Turn{
			conversation.User("hello"),
			conversation.Assistant(subagent.RootName, "hi there"),
		},
		Agent:     "MathAgent",
		Agents:    []subagent.Definition{{Name: "MathAgent", Instructions: "do math"}},
		Usage:     budget.Usage{InputTokens: 10, OutputTokens: 4},
		TotalCost: "0.01",
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func stores(t *testing.T) map[string]session.Store {
	fs, err := session.NewFileStore(filepath.Join(t.TempDir(), "transcripts"))
	require.NoError(t, err)
	return map[string]session.Store{
		"memory": session.NewMemoryStore(),
		"file":   fs,
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tr := makeTranscript("sess_1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, store.Save(ctx, tr))

			loaded, err := store.Load(ctx, "sess_1")
			require.NoError(t, err)
			assert.Equal(t, tr.Turns, loaded.Turns)
			assert.Equal(t, "MathAgent", loaded.Agent)
			assert.Equal(t, "do math", loaded.Agents[0].Instructions)
			assert.Equal(t, 10, loaded.Usage.InputTokens)
			assert.True(t, tr.UpdatedAt.Equal(loaded.UpdatedAt))
		})
	}
}

func TestStore_Errors(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.ErrorIs(t, store.Save(ctx, nil), session.ErrNil)
			assert.ErrorIs(t, store.Save(ctx, &session.Transcript{ID: "../escape"}), session.ErrInvalidID)

			_, err := store.Load(ctx, "missing")
			assert.ErrorIs(t, err, session.ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, "missing"), session.ErrNotFound)
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, store.Save(ctx, makeTranscript("old", base)))
			require.NoError(t, store.Save(ctx, makeTranscript("new", base.Add(time.Hour))))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "new", list[0].ID)
			assert.Equal(t, "old", list[1].ID)

			require.NoError(t, store.Delete(ctx, "old"))
			list, err = store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
		})
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	tr := makeTranscript("iso", time.Now())
	require.NoError(t, store.Save(ctx, tr))

	tr.Turns[0].Content = "mutated"
	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "hello", loaded.Turns[0].Content)

	loaded.Agents[0].Name = "changed"
	again, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "MathAgent", again.Agents[0].Name)
}

func TestFileStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, makeTranscript("sess_a", time.Now())))

	data, err := os.ReadFile(filepath.Join(dir, "sess_a.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"id\": \"sess_a\"")

	// stray and corrupt files are skipped
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.Load(ctx, "broken")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, session.ErrNotFound))
}

func TestNew(t *testing.T) {
	tr := session.New()
	assert.True(t, session.ValidID(tr.ID))
	assert.NotEqual(t, tr.ID, session.New().ID)
	assert.False(t, tr.CreatedAt.IsZero())
	assert.Nil(t, (*session.Transcript)(nil).Clone())
}
