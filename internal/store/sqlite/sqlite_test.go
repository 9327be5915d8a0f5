package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pulsewire-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestInsertAssignsIDAndTimestamp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	stored, err := st.Insert(ctx, &store.Message{
		Room:    "general",
		From:    "alice",
		Event:   "message",
		Payload: `{"text":"hi"}`,
	})
	require.NoError(t, err)
	require.Positive(t, stored.ID)
	require.False(t, stored.CreatedAt.IsZero())
	require.Equal(t, "general", stored.Room)
}

func TestQueryNewestFirstWithPagination(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := st.Insert(ctx, &store.Message{
			Room:    "general",
			From:    "alice",
			Event:   "message",
			Payload: fmt.Sprintf(`{"n":%d}`, i),
		})
		require.NoError(t, err)
	}
	_, err := st.Insert(ctx, &store.Message{Room: "other", From: "bob", Event: "message"})
	require.NoError(t, err)

	page, err := st.Query(ctx, store.Filters{Room: "general", Limit: 4})
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.Greater(t, page[0].ID, page[1].ID, "newest first")

	oldest := page[len(page)-1].ID
	rest, err := st.Query(ctx, store.Filters{Room: "general", Limit: 100, BeforeID: &oldest})
	require.NoError(t, err)
	require.Len(t, rest, 6)
	for _, m := range rest {
		require.Less(t, m.ID, oldest)
		require.Equal(t, "general", m.Room)
	}
}

func TestQueryEmptyRoom(t *testing.T) {
	st := newTestStore(t)

	msgs, err := st.Query(context.Background(), store.Filters{Room: "ghost"})
	require.NoError(t, err)
	require.Empty(t, msgs)
}
