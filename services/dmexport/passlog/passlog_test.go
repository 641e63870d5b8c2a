package passlog

import (
	"context"
	"database/sql"
	"testing"

	"dmexport-backend/services/dmexport"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func TestRecordAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := dmexport.Summary{
		ExportDate:           "2024-03-14T15:30:00Z",
		TotalChats:           2,
		SkippedUnreadChats:   1,
		ChatsWithNewMessages: 1,
		NewMessagesTotal:     3,
		Chats: []dmexport.SummaryEntry{
			{
				ChatName:      "alice",
				DisplayName:   "Alice",
				FileName:      "alice.json",
				NewMessages:   3,
				TotalMessages: 3,
			},
		},
	}
	second := dmexport.Summary{
		ExportDate: "2024-03-15T09:00:00Z",
		TotalChats: 2,
		Chats:      []dmexport.SummaryEntry{},
	}

	firstId, err := store.Record(ctx, first)
	require.NoError(t, err)
	require.NotEmpty(t, firstId)

	secondId, err := store.Record(ctx, second)
	require.NoError(t, err)
	require.NotEqual(t, firstId, secondId)

	passes, err := store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, passes, 2)

	// newest first
	require.Equal(t, secondId, passes[0].Id)
	require.Equal(t, firstId, passes[1].Id)
	require.Equal(t, "2024-03-14T15:30:00Z", passes[1].Summary.ExportDate)
	require.Equal(t, 3, passes[1].Summary.NewMessagesTotal)

	chats, err := store.Chats(ctx, firstId)
	require.NoError(t, err)
	diff := cmp.Diff(first.Chats, chats)
	if diff != "" {
		t.Fatal(diff)
	}

	chats, err = store.Chats(ctx, secondId)
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestRecordRejectsMalformedExportDate(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Record(context.Background(), dmexport.Summary{
		ExportDate: "yesterday",
	})
	require.Error(t, err)

	passes, err := store.History(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, passes)
}

func TestHistoryLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dates := []string{
		"2024-03-10T00:00:00Z",
		"2024-03-11T00:00:00Z",
		"2024-03-12T00:00:00Z",
	}
	for _, date := range dates {
		_, err := store.Record(ctx, dmexport.Summary{ExportDate: date})
		require.NoError(t, err)
	}

	passes, err := store.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	require.Equal(t, "2024-03-12T00:00:00Z", passes[0].Summary.ExportDate)
	require.Equal(t, "2024-03-11T00:00:00Z", passes[1].Summary.ExportDate)
}
