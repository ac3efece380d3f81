package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrelay/internal/profile"
	"github.com/hrygo/chatrelay/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "chatrelay_test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	created, err := driver.CreateMessage(ctx, &store.Message{
		UID:       "uid-1",
		Content:   "hello",
		Sender:    "alice",
		Recipient: "bob",
		ModeHint:  "supervised",
		CreatedTs: 1700000000,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "uid-1", created.UID)

	// UID is unique.
	_, err = driver.CreateMessage(ctx, &store.Message{
		UID:       "uid-1",
		Content:   "again",
		Sender:    "alice",
		CreatedTs: 1700000001,
	})
	assert.Error(t, err)
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	seed := []*store.Message{
		{UID: "uid-1", Content: "first", Sender: "alice", CreatedTs: 1},
		{UID: "uid-2", Content: "second", Sender: "bob", Recipient: "alice", CreatedTs: 2},
		{UID: "uid-3", Content: "third", Sender: "alice", CreatedTs: 3},
	}
	for _, msg := range seed {
		_, err := driver.CreateMessage(ctx, msg)
		require.NoError(t, err)
	}

	t.Run("newest first by default", func(t *testing.T) {
		list, err := driver.ListMessages(ctx, &store.FindMessage{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "uid-3", list[0].UID)
		assert.Equal(t, "uid-1", list[2].UID)
	})

	t.Run("ascending", func(t *testing.T) {
		list, err := driver.ListMessages(ctx, &store.FindMessage{Ascending: true})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "uid-1", list[0].UID)
	})

	t.Run("filter by sender", func(t *testing.T) {
		sender := "alice"
		list, err := driver.ListMessages(ctx, &store.FindMessage{Sender: &sender})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("filter by recipient", func(t *testing.T) {
		recipient := "alice"
		list, err := driver.ListMessages(ctx, &store.FindMessage{Recipient: &recipient})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "uid-2", list[0].UID)
	})

	t.Run("filter by uid", func(t *testing.T) {
		uid := "uid-2"
		list, err := driver.ListMessages(ctx, &store.FindMessage{UID: &uid})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "second", list[0].Content)
	})

	t.Run("limit and offset", func(t *testing.T) {
		limit, offset := 1, 1
		list, err := driver.ListMessages(ctx, &store.FindMessage{Limit: &limit, Offset: &offset})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "uid-2", list[0].UID)
	})
}
