package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/testutil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestServiceStoreAddGet(t *testing.T) {
	services := openTestDB(t).Services()
	ctx := context.Background()

	want := client.Settings{
		APIType:  client.APIGelbooru,
		Name:     "Gelbooru",
		Endpoint: "https://gelbooru.com",
		Username: "1234",
		Password: "api-key",
	}
	id, err := services.Add(ctx, want)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "row id should be a uuid")

	got, err := services.Get(ctx, "gelbooru")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestServiceStoreDuplicateName(t *testing.T) {
	services := openTestDB(t).Services()
	ctx := context.Background()

	_, err := services.Add(ctx, client.Settings{APIType: client.APIDanbooru, Name: "Dan", Endpoint: "https://a"})
	require.NoError(t, err)

	_, err = services.Add(ctx, client.Settings{APIType: client.APIDanbooru, Name: "DAN", Endpoint: "https://b"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestServiceStoreRejectsInvalid(t *testing.T) {
	services := openTestDB(t).Services()
	ctx := context.Background()

	_, err := services.Add(ctx, client.Settings{APIType: client.APIDanbooru, Name: "  "})
	assert.Error(t, err)

	_, err = services.Add(ctx, client.Settings{APIType: client.APIType(42), Name: "x"})
	assert.ErrorIs(t, err, client.ErrUnknownAPIType)
}

func TestServiceStoreListRemove(t *testing.T) {
	services := openTestDB(t).Services()
	ctx := context.Background()

	for _, name := range []string{"zeta", "Alpha", "mid"} {
		_, err := services.Add(ctx, client.Settings{APIType: client.APIShimmie, Name: name, Endpoint: "https://" + name})
		require.NoError(t, err)
	}

	list, err := services.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Alpha", "mid", "zeta"}, []string{list[0].Name, list[1].Name, list[2].Name})

	require.NoError(t, services.Remove(ctx, "MID"))
	assert.ErrorIs(t, services.Remove(ctx, "mid"), ErrNotFound)

	_, err = services.Get(ctx, "mid")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = services.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestHistoryOrder(t *testing.T) {
	db := openTestDB(t)
	clock := time.Unix(1700000000, 0)
	db.now = func() time.Time { return clock }
	history := db.History()
	ctx := context.Background()

	for _, q := range []string{"cat", "dog", "  bird   nest ", "", "cat"} {
		require.NoError(t, history.Add(ctx, q))
	}

	entries, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "cat", entries[0].Query)
	assert.Equal(t, "bird nest", entries[1].Query)
	assert.Equal(t, "dog", entries[2].Query)
	assert.True(t, entries[0].SearchedAt.Equal(clock))

	entries, err = history.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, history.Clear(ctx))
	entries, err = history.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryLimit(t *testing.T) {
	history := openTestDB(t).History()
	history.limit = 3
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, history.Add(ctx, q))
	}

	entries, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].Query)
	assert.Equal(t, "c", entries[2].Query)
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nori.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Services().Add(context.Background(), client.Settings{APIType: client.APIE621, Name: "e621"})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	testutil.AssertFileExists(t, path)

	// reopening keeps the data
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Services().Get(context.Background(), "e621")
	require.NoError(t, err)
	assert.Equal(t, client.APIE621, got.APIType)
}
