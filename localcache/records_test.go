package localcache

import (
	"errors"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerStartsEmpty(t *testing.T) {
	store := testStore(t)

	records, err := LoadRecords(store)
	require.NoError(t, err)

	_, ok := records.Get("anything")
	assert.False(t, ok)
	assert.Empty(t, records.CreatedPages())
}

func TestLedgerTransitions(t *testing.T) {
	store := testStore(t)
	records, err := LoadRecords(store)
	require.NoError(t, err)

	require.NoError(t, records.MarkPending("item-1"))
	record, ok := records.Get("item-1")
	require.True(t, ok)
	assert.Equal(t, StatusPending, record.Status)
	assert.Equal(t, 1, record.Attempts)

	require.NoError(t, records.MarkFailed("item-1", errors.New("the wire caught fire")))
	record, _ = records.Get("item-1")
	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, "the wire caught fire", record.Error)

	require.NoError(t, records.MarkPending("item-1"))
	require.NoError(t, records.MarkCreated("item-1", "notion-abc", "https://notion.so/notion-abc"))
	record, _ = records.Get("item-1")
	assert.Equal(t, StatusCreated, record.Status)
	assert.Equal(t, "notion-abc", record.NotionID)
	assert.Empty(t, record.Error)
	assert.Equal(t, 2, record.Attempts)
}

func TestCreatedIsTerminal(t *testing.T) {
	store := testStore(t)
	records, err := LoadRecords(store)
	require.NoError(t, err)

	require.NoError(t, records.MarkCreated("item-1", "notion-abc", ""))

	assert.Error(t, records.MarkPending("item-1"))
	require.NoError(t, records.MarkFailed("item-1", errors.New("too late to matter")))

	record, _ := records.Get("item-1")
	assert.Equal(t, StatusCreated, record.Status)
	assert.True(t, records.IsCreated("item-1"))
}

func TestLedgerSurvivesReopen(t *testing.T) {
	store := testStore(t)

	records, err := LoadRecords(store)
	require.NoError(t, err)
	require.NoError(t, records.MarkCreated("done-1", "notion-1", "https://notion.so/notion-1"))
	require.NoError(t, records.MarkPending("wip-1"))
	require.NoError(t, records.MarkFailed("sad-1", errors.New("409 until the heat death")))

	reloaded, err := LoadRecords(store)
	require.NoError(t, err)

	assert.True(t, reloaded.IsCreated("done-1"))
	created := reloaded.CreatedPages()
	require.Contains(t, created, "done-1")
	assert.Equal(t, "notion-1", created["done-1"].NotionID)

	record, ok := reloaded.Get("sad-1")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, record.Status)
	assert.NotContains(t, created, "sad-1")
}

func TestLedgerWritesAreAtomic(t *testing.T) {
	store := testStore(t)

	records, err := LoadRecords(store)
	require.NoError(t, err)
	require.NoError(t, records.MarkCreated("done-1", "notion-1", ""))

	// A stale temp file from an interrupted write must not confuse the next
	// transition, and must never survive it.
	stale := path.Join(store.Dir, "migration-state.yaml.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("half a ledg"), 0640))

	require.NoError(t, records.MarkPending("wip-1"))
	_, err = os.Stat(stale)
	assert.ErrorIs(t, err, os.ErrNotExist)

	reloaded, err := LoadRecords(store)
	require.NoError(t, err)
	assert.True(t, reloaded.IsCreated("done-1"))
	record, ok := reloaded.Get("wip-1")
	require.True(t, ok)
	assert.Equal(t, StatusPending, record.Status)
}
