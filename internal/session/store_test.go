package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestCreate_ReturnsUsableID(t *testing.T) {
	store := New(nil)
	id := store.Create(entity.SearchQuery{Phrase: "bombing kabul"})

	sess, ok := store.GetSession(id)
	require.True(t, ok)
	assert.Equal(t, entity.SessionStatusPending, sess.Status)
	assert.Equal(t, "bombing kabul", sess.Query.Phrase)
}

func TestAppendResult_AccumulatesInOrder(t *testing.T) {
	store := New(nil)
	id := store.Create(entity.SearchQuery{})

	require.True(t, store.AppendResult(id, entity.EventRecord{Title: "first"}))
	require.True(t, store.AppendResult(id, entity.EventRecord{Title: "second"}))

	results, ok := store.GetResults(id)
	require.True(t, ok)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Title)
	assert.Equal(t, "second", results[1].Title)
}

func TestAppendResult_UnknownSessionReturnsFalse(t *testing.T) {
	store := New(nil)
	assert.False(t, store.AppendResult("missing", entity.EventRecord{}))
}

func TestUpdateProgress_ComputesPercent(t *testing.T) {
	store := New(nil)
	id := store.Create(entity.SearchQuery{})

	require.True(t, store.UpdateProgress(id, 3, 10, "extracting"))

	sess, _ := store.GetSession(id)
	assert.Equal(t, 30.0, sess.Progress.Percent)
	assert.Equal(t, "extracting", sess.Progress.Message)
}

func TestCancel_SetsStatusAndFlagIsOneWay(t *testing.T) {
	store := New(nil)
	id := store.Create(entity.SearchQuery{})

	require.True(t, store.Cancel(id))
	assert.True(t, store.IsCancelled(id))

	sess, _ := store.GetSession(id)
	assert.Equal(t, entity.SessionStatusCancelled, sess.Status)

	// Appending after cancellation is still permitted.
	assert.True(t, store.AppendResult(id, entity.EventRecord{Title: "late arrival"}))
	results, _ := store.GetResults(id)
	assert.Len(t, results, 1)
}

func TestDelete_RemovesSessionAndCancellationEntry(t *testing.T) {
	store := New(nil)
	id := store.Create(entity.SearchQuery{})
	store.Cancel(id)

	store.Delete(id)

	_, ok := store.GetSession(id)
	assert.False(t, ok)
	assert.False(t, store.IsCancelled(id))
}

func TestCleanupOlderThan_EvictsExpiredSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := New(clock)

	oldID := store.Create(entity.SearchQuery{})
	clock.now = clock.now.Add(2 * time.Hour)
	freshID := store.Create(entity.SearchQuery{})

	clock.now = clock.now.Add(23 * time.Hour)
	removed := store.CleanupOlderThan(24 * time.Hour)

	assert.Equal(t, 1, removed)
	_, oldExists := store.GetSession(oldID)
	_, freshExists := store.GetSession(freshID)
	assert.False(t, oldExists)
	assert.True(t, freshExists)
}

func TestLen_ReflectsLiveSessionCount(t *testing.T) {
	store := New(nil)
	assert.Equal(t, 0, store.Len())
	store.Create(entity.SearchQuery{})
	store.Create(entity.SearchQuery{})
	assert.Equal(t, 2, store.Len())
}
