package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/librescoot/rtcfsm"
	"github.com/librescoot/rtcfsm/journal"
)

func newTestSQLiteStore(t *testing.T) *journal.SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Each pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := journal.NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func sampleEntries() []journal.Entry {
	at := time.Unix(1700000000, 42)
	return []journal.Entry{
		{ObjectID: 1, EventID: uuid.New(), Signal: 0, From: 0, To: 1, FromName: "idle", ToName: "busy", Outcome: "resolved", Committed: true, At: at},
		{ObjectID: 2, Signal: -1, From: 3, To: 3, Outcome: "no_transition", At: at},
		{ObjectID: 1, EventID: uuid.New(), Signal: 2, From: 1, To: 0, FromName: "busy", ToName: "idle", Outcome: "resolved", Err: "exit hook rejected transition: busy", At: at.Add(time.Second)},
	}
}

func testStore(t *testing.T, store journal.Store) {
	ctx := context.Background()
	in := sampleEntries()
	for _, e := range in {
		require.NoError(t, store.Append(ctx, e))
	}

	got, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, want := range []journal.Entry{in[0], in[2]} {
		assert.Equal(t, want.EventID, got[i].EventID)
		assert.Equal(t, want.Signal, got[i].Signal)
		assert.Equal(t, want.From, got[i].From)
		assert.Equal(t, want.To, got[i].To)
		assert.Equal(t, want.FromName, got[i].FromName)
		assert.Equal(t, want.ToName, got[i].ToName)
		assert.Equal(t, want.Outcome, got[i].Outcome)
		assert.Equal(t, want.Committed, got[i].Committed)
		assert.Equal(t, want.Err, got[i].Err)
		assert.True(t, want.At.Equal(got[i].At))
	}

	got, err = store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uuid.Nil, got[0].EventID)

	got, err = store.List(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	store := journal.NewMemoryStore()
	testStore(t, store)
	assert.Len(t, store.All(), 3)
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreDefaultsTimestamp(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	before := time.Now()
	require.NoError(t, store.Append(ctx, journal.Entry{ObjectID: 5, Outcome: "invalid"}))

	got, err := store.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].At.Before(before.Add(-time.Second)))
}

type failingStore struct {
	journal.NoopStore
	calls int
}

func (s *failingStore) Append(context.Context, journal.Entry) error {
	s.calls++
	return errors.New("disk full")
}

const (
	stateIdle rtcfsm.StateID = iota
	stateBusy
	statesMax
)

const (
	sigStart rtcfsm.Signal = iota
	sigStop
	signalsMax
)

func buildTable(t *testing.T) *rtcfsm.Table[struct{}] {
	t.Helper()
	tbl, err := rtcfsm.NewDefinition[struct{}](int(statesMax), int(signalsMax)).
		State(stateIdle, rtcfsm.WithName[struct{}]("idle")).
		State(stateBusy, rtcfsm.WithName[struct{}]("busy")).
		Transition(stateIdle, sigStart, stateBusy).
		Build()
	require.NoError(t, err)
	return tbl
}

func TestRecorderJournalsTransitions(t *testing.T) {
	store := journal.NewMemoryStore()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := journal.NewRecorder(store, journal.WithClock(func() time.Time { return at }))

	tbl := buildTable(t)
	ao := rtcfsm.New(7, stateIdle, struct{}{}, rtcfsm.WithObserver(rec), rtcfsm.WithQueueCapacity(2))
	runner := rtcfsm.NewRunner(ao, tbl)
	ctx := context.Background()

	require.True(t, ao.Dispatch(rtcfsm.NewEvent(sigStart)))
	require.True(t, ao.Dispatch(rtcfsm.NewEvent(sigStop)))
	require.False(t, ao.Dispatch(rtcfsm.NewEvent(sigStop)))

	_, err := rtcfsm.NewSuperloop().Add(runner).Drain(ctx, 0)
	require.NoError(t, err)

	entries, err := store.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	dropped := entries[0]
	assert.Equal(t, journal.OutcomeDropped, dropped.Outcome)
	assert.Equal(t, int(sigStop), dropped.Signal)
	assert.NotEqual(t, uuid.Nil, dropped.EventID)

	moved := entries[1]
	assert.Equal(t, "resolved", moved.Outcome)
	assert.Equal(t, "idle", moved.FromName)
	assert.Equal(t, "busy", moved.ToName)
	assert.True(t, moved.Committed)
	assert.Equal(t, at, moved.At)
	assert.NotEqual(t, uuid.Nil, moved.EventID)

	skipped := entries[2]
	assert.Equal(t, "no_transition", skipped.Outcome)
	assert.False(t, skipped.Committed)
	assert.Equal(t, int(sigStop), skipped.Signal)
}

func TestRecorderDirectTraverse(t *testing.T) {
	store := journal.NewMemoryStore()
	tbl := buildTable(t)
	ao := rtcfsm.New(1, stateIdle, struct{}{}, rtcfsm.WithObserver(journal.NewRecorder(store)))

	require.NoError(t, rtcfsm.Traverse(ao, stateBusy, tbl))

	entries := store.All()
	require.Len(t, entries, 1)
	assert.Equal(t, -1, entries[0].Signal)
	assert.Equal(t, uuid.Nil, entries[0].EventID)
}

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	store := &failingStore{}
	rec := journal.NewRecorder(store)
	tbl := buildTable(t)
	ao := rtcfsm.New(1, stateIdle, struct{}{}, rtcfsm.WithObserver(rec))

	require.NoError(t, rtcfsm.Traverse(ao, stateBusy, tbl))
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, stateBusy, ao.State())
}

func TestNewRecorderNilStore(t *testing.T) {
	rec := journal.NewRecorder(nil)
	rec.OnEventDropped(context.Background(), 1, rtcfsm.NewEvent(sigStart))
	rec.OnIdle(context.Background(), 1)
}
