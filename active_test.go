package rtcfsm

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu          sync.Mutex
	dropped     []Event
	transitions []TransitionRecord
	idle        int
}

func (o *recordingObserver) OnEventDropped(_ context.Context, _ int, e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped = append(o.dropped, e)
}

func (o *recordingObserver) OnTransition(_ context.Context, rec TransitionRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, rec)
}

func (o *recordingObserver) OnIdle(context.Context, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.idle++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchFullQueue(t *testing.T) {
	obs := &recordingObserver{}
	ao := New(3, stateA, testFields{},
		WithQueueCapacity(2),
		WithObserver(obs),
		WithLogger(discardLogger()),
	)

	assert.Equal(t, 2, ao.Capacity())
	assert.True(t, ao.Dispatch(NewEvent(evGo)))
	assert.True(t, ao.Dispatch(NewEvent(evBack)))
	assert.False(t, ao.Dispatch(NewEvent(evNext)))

	assert.Equal(t, 2, ao.Pending())
	assert.Equal(t, uint64(1), ao.Dropped())
	require.Len(t, obs.dropped, 1)
	assert.Equal(t, evNext, obs.dropped[0].Signal)

	// The queued events are untouched by the drop
	e, ok := ao.Peek()
	require.True(t, ok)
	assert.Equal(t, evGo, e.Signal)
}

func TestDispatchStampsEventID(t *testing.T) {
	ao := New(1, stateA, testFields{})
	require.True(t, ao.Dispatch(NewEvent(evGo)))

	e, ok := ao.Peek()
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, uuid.Version(7), e.ID.Version())

	preset := uuid.New()
	ao.Reset(stateA, testFields{})
	require.True(t, ao.Dispatch(Event{Signal: evGo, ID: preset}))
	e, _ = ao.Peek()
	assert.Equal(t, preset, e.ID)
}

func TestDispatchWithoutIDGenerator(t *testing.T) {
	ao := newTestObject(stateA)
	require.True(t, ao.Dispatch(NewEvent(evGo)))

	e, _ := ao.Peek()
	assert.Equal(t, uuid.Nil, e.ID)
}

func TestProcessQueueEmpty(t *testing.T) {
	obs := &recordingObserver{}
	ao := New(1, stateA, testFields{}, WithObserver(obs))
	tbl := buildTable(t, NewDefinition[testFields](int(statesMax), int(eventsMax)))

	var idleCalls int
	processed, err := ao.ProcessQueue(context.Background(), tbl.Resolve, tbl.HookedTransition, func(got *ActiveObject[testFields]) {
		assert.Same(t, ao, got)
		idleCalls++
	})
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, 1, idleCalls)
	assert.Equal(t, 1, obs.idle)
	assert.True(t, ao.HasEmptyQueue())

	// A nil idle callback is allowed
	processed, err = ao.ProcessQueue(context.Background(), tbl.Resolve, tbl.HookedTransition, nil)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessQueueNilCallbacks(t *testing.T) {
	tbl := buildTable(t, NewDefinition[testFields](int(statesMax), int(eventsMax)))
	ao := newTestObject(stateA)
	ao.Dispatch(NewEvent(evGo))

	_, err := ao.ProcessQueue(context.Background(), nil, tbl.HookedTransition, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ao.ProcessQueue(context.Background(), tbl.Resolve, nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	// Nothing was consumed
	assert.Equal(t, 1, ao.Pending())
}

func TestProcessQueueOneEventPerCall(t *testing.T) {
	var seen []Signal
	handler := func(ao *ActiveObject[testFields], e Event) Result {
		seen = append(seen, e.Signal)
		return noTransition
	}

	ao := newTestObject(stateA)
	for _, sig := range []Signal{evGo, evBack, evNext} {
		require.True(t, ao.Dispatch(NewEvent(sig)))
	}

	ctx := context.Background()
	processed, err := ao.ProcessQueue(ctx, handler, BasicTransition[testFields], nil)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, 2, ao.Pending())
	assert.Equal(t, []Signal{evGo}, seen)

	for ao.Pending() > 0 {
		_, err := ao.ProcessQueue(ctx, handler, BasicTransition[testFields], nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []Signal{evGo, evBack, evNext}, seen)
}

func TestProcessQueueReturnsTransitionError(t *testing.T) {
	ao := newTestObject(stateA)
	ao.Dispatch(NewEvent(evGo))

	handler := func(*ActiveObject[testFields], Event) Result { return invalidResult }
	processed, err := ao.ProcessQueue(context.Background(), handler, BasicTransition[testFields], nil)
	assert.True(t, processed)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, stateA, ao.State())
}

func TestReset(t *testing.T) {
	ao := New(1, stateA, testFields{count: 1}, WithQueueCapacity(1), WithLogger(discardLogger()))
	ao.Dispatch(NewEvent(evGo))
	ao.Dispatch(NewEvent(evGo))
	require.Equal(t, uint64(1), ao.Dropped())

	ao.Reset(stateC, testFields{count: 5})
	assert.Equal(t, stateC, ao.State())
	assert.Equal(t, 5, ao.Fields.count)
	assert.True(t, ao.HasEmptyQueue())
	assert.Zero(t, ao.Dropped())
	assert.Equal(t, 1, ao.ID())
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() {
		New(1, stateA, testFields{}, WithQueueCapacity(0))
	})
}

func TestObserverSeesTransitions(t *testing.T) {
	obs := &recordingObserver{}
	exitErr := assert.AnError
	tbl := buildTable(t, NewDefinition[testFields](int(statesMax), int(eventsMax)).
		State(stateA, WithName[testFields]("a")).
		State(stateB, WithName[testFields]("b"), WithOnExit(func(*Context[testFields]) error {
			return exitErr
		})).
		Transition(stateA, evGo, stateB).
		Transition(stateB, evBack, stateA))

	ao := New(9, stateA, testFields{}, WithObserver(obs))
	ctx := context.Background()
	for _, sig := range []Signal{evGo, evNext, evBack} {
		ao.Dispatch(NewEvent(sig))
		_, _ = ao.ProcessQueue(ctx, tbl.Resolve, tbl.HookedTransition, nil)
	}

	require.Len(t, obs.transitions, 3)

	moved := obs.transitions[0]
	assert.Equal(t, 9, moved.ObjectID)
	assert.True(t, moved.HasEvent)
	assert.Equal(t, evGo, moved.Event.Signal)
	assert.Equal(t, "a", moved.FromName)
	assert.Equal(t, "b", moved.ToName)
	assert.Equal(t, Resolved, moved.Outcome)
	assert.True(t, moved.Committed())

	skipped := obs.transitions[1]
	assert.Equal(t, NoTransition, skipped.Outcome)
	assert.False(t, skipped.Committed())

	vetoed := obs.transitions[2]
	assert.Equal(t, Resolved, vetoed.Outcome)
	require.ErrorIs(t, vetoed.Err, ErrExitRejected)
	assert.False(t, vetoed.Committed())
	assert.Equal(t, stateB, ao.State())
}

func TestConcurrentDispatch(t *testing.T) {
	const total = 2000

	ao := New(1, stateA, testFields{}, WithQueueCapacity(8), WithLogger(discardLogger()))
	handler := func(ao *ActiveObject[testFields], e Event) Result {
		ao.Fields.count++
		return noTransition
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			ao.Dispatch(NewEvent(evGo))
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ctx := context.Background()
	for {
		processed, err := ao.ProcessQueue(ctx, handler, BasicTransition[testFields], nil)
		require.NoError(t, err)
		if processed {
			continue
		}
		select {
		case <-done:
			if ao.HasEmptyQueue() {
				assert.Equal(t, total, ao.Fields.count+int(ao.Dropped()))
				return
			}
		default:
		}
	}
}
