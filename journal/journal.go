// Package journal keeps an append-only history of active object transitions.
package journal

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/librescoot/rtcfsm"
)

// OutcomeDropped marks an event rejected by a full queue
const OutcomeDropped = "dropped"

// Entry is one journaled transition attempt or dropped event.
type Entry struct {
	ObjectID  int
	EventID   uuid.UUID // uuid.Nil when the transition ran outside ProcessQueue
	Signal    int       // -1 when there was no event
	From      int
	To        int
	FromName  string
	ToName    string
	Outcome   string // rtcfsm.Outcome.String() or OutcomeDropped
	Committed bool
	Err       string
	At        time.Time
}

// Store is an append-only history store for journal entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, objectID int) ([]Entry, error)
}

// NoopStore discards all entries.
type NoopStore struct{}

func (NoopStore) Append(context.Context, Entry) error       { return nil }
func (NoopStore) List(context.Context, int) ([]Entry, error) { return nil, nil }

// MemoryStore keeps entries in memory, in append order.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) List(_ context.Context, objectID int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.ObjectID == objectID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every entry
func (s *MemoryStore) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Recorder is an rtcfsm.Observer that appends every transition attempt and
// dropped event to a Store. Append failures are logged, never returned to
// the active object.
type Recorder struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

var _ rtcfsm.Observer = (*Recorder)(nil)

// RecorderOption is a functional option for configuring a Recorder
type RecorderOption func(*Recorder)

// WithClock sets the time source for Entry.At
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithLogger sets the logger used to report append failures
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a Recorder writing to store. A nil store discards.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	if store == nil {
		store = NoopStore{}
	}
	r := &Recorder{
		store:  store,
		now:    time.Now,
		logger: rtcfsm.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) OnEventDropped(ctx context.Context, objectID int, e rtcfsm.Event) {
	r.append(ctx, Entry{
		ObjectID: objectID,
		EventID:  e.ID,
		Signal:   int(e.Signal),
		From:     int(rtcfsm.StateEmpty),
		To:       int(rtcfsm.StateEmpty),
		Outcome:  OutcomeDropped,
	})
}

func (r *Recorder) OnTransition(ctx context.Context, rec rtcfsm.TransitionRecord) {
	e := Entry{
		ObjectID:  rec.ObjectID,
		Signal:    -1,
		From:      int(rec.From),
		To:        int(rec.To),
		FromName:  rec.FromName,
		ToName:    rec.ToName,
		Outcome:   rec.Outcome.String(),
		Committed: rec.Committed(),
	}
	if rec.HasEvent {
		e.EventID = rec.Event.ID
		e.Signal = int(rec.Event.Signal)
	}
	if rec.Err != nil {
		e.Err = rec.Err.Error()
	}
	r.append(ctx, e)
}

func (r *Recorder) OnIdle(context.Context, int) {}

func (r *Recorder) append(ctx context.Context, e Entry) {
	e.At = r.now()
	if err := r.store.Append(ctx, e); err != nil {
		r.logger.Warn("failed to append journal entry", "object", e.ObjectID, "outcome", e.Outcome, "error", err)
	}
}
