package rtcfsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/librescoot/rtcfsm/queue"
)

// DefaultQueueCapacity is used when WithQueueCapacity is not given
const DefaultQueueCapacity = 16

// EventHandler computes the candidate next state for a dequeued event
type EventHandler[F any] func(ao *ActiveObject[F], e Event) Result

// TransitionFunc commits a candidate next state
type TransitionFunc[F any] func(ao *ActiveObject[F], next Result) error

// IdleFunc runs when ProcessQueue finds the queue empty
type IdleFunc[F any] func(ao *ActiveObject[F])

// ActiveObject owns one event queue and one current state and processes one
// event per ProcessQueue call. Only the transition executor changes the state.
// Construct it with New.
type ActiveObject[F any] struct {
	id     int
	state  StateID
	Fields F // User-defined fields, free for handlers and hooks to update

	queue *queue.Ring[Event]

	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer
	newID    IDGenerator
	dropped  atomic.Uint64

	// Set while ProcessQueue runs a handler and its transition
	processing bool
	current    Event
	ctx        context.Context
}

type settings struct {
	capacity int
	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer
	newID    IDGenerator
}

// Option is a functional option for configuring an ActiveObject
type Option func(*settings)

// WithQueueCapacity sets the fixed event queue capacity
func WithQueueCapacity(capacity int) Option {
	return func(s *settings) {
		s.capacity = capacity
	}
}

// WithLogger sets the logger for the object
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithTracer sets the tracer used for ProcessQueue and Traverse spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *settings) {
		s.tracer = tracer
	}
}

// WithObserver sets the observer notified of drops, transitions and idle steps
func WithObserver(observer Observer) Option {
	return func(s *settings) {
		s.observer = observer
	}
}

// WithIDGenerator replaces the uuid v7 generator used to stamp event ids.
// A nil generator disables stamping.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *settings) {
		s.newID = gen
	}
}

// New constructs an active object with an empty queue.
// It panics if the queue capacity is not positive.
func New[F any](id int, initial StateID, fields F, opts ...Option) *ActiveObject[F] {
	s := settings{
		capacity: DefaultQueueCapacity,
		logger:   Logger,
		tracer:   defaultTracer(),
		observer: NoopObserver{},
		newID:    newEventID,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = Logger
	}
	if s.tracer == nil {
		s.tracer = defaultTracer()
	}
	if s.observer == nil {
		s.observer = NoopObserver{}
	}

	return &ActiveObject[F]{
		id:       id,
		state:    initial,
		Fields:   fields,
		queue:    queue.New[Event](s.capacity),
		logger:   s.logger,
		tracer:   s.tracer,
		observer: s.observer,
		newID:    s.newID,
	}
}

// Reset empties the queue and re-initialises state and fields.
func (ao *ActiveObject[F]) Reset(initial StateID, fields F) {
	ao.queue.Reset()
	ao.state = initial
	ao.Fields = fields
	ao.dropped.Store(0)
}

// ID returns the object id
func (ao *ActiveObject[F]) ID() int {
	return ao.id
}

// State returns the current state
func (ao *ActiveObject[F]) State() StateID {
	return ao.state
}

// Pending returns the number of queued events
func (ao *ActiveObject[F]) Pending() int {
	return ao.queue.Len()
}

// Capacity returns the fixed queue capacity
func (ao *ActiveObject[F]) Capacity() int {
	return ao.queue.Cap()
}

// HasEmptyQueue reports whether there is nothing to process
func (ao *ActiveObject[F]) HasEmptyQueue() bool {
	return ao.queue.IsEmpty()
}

// Peek returns the next queued event without removing it
func (ao *ActiveObject[F]) Peek() (Event, bool) {
	return ao.queue.TryPeek()
}

// Dropped returns how many events Dispatch rejected because the queue was full
func (ao *ActiveObject[F]) Dropped() uint64 {
	return ao.dropped.Load()
}

// Dispatch queues an event for processing. It returns false when the queue
// is full; the event is then dropped. Safe to call from one producer
// goroutine while another goroutine runs ProcessQueue.
func (ao *ActiveObject[F]) Dispatch(event Event) bool {
	if event.ID == uuid.Nil && ao.newID != nil {
		if id, err := ao.newID(); err == nil {
			event.ID = id
		}
	}
	if ao.queue.Enqueue(event) {
		return true
	}
	ao.dropped.Add(1)
	ao.logger.Warn("event queue full, dropping event", "object", ao.id, "signal", event.Signal, "event_id", event.ID)
	ao.observer.OnEventDropped(context.Background(), ao.id, event)
	return false
}

// ProcessQueue processes exactly one queued event: the handler computes the
// candidate next state and transition commits it. With an empty queue it calls
// onEmpty (which may be nil) and returns false. It never loops; the caller's
// superloop decides when to call again.
func (ao *ActiveObject[F]) ProcessQueue(ctx context.Context, handler EventHandler[F], transition TransitionFunc[F], onEmpty IdleFunc[F]) (bool, error) {
	if handler == nil || transition == nil {
		return false, fmt.Errorf("%w: nil event handler or transition", ErrInvalidInput)
	}

	event, ok := ao.queue.TryDequeue()
	if !ok {
		ao.observer.OnIdle(ctx, ao.id)
		if onEmpty != nil {
			onEmpty(ao)
		}
		return false, nil
	}

	ctx, span := ao.tracer.Start(ctx, spanProcessQueue, trace.WithAttributes(eventAttributes(ao.id, ao.state, event)...))
	defer span.End()

	ao.processing, ao.current, ao.ctx = true, event, ctx
	defer func() {
		ao.processing, ao.current, ao.ctx = false, Event{}, nil
	}()

	ao.logger.Debug("processing event", "object", ao.id, "signal", event.Signal, "state", ao.state)

	next := handler(ao, event)
	err := transition(ao, next)
	endSpan(span, next, ao.state, err)
	return true, err
}

func (ao *ActiveObject[F]) spanContext() context.Context {
	if ao.ctx != nil {
		return ao.ctx
	}
	return context.Background()
}
