package rtcfsm

import (
	"context"
	"log/slog"
)

// TransitionRecord describes one attempt to apply a resolved event
type TransitionRecord struct {
	ObjectID int
	Event    Event
	HasEvent bool // False when the transition was committed outside ProcessQueue
	From     StateID
	To       StateID
	FromName string
	ToName   string
	Outcome  Outcome
	Err      error
}

// Committed reports whether the object's state changed to To.
// A hook failure after the commit still counts as committed.
func (r TransitionRecord) Committed() bool {
	return r.Outcome == Resolved && r.From != r.To && !isExitRejection(r.Err)
}

// Observer receives callbacks from active objects for logging and journaling.
//
// Implementations run inline on the processing goroutine and should be fast.
// OnEventDropped may be called from the producer's goroutine.
type Observer interface {
	// OnEventDropped is called when Dispatch finds the queue full.
	OnEventDropped(ctx context.Context, objectID int, e Event)

	// OnTransition is called once per applied Result, including NoTransition
	// and Invalid outcomes and hook failures.
	OnTransition(ctx context.Context, rec TransitionRecord)

	// OnIdle is called when ProcessQueue finds nothing to do.
	OnIdle(ctx context.Context, objectID int)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnEventDropped(context.Context, int, Event)     {}
func (NoopObserver) OnTransition(context.Context, TransitionRecord) {}
func (NoopObserver) OnIdle(context.Context, int)                    {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnEventDropped(ctx context.Context, objectID int, e Event) {
	for _, o := range c.observers {
		o.OnEventDropped(ctx, objectID, e)
	}
}

func (c *CompositeObserver) OnTransition(ctx context.Context, rec TransitionRecord) {
	for _, o := range c.observers {
		o.OnTransition(ctx, rec)
	}
}

func (c *CompositeObserver) OnIdle(ctx context.Context, objectID int) {
	for _, o := range c.observers {
		o.OnIdle(ctx, objectID)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs drops and transitions.
// If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnEventDropped(ctx context.Context, objectID int, e Event) {
	o.Logger.WarnContext(ctx, "event_dropped",
		slog.Int("object", objectID),
		slog.Int("signal", int(e.Signal)),
		slog.String("event_id", e.ID.String()),
	)
}

func (o *LoggingObserver) OnTransition(ctx context.Context, rec TransitionRecord) {
	attrs := []any{
		slog.Int("object", rec.ObjectID),
		slog.String("outcome", rec.Outcome.String()),
		slog.String("from", rec.FromName),
		slog.String("to", rec.ToName),
	}
	if rec.HasEvent {
		attrs = append(attrs,
			slog.Int("signal", int(rec.Event.Signal)),
			slog.String("event_id", rec.Event.ID.String()),
		)
	}
	switch {
	case rec.Err != nil:
		o.Logger.WarnContext(ctx, "transition_failed", append(attrs, slog.String("error", rec.Err.Error()))...)
	case rec.Outcome == Resolved:
		o.Logger.InfoContext(ctx, "transition", attrs...)
	default:
		o.Logger.DebugContext(ctx, "transition_skipped", attrs...)
	}
}

func (o *LoggingObserver) OnIdle(ctx context.Context, objectID int) {
	o.Logger.DebugContext(ctx, "idle", slog.Int("object", objectID))
}
