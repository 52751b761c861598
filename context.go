package rtcfsm

import "log/slog"

// Context is passed to state hooks
type Context[F any] struct {
	Object *ActiveObject[F]
	Event  *Event  // Event being processed (nil when Traverse is called directly)
	From   StateID // State we're transitioning from
	To     StateID // State we're transitioning to
	Logger *slog.Logger
}

// Fields returns the object's user fields for in-place updates.
func (c *Context[F]) Fields() *F {
	return &c.Object.Fields
}

// CurrentState returns the object's state at the time of the call
func (c *Context[F]) CurrentState() StateID {
	return c.Object.State()
}

// Dispatch queues a follow-up event on the same object
func (c *Context[F]) Dispatch(event Event) bool {
	return c.Object.Dispatch(event)
}

func (ao *ActiveObject[F]) makeContext(from, to StateID) *Context[F] {
	c := &Context[F]{
		Object: ao,
		From:   from,
		To:     to,
		Logger: ao.logger,
	}
	if ao.processing {
		event := ao.current
		c.Event = &event
	}
	return c
}
