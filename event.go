package rtcfsm

import "github.com/google/uuid"

// Event carries a signal and a borrowed payload through the queue.
// Events are copied by value; the payload is never freed or copied.
type Event struct {
	Signal  Signal
	Payload any       // Optional, owned by the sender
	ID      uuid.UUID // Correlation id, stamped by Dispatch when zero
}

// NewEvent builds an event for sig with an optional payload.
func NewEvent(sig Signal, maybePayload ...any) Event {
	e := Event{Signal: sig}
	if len(maybePayload) > 0 {
		e.Payload = maybePayload[0]
	}
	return e
}

// IDGenerator produces correlation ids for dispatched events
type IDGenerator func() (uuid.UUID, error)

func newEventID() (uuid.UUID, error) {
	return uuid.NewV7()
}
