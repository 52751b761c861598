package rtcfsm

// ResolveNextState looks up the handler for the object's current state and
// e.Signal and returns what it resolves to. It never changes ao's state.
//
// Malformed input (nil object or table, state or signal out of range) is
// Invalid and no handler runs. An empty cell, or a handler returning
// StateEmpty, is NoTransition. A handler returning an id outside the table
// is Invalid.
func ResolveNextState[F any](ao *ActiveObject[F], e Event, t *Table[F]) Result {
	if ao == nil || t == nil {
		return invalidResult
	}
	current := ao.state
	if !t.validState(current) || !t.validSignal(e.Signal) {
		ao.logger.Debug("invalid fsm input", "object", ao.id, "state", current, "signal", e.Signal)
		return invalidResult
	}

	handler := t.cells[cellIndex(current, e.Signal, t.eventsMax)]
	if handler == nil {
		ao.logger.Debug("no transition found", "object", ao.id, "state", t.StateName(current), "signal", e.Signal)
		return noTransition
	}

	next := handler.Handle(ao, e)
	switch {
	case next == StateEmpty:
		ao.logger.Debug("handler declined transition", "object", ao.id, "state", t.StateName(current), "signal", e.Signal)
		return noTransition
	case !t.validState(next):
		ao.logger.Debug("handler returned invalid state", "object", ao.id, "state", t.StateName(current), "signal", e.Signal, "next", next)
		return invalidResult
	}
	return To(next)
}

// Resolve is ResolveNextState bound to t. Its method value is an EventHandler.
func (t *Table[F]) Resolve(ao *ActiveObject[F], e Event) Result {
	return ResolveNextState(ao, e, t)
}
