package rtcfsm

import (
	"fmt"
	"strconv"
)

type cell[F any] struct {
	from    StateID
	signal  Signal
	handler Handler[F]
}

// Definition holds the transition table layout before building a Table
type Definition[F any] struct {
	statesMax int
	eventsMax int
	states    []State[F]
	cells     []cell[F]
}

// NewDefinition creates a new table definition builder for states in
// [0, statesMax) and signals in [0, eventsMax)
func NewDefinition[F any](statesMax, eventsMax int) *Definition[F] {
	return &Definition[F]{
		statesMax: statesMax,
		eventsMax: eventsMax,
		states:    make([]State[F], 0),
		cells:     make([]cell[F], 0),
	}
}

// State registers a state record with its hooks
func (d *Definition[F]) State(id StateID, opts ...StateOption[F]) *Definition[F] {
	s := State[F]{ID: id}
	for _, opt := range opts {
		opt(&s)
	}
	d.states = append(d.states, s)
	return d
}

// Handle places h in the (from, sig) cell
func (d *Definition[F]) Handle(from StateID, sig Signal, h Handler[F]) *Definition[F] {
	d.cells = append(d.cells, cell[F]{from: from, signal: sig, handler: h})
	return d
}

// Transition adds a transition rule resolving to `to`
func (d *Definition[F]) Transition(from StateID, sig Signal, to StateID, opts ...TransitionOption[F]) *Definition[F] {
	t := transitionSpec[F]{to: to}
	for _, opt := range opts {
		opt(&t)
	}
	return d.Handle(from, sig, t.handler())
}

// Validate checks the definition for errors
func (d *Definition[F]) Validate() error {
	if d.statesMax < 1 {
		return fmt.Errorf("states max must be positive, got %d", d.statesMax)
	}
	if d.eventsMax < 1 {
		return fmt.Errorf("events max must be positive, got %d", d.eventsMax)
	}

	seenStates := make(map[StateID]bool, len(d.states))
	for _, s := range d.states {
		if !d.inStates(s.ID) {
			return fmt.Errorf("state %d outside [0, %d)", s.ID, d.statesMax)
		}
		if seenStates[s.ID] {
			return fmt.Errorf("state %d defined twice", s.ID)
		}
		seenStates[s.ID] = true
	}

	seenCells := make(map[int]bool, len(d.cells))
	for _, c := range d.cells {
		if !d.inStates(c.from) {
			return fmt.Errorf("transition from state %d outside [0, %d)", c.from, d.statesMax)
		}
		if c.signal < 0 || int(c.signal) >= d.eventsMax {
			return fmt.Errorf("transition on signal %d outside [0, %d)", c.signal, d.eventsMax)
		}
		if c.handler == nil {
			return fmt.Errorf("transition from state %d on signal %d has no handler", c.from, c.signal)
		}
		idx := cellIndex(c.from, c.signal, d.eventsMax)
		if seenCells[idx] {
			return fmt.Errorf("transition from state %d on signal %d defined twice", c.from, c.signal)
		}
		seenCells[idx] = true
	}

	return nil
}

func (d *Definition[F]) inStates(id StateID) bool {
	return id >= 0 && int(id) < d.statesMax
}

// Build creates a read-only Table from the definition
func (d *Definition[F]) Build() (*Table[F], error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	t := &Table[F]{
		statesMax: d.statesMax,
		eventsMax: d.eventsMax,
		cells:     make([]Handler[F], d.statesMax*d.eventsMax),
		states:    make([]State[F], d.statesMax),
	}

	// States without a record still get one, so hook lookups never miss.
	for i := range t.states {
		t.states[i] = State[F]{ID: StateID(i), Name: strconv.Itoa(i)}
	}
	for _, s := range d.states {
		if s.Name == "" {
			s.Name = strconv.Itoa(int(s.ID))
		}
		t.states[s.ID] = s
	}
	for _, c := range d.cells {
		t.cells[cellIndex(c.from, c.signal, d.eventsMax)] = c.handler
	}

	return t, nil
}

func cellIndex(from StateID, sig Signal, eventsMax int) int {
	return int(from)*eventsMax + int(sig)
}
