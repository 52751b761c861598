package rtcfsm

import "strconv"

// Table is a read-only [state][signal] handler table plus the state registry.
// Build one at startup with a Definition and share it by reference.
type Table[F any] struct {
	statesMax int
	eventsMax int
	cells     []Handler[F] // row-major, statesMax*eventsMax
	states    []State[F]
}

// StatesMax returns the exclusive upper bound of real state ids
func (t *Table[F]) StatesMax() int {
	return t.statesMax
}

// EventsMax returns the exclusive upper bound of real signals
func (t *Table[F]) EventsMax() int {
	return t.eventsMax
}

// Handler returns the handler in the (from, sig) cell, or nil.
func (t *Table[F]) Handler(from StateID, sig Signal) Handler[F] {
	if !t.validState(from) || !t.validSignal(sig) {
		return nil
	}
	return t.cells[cellIndex(from, sig, t.eventsMax)]
}

// StateRecord returns the registered record for id.
func (t *Table[F]) StateRecord(id StateID) (State[F], bool) {
	if !t.validState(id) {
		return State[F]{}, false
	}
	return t.states[id], true
}

// StateName returns the registered name of id, or a placeholder for sentinels
// and unknown ids.
func (t *Table[F]) StateName(id StateID) string {
	switch {
	case id == StateEmpty:
		return "EMPTY"
	case id == StateInvalid:
		return "INVALID"
	case t == nil || !t.validState(id):
		return strconv.Itoa(int(id))
	}
	return t.states[id].Name
}

func (t *Table[F]) validState(id StateID) bool {
	return id >= 0 && int(id) < t.statesMax
}

func (t *Table[F]) validSignal(sig Signal) bool {
	return sig >= 0 && int(sig) < t.eventsMax
}
