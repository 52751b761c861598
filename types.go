package rtcfsm

import (
	"errors"
	"log/slog"
)

// StateID identifies a state. Real states are table indexes in [0, statesMax).
type StateID int

// Signal identifies an event type. Real signals are table indexes in [0, eventsMax).
type Signal int

// Reserved state ids. Both sit outside every table's range, so state 0 is an
// ordinary state.
const (
	// StateInvalid marks malformed input
	StateInvalid StateID = -1
	// StateEmpty means no transition was found
	StateEmpty StateID = -2
)

// IsSentinel reports whether id is one of the reserved state ids.
func (id StateID) IsSentinel() bool {
	return id == StateInvalid || id == StateEmpty
}

// Outcome classifies the result of resolving an event against a table
type Outcome int

const (
	// Resolved carries a real next state
	Resolved Outcome = iota
	// NoTransition means the (state, signal) cell is empty or the handler declined
	NoTransition
	// Invalid means the object, table, state or signal was malformed
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NoTransition:
		return "no_transition"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of ResolveNextState. State is only meaningful
// when Outcome is Resolved.
type Result struct {
	Outcome Outcome
	State   StateID
}

// To returns a Resolved result for s.
func To(s StateID) Result {
	return Result{Outcome: Resolved, State: s}
}

var (
	noTransition  = Result{Outcome: NoTransition, State: StateEmpty}
	invalidResult = Result{Outcome: Invalid, State: StateInvalid}
)

// Errors reported by the transition executor
var (
	ErrInvalidInput = errors.New("invalid fsm input")
	ErrInvalidState = errors.New("invalid next state")
	ErrExitRejected = errors.New("exit hook rejected transition")
	ErrHookFailed   = errors.New("state hook failed")
)

// Logger is the default logger used when none is provided
var Logger = slog.Default()
