package demo

import (
	"context"

	"github.com/librescoot/rtcfsm"
)

// Blinky states
const (
	BlinkyInit rtcfsm.StateID = iota
	BlinkyOn
	BlinkyOff
	blinkyStatesMax
)

// Blinky signals
const (
	SigBlinkyInit rtcfsm.Signal = iota
	SigLEDOn
	SigLEDOff
	blinkySignalsMax
)

var blinkySignals = []string{"INIT", "LED_ON", "LED_OFF"}

// BlinkyFields counts how often the LED was switched on
type BlinkyFields struct {
	SwitchedOn int
}

// NewBlinkyTable builds the blinky machine. It has no hooks, so it is
// committed with BasicTransition.
func NewBlinkyTable() (*rtcfsm.Table[BlinkyFields], error) {
	switchOn := rtcfsm.WithAction(func(ao *rtcfsm.ActiveObject[BlinkyFields], _ rtcfsm.Event) {
		ao.Fields.SwitchedOn++
	})

	return rtcfsm.NewDefinition[BlinkyFields](int(blinkyStatesMax), int(blinkySignalsMax)).
		State(BlinkyInit, rtcfsm.WithName[BlinkyFields]("INIT")).
		State(BlinkyOn, rtcfsm.WithName[BlinkyFields]("LED_ON")).
		State(BlinkyOff, rtcfsm.WithName[BlinkyFields]("LED_OFF")).
		Transition(BlinkyInit, SigBlinkyInit, BlinkyInit).
		Transition(BlinkyInit, SigLEDOn, BlinkyOn, switchOn).
		Transition(BlinkyOn, SigLEDOff, BlinkyOff).
		Transition(BlinkyOff, SigLEDOn, BlinkyOn, switchOn).
		Build()
}

// RunBlinky switches the LED on twice in a row, then off.
func RunBlinky(ctx context.Context, env Env) error {
	table, err := NewBlinkyTable()
	if err != nil {
		return err
	}

	ao := rtcfsm.New(1, BlinkyInit, BlinkyFields{}, env.objectOptions()...)
	loop := rtcfsm.NewSuperloop(rtcfsm.WithLoopLogger(env.Logger)).
		Add(rtcfsm.NewRunner(ao, table, rtcfsm.WithBasic[BlinkyFields]()))

	env.printf("Starting blinky FSM\n\n")
	if err := drive(ctx, env, loop, ao, table, "BLINKY", blinkySignals,
		rtcfsm.NewEvent(SigBlinkyInit),
		rtcfsm.NewEvent(SigLEDOn),
		rtcfsm.NewEvent(SigLEDOn),
		rtcfsm.NewEvent(SigLEDOff),
	); err != nil {
		return err
	}
	env.printf("LED switched on %d time(s)\n", ao.Fields.SwitchedOn)
	return nil
}
