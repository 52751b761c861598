package demo

import (
	"context"
	"fmt"

	"github.com/librescoot/rtcfsm"
)

// Elevator states
const (
	ElevatorIdle rtcfsm.StateID = iota
	ElevatorMovingUp
	ElevatorMovingDown
	elevatorStatesMax
)

// Elevator signals. Button events carry the target floor as an int payload.
const (
	SigButtonUp rtcfsm.Signal = iota
	SigButtonDown
	SigArrived
	elevatorSignalsMax
)

// ElevatorFields tracks the car's floors
type ElevatorFields struct {
	CurrentFloor int
	TargetFloor  int
}

func handleIdle(ao *rtcfsm.ActiveObject[ElevatorFields], e rtcfsm.Event) rtcfsm.StateID {
	target, ok := e.Payload.(int)
	if !ok || target == ao.Fields.CurrentFloor {
		return rtcfsm.StateEmpty
	}
	ao.Fields.TargetFloor = target
	if target > ao.Fields.CurrentFloor {
		return ElevatorMovingUp
	}
	return ElevatorMovingDown
}

func handleArrived(ao *rtcfsm.ActiveObject[ElevatorFields], _ rtcfsm.Event) rtcfsm.StateID {
	ao.Fields.CurrentFloor = ao.Fields.TargetFloor
	return ElevatorIdle
}

// NewElevatorTable builds the elevator machine. Buttons pressed while moving
// keep the car moving.
func NewElevatorTable() (*rtcfsm.Table[ElevatorFields], error) {
	idle := rtcfsm.HandlerFunc[ElevatorFields](handleIdle)
	arrived := rtcfsm.HandlerFunc[ElevatorFields](handleArrived)

	return rtcfsm.NewDefinition[ElevatorFields](int(elevatorStatesMax), int(elevatorSignalsMax)).
		State(ElevatorIdle, rtcfsm.WithName[ElevatorFields]("IDLE")).
		State(ElevatorMovingUp, rtcfsm.WithName[ElevatorFields]("MOVING_UP")).
		State(ElevatorMovingDown, rtcfsm.WithName[ElevatorFields]("MOVING_DOWN")).
		Handle(ElevatorIdle, SigButtonUp, idle).
		Handle(ElevatorIdle, SigButtonDown, idle).
		Transition(ElevatorMovingUp, SigButtonUp, ElevatorMovingUp).
		Transition(ElevatorMovingUp, SigButtonDown, ElevatorMovingUp).
		Handle(ElevatorMovingUp, SigArrived, arrived).
		Transition(ElevatorMovingDown, SigButtonUp, ElevatorMovingDown).
		Transition(ElevatorMovingDown, SigButtonDown, ElevatorMovingDown).
		Handle(ElevatorMovingDown, SigArrived, arrived).
		Build()
}

// RunElevator resolves events with the engine and commits them directly,
// without queueing them.
func RunElevator(_ context.Context, env Env) error {
	table, err := NewElevatorTable()
	if err != nil {
		return err
	}

	car := rtcfsm.New(2, ElevatorIdle, ElevatorFields{}, env.objectOptions()...)
	env.printf("Elevator state: %s\n", table.StateName(car.State()))

	steps := []struct {
		msg   string
		event rtcfsm.Event
	}{
		{"Pressing UP button, target floor 3", rtcfsm.NewEvent(SigButtonUp, 3)},
		{"Pressing DOWN button while moving", rtcfsm.NewEvent(SigButtonDown, 1)},
		{"Arrived", rtcfsm.NewEvent(SigArrived)},
		{"Pressing DOWN button, target floor 0", rtcfsm.NewEvent(SigButtonDown, 0)},
		{"Arrived", rtcfsm.NewEvent(SigArrived)},
	}
	for _, step := range steps {
		env.printf("%s\n", step.msg)
		if err := rtcfsm.BasicTransition(car, table.Resolve(car, step.event)); err != nil {
			return fmt.Errorf("elevator: %w", err)
		}
		env.printf("Elevator state: %s, floor %d\n", table.StateName(car.State()), car.Fields.CurrentFloor)
	}
	return nil
}
