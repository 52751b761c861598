package rtcfsm

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

// BasicTransition commits a Resolved result by overwriting the state, with no
// hooks. NoTransition leaves the state alone; Invalid is reported as
// ErrInvalidInput without touching the state.
func BasicTransition[F any](ao *ActiveObject[F], next Result) error {
	if ao == nil {
		return fmt.Errorf("%w: nil object", ErrInvalidInput)
	}
	from := ao.state
	ctx := ao.spanContext()

	switch next.Outcome {
	case Resolved:
		ao.state = next.State
		ao.record(ctx, from, next.State, Resolved, nil, nil)
		return nil
	case NoTransition:
		ao.record(ctx, from, from, NoTransition, nil, nil)
		return nil
	default:
		err := fmt.Errorf("%w: state %d", ErrInvalidInput, from)
		ao.record(ctx, from, StateInvalid, Invalid, err, nil)
		return err
	}
}

// HookedTransition commits a Resolved result through Traverse. Its method
// value is a TransitionFunc.
func (t *Table[F]) HookedTransition(ao *ActiveObject[F], next Result) error {
	if ao == nil {
		return fmt.Errorf("%w: nil object", ErrInvalidInput)
	}
	from := ao.state
	ctx := ao.spanContext()

	switch next.Outcome {
	case Resolved:
		return Traverse(ao, next.State, t)
	case NoTransition:
		ao.record(ctx, from, from, NoTransition, nil, t)
		return nil
	default:
		err := fmt.Errorf("%w: state %s", ErrInvalidInput, t.StateName(from))
		ao.record(ctx, from, StateInvalid, Invalid, err, t)
		return err
	}
}

// Traverse moves ao to next, running the state hooks registered in t.
//
// A self-transition runs only next's OnTraverse. Otherwise the current
// state's OnExit runs first and an error from it leaves the state unchanged.
// After a successful exit the state is committed, then OnEnter and OnTraverse
// of next both run and their errors are joined. Enter and traverse failures
// are reported but not rolled back.
func Traverse[F any](ao *ActiveObject[F], next StateID, t *Table[F]) error {
	if ao == nil || t == nil {
		return fmt.Errorf("%w: nil object or table", ErrInvalidState)
	}
	from := ao.state
	if next.IsSentinel() || !t.validState(next) {
		err := fmt.Errorf("%w: %s", ErrInvalidState, t.StateName(next))
		ao.record(ao.spanContext(), from, next, Invalid, err, t)
		return err
	}

	ctx, span := ao.tracer.Start(ao.spanContext(), spanTraverse, trace.WithAttributes(
		AttrObjectID.Int(ao.id),
		AttrFrom.Int(int(from)),
		AttrTo.Int(int(next)),
	))
	defer span.End()

	err := ao.traverse(from, next, t)
	endSpan(span, To(next), ao.state, err)
	ao.record(ctx, from, next, Resolved, err, t)
	return err
}

func (ao *ActiveObject[F]) traverse(from, next StateID, t *Table[F]) error {
	target := t.states[next]
	c := ao.makeContext(from, next)

	if from == next {
		if err := runHook(target.OnTraverse, c); err != nil {
			return fmt.Errorf("%w: traverse %s: %w", ErrHookFailed, target.Name, err)
		}
		return nil
	}

	if current, ok := t.StateRecord(from); ok {
		ao.logger.Debug("exiting state", "object", ao.id, "state", current.Name)
		if err := runHook(current.OnExit, c); err != nil {
			return fmt.Errorf("%w: exit %s: %w", ErrExitRejected, current.Name, err)
		}
	}

	ao.logger.Debug("entering state", "object", ao.id, "state", target.Name)
	ao.state = next

	enterErr := runHook(target.OnEnter, c)
	if enterErr != nil {
		enterErr = fmt.Errorf("enter %s: %w", target.Name, enterErr)
	}
	traverseErr := runHook(target.OnTraverse, c)
	if traverseErr != nil {
		traverseErr = fmt.Errorf("traverse %s: %w", target.Name, traverseErr)
	}
	if err := errors.Join(enterErr, traverseErr); err != nil {
		return fmt.Errorf("%w: %w", ErrHookFailed, err)
	}
	return nil
}

func isExitRejection(err error) bool {
	return errors.Is(err, ErrExitRejected)
}

func (ao *ActiveObject[F]) record(ctx context.Context, from, to StateID, outcome Outcome, err error, t *Table[F]) {
	rec := TransitionRecord{
		ObjectID: ao.id,
		HasEvent: ao.processing,
		From:     from,
		To:       to,
		FromName: t.StateName(from),
		ToName:   t.StateName(to),
		Outcome:  outcome,
		Err:      err,
	}
	if ao.processing {
		rec.Event = ao.current
	}
	ao.observer.OnTransition(ctx, rec)
}
