package demo

import (
	"context"
	"fmt"
	"io"

	"github.com/librescoot/rtcfsm"
)

// Request states
const (
	RequestIdle rtcfsm.StateID = iota
	RequestPending
	RequestRetryWait
	RequestSuccess
	RequestError
	requestStatesMax
)

// Request signals
const (
	SigMakeRequest rtcfsm.Signal = iota
	SigRequestSuccess
	SigRequestError
	SigTimeout
	requestSignalsMax
)

var requestSignals = []string{"MAKE_REQUEST", "SUCCESS", "ERROR", "TIMEOUT"}

// MaxRetries is the retry budget a request object starts with
const MaxRetries = 1

// RequestFields is the request object's extended state
type RequestFields struct {
	RetriesLeft int
}

// NewRequestTable builds the request-with-retry machine. Hooks narrate to out.
//
// PENDING routes ERROR and TIMEOUT through a guard: with retries left the
// request waits for another MAKE_REQUEST, otherwise it lands in ERROR, which
// has no outgoing transitions.
func NewRequestTable(out io.Writer) (*rtcfsm.Table[RequestFields], error) {
	say := func(msg string) rtcfsm.Hook[RequestFields] {
		return func(*rtcfsm.Context[RequestFields]) error {
			_, err := fmt.Fprintln(out, msg)
			return err
		}
	}

	canRetry := func(ao *rtcfsm.ActiveObject[RequestFields], _ rtcfsm.Event) bool {
		return ao.Fields.RetriesLeft > 0
	}
	retry := []rtcfsm.TransitionOption[RequestFields]{
		rtcfsm.WithGuard(canRetry),
		rtcfsm.WithAction(func(ao *rtcfsm.ActiveObject[RequestFields], _ rtcfsm.Event) {
			ao.Fields.RetriesLeft--
		}),
		rtcfsm.Otherwise(rtcfsm.Target[RequestFields](RequestError)),
	}

	return rtcfsm.NewDefinition[RequestFields](int(requestStatesMax), int(requestSignalsMax)).
		State(RequestIdle, rtcfsm.WithName[RequestFields]("NO_REQUEST")).
		State(RequestPending,
			rtcfsm.WithName[RequestFields]("PENDING"),
			rtcfsm.WithOnEnter(say("(fake request)")),
		).
		State(RequestRetryWait,
			rtcfsm.WithName[RequestFields]("RETRY_WAIT"),
			rtcfsm.WithOnEnter(say("Waiting for retry (MAKE_REQUEST) event")),
		).
		State(RequestSuccess,
			rtcfsm.WithName[RequestFields]("SUCCESS"),
			rtcfsm.WithOnEnter(say("Request success occurs")),
		).
		State(RequestError,
			rtcfsm.WithName[RequestFields]("ERROR"),
			rtcfsm.WithOnEnter(say("Request error occurs")),
		).
		Transition(RequestIdle, SigMakeRequest, RequestPending).
		Transition(RequestPending, SigRequestSuccess, RequestSuccess).
		Transition(RequestPending, SigRequestError, RequestRetryWait, retry...).
		Transition(RequestPending, SigTimeout, RequestRetryWait, retry...).
		Transition(RequestRetryWait, SigMakeRequest, RequestPending).
		Build()
}

// RunRequestRetry exhausts the retry budget, then re-initialises the object
// and takes the happy path.
func RunRequestRetry(ctx context.Context, env Env) error {
	table, err := NewRequestTable(env.Out)
	if err != nil {
		return err
	}

	const label = "REQUEST"
	ao := rtcfsm.New(0, RequestIdle, RequestFields{RetriesLeft: MaxRetries}, env.objectOptions()...)
	loop := rtcfsm.NewSuperloop(rtcfsm.WithLoopLogger(env.Logger)).Add(rtcfsm.NewRunner(ao, table))

	env.printf("Starting request with retry FSM\n\n")
	err = drive(ctx, env, loop, ao, table, label, requestSignals,
		rtcfsm.NewEvent(SigMakeRequest),
		rtcfsm.NewEvent(SigRequestError),
		rtcfsm.NewEvent(SigMakeRequest),
		rtcfsm.NewEvent(SigTimeout),
		rtcfsm.NewEvent(SigMakeRequest),
	)
	if err != nil {
		return err
	}

	env.printf("Re-initialising request object\n\n")
	ao.Reset(RequestIdle, RequestFields{RetriesLeft: MaxRetries})
	return drive(ctx, env, loop, ao, table, label, requestSignals,
		rtcfsm.NewEvent(SigMakeRequest),
		rtcfsm.NewEvent(SigRequestSuccess),
	)
}
