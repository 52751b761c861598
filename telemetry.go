package rtcfsm

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/librescoot/rtcfsm"

	spanProcessQueue = "rtcfsm.ProcessQueue"
	spanTraverse     = "rtcfsm.Traverse"
)

// Attribute keys set on spans
const (
	AttrObjectID = attribute.Key("rtcfsm.object.id")
	AttrSignal   = attribute.Key("rtcfsm.event.signal")
	AttrEventID  = attribute.Key("rtcfsm.event.id")
	AttrFrom     = attribute.Key("rtcfsm.state.from")
	AttrTo       = attribute.Key("rtcfsm.state.to")
	AttrOutcome  = attribute.Key("rtcfsm.outcome")
)

// defaultTracer resolves through the global provider, which is a no-op until
// the application installs one.
func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func eventAttributes(objectID int, state StateID, e Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrObjectID.Int(objectID),
		AttrSignal.Int(int(e.Signal)),
		AttrEventID.String(e.ID.String()),
		AttrFrom.Int(int(state)),
	}
}

func endSpan(span trace.Span, next Result, state StateID, err error) {
	span.SetAttributes(
		AttrOutcome.String(next.Outcome.String()),
		AttrTo.Int(int(state)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
