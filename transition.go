package rtcfsm

// Handler computes the next state for an (object, event) pair. It may update
// ao.Fields but must not change the object's state; returning StateEmpty
// declines the transition.
type Handler[F any] interface {
	Handle(ao *ActiveObject[F], e Event) StateID
}

// HandlerFunc adapts a function to Handler
type HandlerFunc[F any] func(ao *ActiveObject[F], e Event) StateID

// Handle calls f(ao, e).
func (f HandlerFunc[F]) Handle(ao *ActiveObject[F], e Event) StateID {
	return f(ao, e)
}

// Condition decides which branch of a guard is taken
type Condition[F any] func(ao *ActiveObject[F], e Event) bool

// Action runs as a side effect of a transition handler
type Action[F any] func(ao *ActiveObject[F], e Event)

type guard[F any] struct {
	cond    Condition[F]
	onTrue  Handler[F]
	onFalse Handler[F]
}

// Guard returns a handler that delegates to onTrue when cond holds and to
// onFalse otherwise. A nil branch declines the transition.
func Guard[F any](cond Condition[F], onTrue, onFalse Handler[F]) Handler[F] {
	return &guard[F]{cond: cond, onTrue: onTrue, onFalse: onFalse}
}

func (g *guard[F]) Handle(ao *ActiveObject[F], e Event) StateID {
	next := g.onFalse
	if g.cond == nil || g.cond(ao, e) {
		next = g.onTrue
	}
	if next == nil {
		return StateEmpty
	}
	return next.Handle(ao, e)
}

// Target returns a handler that always resolves to s
func Target[F any](s StateID) Handler[F] {
	return HandlerFunc[F](func(*ActiveObject[F], Event) StateID {
		return s
	})
}

// Decline is a handler that never transitions
func Decline[F any]() Handler[F] {
	return Target[F](StateEmpty)
}

// All holds when every condition holds (AND logic)
func All[F any](conds ...Condition[F]) Condition[F] {
	return func(ao *ActiveObject[F], e Event) bool {
		for _, c := range conds {
			if !c(ao, e) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one condition holds
func Any[F any](conds ...Condition[F]) Condition[F] {
	return func(ao *ActiveObject[F], e Event) bool {
		for _, c := range conds {
			if c(ao, e) {
				return true
			}
		}
		return false
	}
}

// Not negates a condition
func Not[F any](cond Condition[F]) Condition[F] {
	return func(ao *ActiveObject[F], e Event) bool {
		return !cond(ao, e)
	}
}

// transitionSpec collects the options of Definition.Transition
type transitionSpec[F any] struct {
	to      StateID
	guard   Condition[F]
	action  Action[F]
	onFalse Handler[F]
}

// TransitionOption is a functional option for configuring a Transition
type TransitionOption[F any] func(*transitionSpec[F])

// WithGuard sets a guard condition for the transition
func WithGuard[F any](fn Condition[F]) TransitionOption[F] {
	return func(t *transitionSpec[F]) {
		t.guard = fn
	}
}

// WithGuards sets multiple guard conditions that must ALL pass (AND logic)
func WithGuards[F any](guards ...Condition[F]) TransitionOption[F] {
	return func(t *transitionSpec[F]) {
		t.guard = All(guards...)
	}
}

// Otherwise sets the handler used when the guard rejects the transition
func Otherwise[F any](h Handler[F]) TransitionOption[F] {
	return func(t *transitionSpec[F]) {
		t.onFalse = h
	}
}

// WithAction sets an action to execute when the transition is taken
func WithAction[F any](fn Action[F]) TransitionOption[F] {
	return func(t *transitionSpec[F]) {
		t.action = fn
	}
}

func (t *transitionSpec[F]) handler() Handler[F] {
	var h Handler[F] = Target[F](t.to)
	if t.action != nil {
		action, to := t.action, t.to
		h = HandlerFunc[F](func(ao *ActiveObject[F], e Event) StateID {
			action(ao, e)
			return to
		})
	}
	if t.guard != nil {
		h = Guard(t.guard, h, t.onFalse)
	}
	return h
}
