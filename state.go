package rtcfsm

// Hook runs on state entry, exit or traversal. A nil error means success.
type Hook[F any] func(c *Context[F]) error

// State describes a state and its optional hooks
type State[F any] struct {
	ID   StateID
	Name string // For logs and the journal; defaults to the numeric id

	OnEnter    Hook[F] // Runs after the state is committed
	OnTraverse Hook[F] // Runs after OnEnter, and alone on self-transitions
	OnExit     Hook[F] // Runs before leaving; an error vetoes the transition
}

// StateOption is a functional option for configuring a State
type StateOption[F any] func(*State[F])

// WithName sets a human readable name for the state
func WithName[F any](name string) StateOption[F] {
	return func(s *State[F]) {
		s.Name = name
	}
}

// WithOnEnter sets the entry hook for the state
func WithOnEnter[F any](fn Hook[F]) StateOption[F] {
	return func(s *State[F]) {
		s.OnEnter = fn
	}
}

// WithOnTraverse sets the traverse hook for the state
func WithOnTraverse[F any](fn Hook[F]) StateOption[F] {
	return func(s *State[F]) {
		s.OnTraverse = fn
	}
}

// WithOnExit sets the exit hook for the state
func WithOnExit[F any](fn Hook[F]) StateOption[F] {
	return func(s *State[F]) {
		s.OnExit = fn
	}
}

func runHook[F any](hook Hook[F], c *Context[F]) error {
	if hook == nil {
		return nil
	}
	return hook(c)
}
