package rtcfsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Stepper processes at most one unit of work per call
type Stepper interface {
	Step(ctx context.Context) (bool, error)
}

// Runner binds an active object to its event handler and transition so a
// Superloop can step it.
type Runner[F any] struct {
	ao         *ActiveObject[F]
	handler    EventHandler[F]
	transition TransitionFunc[F]
	onEmpty    IdleFunc[F]
}

// RunnerOption is a functional option for configuring a Runner
type RunnerOption[F any] func(*Runner[F])

// WithBasic commits transitions with BasicTransition, skipping state hooks
func WithBasic[F any]() RunnerOption[F] {
	return func(r *Runner[F]) {
		r.transition = BasicTransition[F]
	}
}

// WithTransition sets a custom transition function
func WithTransition[F any](fn TransitionFunc[F]) RunnerOption[F] {
	return func(r *Runner[F]) {
		r.transition = fn
	}
}

// WithEventHandler replaces the table lookup with a custom handler
func WithEventHandler[F any](fn EventHandler[F]) RunnerOption[F] {
	return func(r *Runner[F]) {
		r.handler = fn
	}
}

// WithIdle sets the callback run when the object's queue is empty
func WithIdle[F any](fn IdleFunc[F]) RunnerOption[F] {
	return func(r *Runner[F]) {
		r.onEmpty = fn
	}
}

// NewRunner creates a Runner resolving events against t and committing them
// with t.HookedTransition unless options say otherwise.
func NewRunner[F any](ao *ActiveObject[F], t *Table[F], opts ...RunnerOption[F]) *Runner[F] {
	r := &Runner[F]{ao: ao}
	if t != nil {
		r.handler = t.Resolve
		r.transition = t.HookedTransition
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Object returns the stepped object
func (r *Runner[F]) Object() *ActiveObject[F] {
	return r.ao
}

// Step runs one ProcessQueue call on the object.
func (r *Runner[F]) Step(ctx context.Context) (bool, error) {
	if r.ao == nil {
		return false, fmt.Errorf("%w: nil object", ErrInvalidInput)
	}
	return r.ao.ProcessQueue(ctx, r.handler, r.transition, r.onEmpty)
}

// DefaultIdleWait is how long Run waits after a round with no work when no
// idle function is set.
const DefaultIdleWait = time.Millisecond

// Superloop steps its members round robin on the calling goroutine.
// It is not safe for concurrent use; Add steppers before running.
type Superloop struct {
	steppers []Stepper
	idle     func(ctx context.Context)
	logger   *slog.Logger
}

// SuperloopOption is a functional option for configuring a Superloop
type SuperloopOption func(*Superloop)

// WithIdleFunc sets the function Run calls after a round with no work
func WithIdleFunc(fn func(ctx context.Context)) SuperloopOption {
	return func(s *Superloop) {
		s.idle = fn
	}
}

// WithLoopLogger sets the logger Run reports step errors to
func WithLoopLogger(logger *slog.Logger) SuperloopOption {
	return func(s *Superloop) {
		s.logger = logger
	}
}

// NewSuperloop creates an empty superloop
func NewSuperloop(opts ...SuperloopOption) *Superloop {
	s := &Superloop{
		idle:   waitIdle,
		logger: Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idle == nil {
		s.idle = waitIdle
	}
	if s.logger == nil {
		s.logger = Logger
	}
	return s
}

// Add appends steppers to the round
func (s *Superloop) Add(steppers ...Stepper) *Superloop {
	for _, st := range steppers {
		if st != nil {
			s.steppers = append(s.steppers, st)
		}
	}
	return s
}

// Len returns the number of steppers
func (s *Superloop) Len() int {
	return len(s.steppers)
}

// RunOnce steps every member once and returns how many processed an event.
// Step errors do not stop the round; they are joined.
func (s *Superloop) RunOnce(ctx context.Context) (int, error) {
	var (
		processed int
		errs      []error
	)
	for i, st := range s.steppers {
		ok, err := st.Step(ctx)
		if ok {
			processed++
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("stepper %d: %w", i, err))
		}
	}
	return processed, errors.Join(errs...)
}

// Drain runs rounds until one processes nothing, ctx is done or maxRounds
// rounds have run. maxRounds < 1 means no limit. It returns the number of
// events processed and the joined step errors.
func (s *Superloop) Drain(ctx context.Context, maxRounds int) (int, error) {
	var (
		total int
		errs  []error
	)
	for round := 0; maxRounds < 1 || round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := s.RunOnce(ctx)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
		if n == 0 {
			break
		}
	}
	return total, errors.Join(errs...)
}

// Run steps the members until ctx is done and returns ctx.Err(). Step errors
// are logged and do not stop the loop.
func (s *Superloop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.RunOnce(ctx)
		if err != nil {
			s.logger.Warn("superloop step failed", "error", err)
		}
		if n == 0 {
			s.idle(ctx)
		}
	}
}

func waitIdle(ctx context.Context) {
	timer := time.NewTimer(DefaultIdleWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
