// Package demo holds the example state machines run by cmd/rtcdemo.
package demo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/librescoot/rtcfsm"
)

// Env carries what a scenario needs from the command line and config
type Env struct {
	Out           io.Writer
	Logger        *slog.Logger
	Observer      rtcfsm.Observer
	QueueCapacity int
	MaxRounds     int
}

func (env Env) objectOptions() []rtcfsm.Option {
	opts := []rtcfsm.Option{
		rtcfsm.WithLogger(env.Logger),
		rtcfsm.WithObserver(env.Observer),
	}
	if env.QueueCapacity > 0 {
		opts = append(opts, rtcfsm.WithQueueCapacity(env.QueueCapacity))
	}
	return opts
}

func (env Env) printf(format string, args ...any) {
	fmt.Fprintf(env.Out, format, args...)
}

// Scenario is a named, runnable example
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env Env) error
}

var scenarios = []Scenario{
	{
		Name:        "request-retry",
		Description: "request with a bounded retry budget and an ERROR sink state",
		Run:         RunRequestRetry,
	},
	{
		Name:        "blinky",
		Description: "LED toggled by events, committed without hooks",
		Run:         RunBlinky,
	},
	{
		Name:        "elevator",
		Description: "elevator resolved with the engine alone, no event queue",
		Run:         RunElevator,
	},
}

// Scenarios returns every scenario in display order
func Scenarios() []Scenario {
	return slices.Clone(scenarios)
}

// Names returns the scenario names
func Names() []string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names
}

// Lookup finds a scenario by name
func Lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// drive dispatches each event and drains the loop after it, printing the
// object's state after every event.
func drive[F any](ctx context.Context, env Env, loop *rtcfsm.Superloop, ao *rtcfsm.ActiveObject[F], t *rtcfsm.Table[F], label string, signals []string, events ...rtcfsm.Event) error {
	for _, e := range events {
		env.printf("Dispatching %s\n", signalName(signals, e.Signal))
		if !ao.Dispatch(e) {
			env.printf("%s queue full, event dropped\n", label)
			continue
		}
		if _, err := loop.Drain(ctx, env.MaxRounds); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		env.printf("%s state is: %s\n\n", label, t.StateName(ao.State()))
	}
	return nil
}

func signalName(names []string, sig rtcfsm.Signal) string {
	if int(sig) >= 0 && int(sig) < len(names) {
		return names[sig]
	}
	return fmt.Sprintf("signal %d", sig)
}
