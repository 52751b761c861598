// Command rtcdemo runs the example active objects through a superloop.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	_ "modernc.org/sqlite"

	"github.com/librescoot/rtcfsm"
	"github.com/librescoot/rtcfsm/config"
	"github.com/librescoot/rtcfsm/internal/demo"
	"github.com/librescoot/rtcfsm/journal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "rtcdemo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("rtcdemo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "path to a YAML config file")
		scenario   = fs.String("scenario", "", "scenario to run: "+strings.Join(demo.Names(), ", "))
		journalDSN = fs.String("journal", "", "SQLite DSN to journal transitions to (overrides the config)")
		list       = fs.Bool("list", false, "list scenarios and exit")
		dump       = fs.Bool("dump", false, "print the transition journal after the run")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		for _, s := range demo.Scenarios() {
			fmt.Fprintf(stdout, "%-14s %s\n", s.Name, s.Description)
		}
		return nil
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *scenario != "" {
		cfg.Scenario = *scenario
	}
	if *journalDSN != "" {
		cfg.Journal.Driver = config.DriverSQLite
		cfg.Journal.DSN = *journalDSN
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, ok := demo.Lookup(cfg.Scenario)
	if !ok {
		return fmt.Errorf("unknown scenario %q (want one of %s)", cfg.Scenario, strings.Join(demo.Names(), ", "))
	}

	logger := cfg.NewLogger(stderr)
	rtcfsm.Logger = logger

	store, closeStore, err := openStore(cfg.Journal)
	if err != nil {
		return err
	}
	defer closeStore()

	env := demo.Env{
		Out:    stdout,
		Logger: logger,
		Observer: rtcfsm.NewCompositeObserver(
			rtcfsm.NewLoggingObserver(logger),
			journal.NewRecorder(store, journal.WithLogger(logger)),
		),
		QueueCapacity: cfg.Queue.Capacity,
		MaxRounds:     cfg.MaxRounds,
	}
	if err := sc.Run(ctx, env); err != nil {
		return fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	if *dump {
		return dumpJournal(ctx, stdout, store)
	}
	return nil
}

func openStore(cfg config.JournalConfig) (journal.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		// Every pooled connection to :memory: would see its own database
		db.SetMaxOpenConns(1)
		store, err := journal.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case config.DriverMemory:
		return journal.NewMemoryStore(), func() {}, nil
	default:
		return journal.NoopStore{}, func() {}, nil
	}
}

// Object ids used by the demo scenarios
var objectIDs = []int{0, 1, 2}

func dumpJournal(ctx context.Context, w io.Writer, store journal.Store) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT\tSIGNAL\tFROM\tTO\tOUTCOME\tCOMMITTED\tERROR")
	for _, id := range objectIDs {
		entries, err := store.List(ctx, id)
		if err != nil {
			return fmt.Errorf("list journal: %w", err)
		}
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%t\t%s\n", e.ObjectID, e.Signal, e.FromName, e.ToName, e.Outcome, e.Committed, e.Err)
		}
	}
	return tw.Flush()
}
