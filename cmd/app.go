package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/NgigiN/budget/internal/budget"
	"github.com/NgigiN/budget/internal/config"
	"github.com/NgigiN/budget/internal/events"
	"github.com/NgigiN/budget/internal/logger"
	"github.com/NgigiN/budget/internal/report"
	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// app is what every command works on; it is passed through
// Commander.Execute.
type app struct {
	cfg *config.Config
	db  *storage.Database
	bus *events.Bus
	mgr *budget.Manager

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	// plain skips terminal styling and prints raw markdown.
	plain bool
}

func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	db, err := storage.NewDatabase(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}
	bus := events.NewBus(log)
	return &app{
		cfg:    cfg,
		db:     db,
		bus:    bus,
		mgr:    budget.NewManager(db, bus, log),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		fmt.Fprintf(a.errOut, "Error closing database: %v\n", err)
	}
}

func appFrom(args []interface{}) *app {
	return args[0].(*app)
}

// selectPeriod loads the named period, or the one from the last run when
// name is empty.
func (a *app) selectPeriod(name string) error {
	if name != "" {
		_, err := a.mgr.LoadPeriod(name)
		return err
	}
	ok, err := a.mgr.Restore()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no periods yet, create one first")
	}
	return nil
}

func (a *app) show(md string) error {
	if a.plain {
		_, err := io.WriteString(a.out, md)
		return err
	}
	theme, err := a.mgr.Theme()
	if err != nil {
		return err
	}
	out, err := report.Render(md, theme)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, out)
	return err
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail reports err and picks the exit status: bad input is a usage error.
func (a *app) fail(ctx context.Context, err error) subcommands.ExitStatus {
	l := logger.FromContext(ctx)
	l.Debug().Err(err).Msg("command failed")
	fmt.Fprintf(a.errOut, "Error: %v\n", err)
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func (a *app) usage(msg string) subcommands.ExitStatus {
	fmt.Fprintf(a.errOut, "Error: %s\n", msg)
	return subcommands.ExitUsageError
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, &validation.ValidationError{Messages: []string{fmt.Sprintf("invalid record id %q", s)}}
	}
	return uint(id), nil
}

// register adds every command to c.
func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&periodsCmd{}, "periods")
	c.Register(&createCmd{}, "periods")
	c.Register(&showCmd{}, "periods")
	c.Register(&renameCmd{}, "periods")
	c.Register(&deleteCmd{}, "periods")
	c.Register(&duplicateCmd{}, "periods")
	c.Register(&setIncomeCmd{}, "periods")

	c.Register(&addCmd{}, "records")
	c.Register(&editCmd{}, "records")
	c.Register(&removeCmd{}, "records")
	c.Register(&clearCmd{}, "records")

	c.Register(&exportCmd{}, "transfer")
	c.Register(&importCmd{}, "transfer")
	c.Register(&importMPesaCmd{}, "transfer")

	c.Register(&themeCmd{}, "settings")
}
