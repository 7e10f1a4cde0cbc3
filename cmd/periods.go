package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/NgigiN/budget/internal/ledger"
	"github.com/NgigiN/budget/internal/report"
	"github.com/NgigiN/budget/internal/storage"
	"github.com/google/subcommands"
)

type periodsCmd struct{}

func (*periodsCmd) Name() string             { return "periods" }
func (*periodsCmd) Synopsis() string         { return "list budget periods, newest first" }
func (*periodsCmd) Usage() string            { return "budget periods\n" }
func (*periodsCmd) SetFlags(f *flag.FlagSet) {}

func (*periodsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	periods, err := a.mgr.Periods()
	if err != nil {
		return a.fail(ctx, err)
	}
	last, _, err := a.db.GetConfig(storage.ConfigLastPeriod)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := a.show(report.PeriodsMarkdown(periods, last, a.cfg.Currency)); err != nil {
		return a.fail(ctx, err)
	}
	return subcommands.ExitSuccess
}

type createCmd struct{}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a period and make it active" }
func (*createCmd) Usage() string {
	return `budget create <name> [income]

  Creates an empty period. Income accepts '.' or ',' as decimal separator.
`
}
func (*createCmd) SetFlags(f *flag.FlagSet) {}

func (*createCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() < 1 || f.NArg() > 2 {
		return a.usage("create takes a name and an optional income")
	}
	p, err := a.mgr.CreatePeriod(f.Arg(0), f.Arg(1))
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Created period %s with income %s\n", p.Name, report.Amount(p.AmountIn, a.cfg.Currency))
	return subcommands.ExitSuccess
}

type showCmd struct {
	period string
	search string
	sort   string
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the records and totals of a period" }
func (*showCmd) Usage() string {
	return `budget show [-period <name>] [-search <text>] [-sort <key>]

  Displays a period. Without -period the last used period is shown.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to show. Defaults to the last used one.")
	f.StringVar(&c.search, "search", "", "Only show records whose label contains this text.")
	f.StringVar(&c.sort, "sort", "", fmt.Sprintf("Sort key, one of %v.", ledger.SortKeys()))
}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	if c.search != "" {
		a.mgr.SetSearchTerm(c.search)
	}
	if c.sort != "" {
		if err := a.mgr.SetSortKey(c.sort); err != nil {
			return a.fail(ctx, err)
		}
	}
	p, _ := a.mgr.Active()
	md := report.PeriodMarkdown(p, a.mgr.View(), a.mgr.ViewSummary(), a.cfg.Currency)
	if err := a.show(md); err != nil {
		return a.fail(ctx, err)
	}
	return subcommands.ExitSuccess
}

type renameCmd struct {
	period string
}

func (*renameCmd) Name() string     { return "rename" }
func (*renameCmd) Synopsis() string { return "rename a period" }
func (*renameCmd) Usage() string    { return "budget rename [-period <name>] <new name>\n" }

func (c *renameCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to rename. Defaults to the last used one.")
}

func (c *renameCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("rename takes exactly one new name")
	}
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	if err := a.mgr.RenamePeriod(f.Arg(0)); err != nil {
		return a.fail(ctx, err)
	}
	p, _ := a.mgr.Active()
	a.printf("Renamed period to %s\n", p.Name)
	return subcommands.ExitSuccess
}

type deleteCmd struct{}

func (*deleteCmd) Name() string             { return "delete" }
func (*deleteCmd) Synopsis() string         { return "delete a period and all its records" }
func (*deleteCmd) Usage() string            { return "budget delete <name>\n" }
func (*deleteCmd) SetFlags(f *flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("delete takes exactly one period name")
	}
	if err := a.mgr.DeletePeriod(f.Arg(0)); err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Deleted period %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

type duplicateCmd struct {
	period string
	reset  bool
}

func (*duplicateCmd) Name() string     { return "duplicate" }
func (*duplicateCmd) Synopsis() string { return "copy a period with all its records" }
func (*duplicateCmd) Usage() string {
	return `budget duplicate [-period <name>] [-reset] <new name>

  Copies a period and its records in one step; nothing is written if any part fails.
`
}

func (c *duplicateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to copy. Defaults to the last used one.")
	f.BoolVar(&c.reset, "reset", false, "Clear the done and borrowed flags on the copies.")
}

func (c *duplicateCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("duplicate takes exactly one new name")
	}
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	res, err := a.mgr.DuplicatePeriod(f.Arg(0), c.reset)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Copied %d records into %s\n", res.Copied, res.Name)
	return subcommands.ExitSuccess
}

type setIncomeCmd struct {
	period string
}

func (*setIncomeCmd) Name() string     { return "set-income" }
func (*setIncomeCmd) Synopsis() string { return "change the income of a period" }
func (*setIncomeCmd) Usage() string    { return "budget set-income [-period <name>] <amount>\n" }

func (c *setIncomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to change. Defaults to the last used one.")
}

func (c *setIncomeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("set-income takes exactly one amount")
	}
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	if err := a.mgr.SetAmountIn(f.Arg(0)); err != nil {
		return a.fail(ctx, err)
	}
	p, _ := a.mgr.Active()
	a.printf("Income of %s set to %s\n", p.Name, report.Amount(p.AmountIn, a.cfg.Currency))
	return subcommands.ExitSuccess
}

type themeCmd struct{}

func (*themeCmd) Name() string             { return "theme" }
func (*themeCmd) Synopsis() string         { return "show or set the display theme" }
func (*themeCmd) Usage() string            { return "budget theme [light|dark]\n" }
func (*themeCmd) SetFlags(f *flag.FlagSet) {}

func (*themeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	switch f.NArg() {
	case 0:
		theme, err := a.mgr.Theme()
		if err != nil {
			return a.fail(ctx, err)
		}
		a.printf("%s\n", theme)
	case 1:
		if err := a.mgr.SetTheme(f.Arg(0)); err != nil {
			return a.fail(ctx, err)
		}
		a.printf("Theme set to %s\n", f.Arg(0))
	default:
		return a.usage("theme takes at most one argument")
	}
	return subcommands.ExitSuccess
}
