package main

import (
	"context"
	"flag"

	"github.com/NgigiN/budget/internal/ledger"
	"github.com/NgigiN/budget/internal/validation"
	"github.com/google/subcommands"
)

// recordFlags are shared by add and edit.
type recordFlags struct {
	period   string
	label    string
	amount   string
	category string
	date     string
	credit   bool
	done     bool
	borrowed bool
	fixed    bool
}

func (r *recordFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.period, "period", "", "Period to change. Defaults to the last used one.")
	f.StringVar(&r.label, "label", "", "What the money was for.")
	f.StringVar(&r.amount, "amount", "", "Amount, with '.' or ',' as decimal separator.")
	f.StringVar(&r.category, "category", "", "Category, 'Other' when empty.")
	f.StringVar(&r.date, "date", "", "Date as dd/mm/yyyy, today when empty.")
	f.BoolVar(&r.credit, "credit", false, "Money coming in rather than going out.")
	f.BoolVar(&r.done, "done", false, "Already paid.")
	f.BoolVar(&r.borrowed, "borrowed", false, "Borrowed money.")
	f.BoolVar(&r.fixed, "fixed", false, "A fixed, recurring cost.")
}

type addCmd struct {
	recordFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a record to a period" }
func (*addCmd) Usage() string {
	return `budget add [-period <name>] -label <text> -amount <n> [-category <c>] [-date dd/mm/yyyy] [-credit] [-done] [-borrowed] [-fixed]
`
}
func (c *addCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	r, err := a.mgr.AddRecord(validation.RecordInput{
		Label:    c.label,
		Amount:   c.amount,
		Category: c.category,
		Date:     c.date,
		IsCredit: c.credit,
		Done:     c.done,
		Borrowed: c.borrowed,
		Fixed:    c.fixed,
	})
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Added record %d\n", r.ID)
	return subcommands.ExitSuccess
}

type editCmd struct {
	recordFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of a record" }
func (*editCmd) Usage() string {
	return `budget edit [-period <name>] [flags] <id>

  Only the flags given on the command line are changed; use -done=false to clear a flag.
`
}
func (c *editCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("edit takes exactly one record id")
	}
	id, err := parseID(f.Arg(0))
	if err != nil {
		return a.fail(ctx, err)
	}
	fields, err := c.fields(f)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	if _, err := a.mgr.SetRecordFields(id, fields); err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Updated record %d\n", id)
	return subcommands.ExitSuccess
}

// fields collects the flags that were set explicitly.
func (c *editCmd) fields(f *flag.FlagSet) (ledger.Fields, error) {
	var fields ledger.Fields
	var err error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "label":
			fields.Label = &c.label
		case "category":
			fields.Category = &c.category
		case "date":
			fields.Date = &c.date
		case "amount":
			amount, perr := validation.ParseAmount(c.amount)
			if perr != nil {
				err = &validation.ValidationError{Messages: []string{perr.Error()}}
				return
			}
			fields.Amount = &amount
		case "credit":
			fields.IsCredit = &c.credit
		case "done":
			fields.Done = &c.done
		case "borrowed":
			fields.Borrowed = &c.borrowed
		case "fixed":
			fields.Fixed = &c.fixed
		}
	})
	return fields, err
}

type removeCmd struct {
	period string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a record" }
func (*removeCmd) Usage() string    { return "budget remove [-period <name>] <id>\n" }

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to change. Defaults to the last used one.")
}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("remove takes exactly one record id")
	}
	id, err := parseID(f.Arg(0))
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	if err := a.mgr.RemoveRecord(id); err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Removed record %d\n", id)
	return subcommands.ExitSuccess
}

type clearCmd struct {
	period string
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "remove every record of a period" }
func (*clearCmd) Usage() string    { return "budget clear [-period <name>]\n" }

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to clear. Defaults to the last used one.")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	n := len(a.mgr.Records())
	if err := a.mgr.ClearRecords(); err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Removed %d records\n", n)
	return subcommands.ExitSuccess
}
