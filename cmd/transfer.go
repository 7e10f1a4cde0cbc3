package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/NgigiN/budget/internal/importer"
	"github.com/NgigiN/budget/internal/mpesa"
	"github.com/NgigiN/budget/internal/report"
	"github.com/google/subcommands"
)

type exportCmd struct {
	period string
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a period and its records as JSON" }
func (*exportCmd) Usage() string    { return "budget export [-period <name>] [-o <file>]\n" }

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Period to export. Defaults to the last used one.")
	f.StringVar(&c.out, "o", "", "Output file. Defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if err := a.selectPeriod(c.period); err != nil {
		return a.fail(ctx, err)
	}
	w := a.out
	if c.out != "" {
		file, err := os.Create(c.out)
		if err != nil {
			return a.fail(ctx, err)
		}
		defer file.Close()
		w = file
	}
	p, _ := a.mgr.Active()
	if err := importer.EncodeJSON(w, p, a.mgr.Records()); err != nil {
		return a.fail(ctx, err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	name string
	done bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "create a period from an exported JSON file" }
func (*importCmd) Usage() string {
	return `budget import [-name <period>] [-done] <file>

  Restores a period written by export, including its income. Rows with an
  unreadable amount or date are skipped and reported.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the new period. Defaults to the name in the file.")
	f.BoolVar(&c.done, "done", false, "Mark every imported record as done.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		return a.usage("import takes exactly one file")
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return a.fail(ctx, err)
	}
	defer file.Close()
	doc, err := importer.DecodeJSON(file)
	if err != nil {
		return a.fail(ctx, err)
	}
	name := c.name
	if name == "" {
		name = doc.Period.Name
	}
	opts, err := doc.ImportOptions()
	if err != nil {
		return a.fail(ctx, err)
	}
	opts.MarkDone = c.done
	res, err := a.mgr.ImportPeriod(name, doc.Records, opts)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.reportImport(name, res)
	return subcommands.ExitSuccess
}

type importMPesaCmd struct {
	name string
	done bool
}

func (*importMPesaCmd) Name() string     { return "import-mpesa" }
func (*importMPesaCmd) Synopsis() string { return "create a period from pasted M-PESA messages" }
func (*importMPesaCmd) Usage() string {
	return `budget import-mpesa -name <period> [-done] [file]

  Reads M-PESA confirmation messages from file or stdin. Lines starting with
  "c:" or "r:" under a message set its category and reason.
`
}

func (c *importMPesaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the new period.")
	f.BoolVar(&c.done, "done", false, "Mark every imported record as done.")
}

func (c *importMPesaCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if c.name == "" || f.NArg() > 1 {
		return a.usage("import-mpesa needs -name and at most one file")
	}
	r := a.in
	if f.NArg() == 1 {
		file, err := os.Open(f.Arg(0))
		if err != nil {
			return a.fail(ctx, err)
		}
		defer file.Close()
		r = file
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return a.fail(ctx, err)
	}

	rows, errs := mpesa.ParseBatch(string(text))
	for _, err := range errs {
		a.printf("Skipped %v\n", err)
	}
	res, err := a.mgr.ImportPeriod(c.name, rows, importer.Options{MarkDone: c.done})
	if err != nil {
		return a.fail(ctx, err)
	}
	a.reportImport(c.name, res)
	return subcommands.ExitSuccess
}

func (a *app) reportImport(name string, res importer.Result) {
	a.printf("Imported %d records into %s (income %s)\n", res.Created, name, report.Amount(res.AmountIn, a.cfg.Currency))
	if res.Warning == nil {
		return
	}
	a.printf("Warning: %s\n", res.Warning)
	for _, s := range res.Warning.Skipped {
		a.printf("  row %d: %s\n", s.Index+1, s.Reason)
	}
}
