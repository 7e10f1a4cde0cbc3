package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NgigiN/budget/internal/config"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type testApp struct {
	*app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "cli.db"), LogLevel: "info", Currency: "EUR"}
	a, err := newApp(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	ta := &testApp{app: a, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	a.out, a.errOut, a.plain = ta.stdout, ta.stderr, true
	return ta
}

// run executes one command line with fresh command values.
func (ta *testApp) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	ta.stdout.Reset()
	ta.stderr.Reset()
	fs := flag.NewFlagSet("budget", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "budget")
	register(commander)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return commander.Execute(context.Background(), ta.app)
}

func (ta *testApp) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if status := ta.run(t, args...); status != subcommands.ExitSuccess {
		t.Fatalf("%v exited %d: %s", args, status, ta.stderr.String())
	}
	return ta.stdout.String()
}

func TestPeriodWorkflow(t *testing.T) {
	ta := newTestApp(t)

	ta.mustRun(t, "create", "Jan", "100")
	ta.mustRun(t, "add", "-label", "groceries", "-amount", "30", "-date", "02/01/2025")
	ta.mustRun(t, "add", "-label", "rent", "-amount", "50,5", "-date", "01/01/2025", "-fixed")
	ta.mustRun(t, "add", "-label", "refund", "-amount", "10", "-credit")

	out := ta.mustRun(t, "show", "-search", "gro")
	if !strings.Contains(out, "groceries") || strings.Contains(out, "| rent") {
		t.Errorf("filtered show:\n%s", out)
	}

	out = ta.mustRun(t, "show", "-sort", "amount_desc")
	if strings.Index(out, "rent") > strings.Index(out, "groceries") {
		t.Errorf("rent should come first:\n%s", out)
	}
	if !strings.Contains(out, "| Remaining | -€70.50 |") {
		t.Errorf("summary missing:\n%s", out)
	}

	ta.mustRun(t, "edit", "-done", "1")
	if records := ta.mgr.Records(); !records[0].Done {
		t.Errorf("record 1 not marked done: %+v", records[0])
	}

	ta.mustRun(t, "rename", "January")
	ta.mustRun(t, "create", "Feb")
	if status := ta.run(t, "rename", "-period", "January", "Feb"); status != subcommands.ExitFailure {
		t.Errorf("rename to an existing name exited %d", status)
	}
	if !strings.Contains(ta.stderr.String(), "already exists") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}

	ta.mustRun(t, "duplicate", "-period", "January", "-reset", "Mar")
	out = ta.mustRun(t, "periods")
	for _, name := range []string{"January", "Feb", "| * | Mar |"} {
		if !strings.Contains(out, name) {
			t.Errorf("periods output missing %q:\n%s", name, out)
		}
	}

	ta.mustRun(t, "remove", "-period", "Mar", "4")
	ta.mustRun(t, "clear", "-period", "Mar")
	ta.mustRun(t, "delete", "Feb")
	if status := ta.run(t, "delete", "Feb"); status != subcommands.ExitFailure {
		t.Errorf("second delete exited %d", status)
	}
}

func TestUsageErrors(t *testing.T) {
	ta := newTestApp(t)
	tests := [][]string{
		{"create"},
		{"create", "", "5"},
		{"create", "Jan", "-5"},
		{"theme", "blue"},
		{"edit", "abc"},
		{"import-mpesa"},
	}
	for _, args := range tests {
		if status := ta.run(t, args...); status != subcommands.ExitUsageError {
			t.Errorf("%v exited %d, want usage error (%s)", args, status, ta.stderr.String())
		}
	}
	if status := ta.run(t, "show"); status != subcommands.ExitFailure {
		t.Errorf("show without periods exited %d", status)
	}
}

func TestExportImport(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "Jan", "250")
	ta.mustRun(t, "add")
	ta.mustRun(t, "add", "-label", "salary", "-amount", "1000", "-credit", "-date", "01/01/2025")
	ta.mustRun(t, "add", "-label", "rent", "-amount", "400", "-date", "02/01/2025")

	path := filepath.Join(t.TempDir(), "jan.json")
	ta.mustRun(t, "export", "-o", path)

	out := ta.mustRun(t, "import", "-name", "Jan again", path)
	if !strings.Contains(out, "Imported 3 records into Jan again (income €250.00)") {
		t.Errorf("import output = %q", out)
	}
	if status := ta.run(t, "import", path); status != subcommands.ExitFailure {
		t.Errorf("importing under an existing name exited %d", status)
	}
}

func TestImportMPesa(t *testing.T) {
	ta := newTestApp(t)
	path := filepath.Join(t.TempDir(), "sms.txt")
	text := strings.Join([]string{
		`TIH5CRR635 Confirmed. Ksh65.00 paid to Mama Mboga. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00.`,
		`c: food`,
		`TJK1AB2CDE Confirmed.You have received Ksh2,500.00 from JANE DOE 0712345678 on 1/10/25 at 9:05 AM New M-PESA balance is Ksh3,079.18.`,
		`XYZ Confirmed. Ksh1.00 sent to nobody`,
	}, "\n")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	out := ta.mustRun(t, "import-mpesa", "-name", "Sep", path)
	if !strings.Contains(out, "Skipped transaction 3") || !strings.Contains(out, "Imported 2 records into Sep") {
		t.Errorf("output = %q", out)
	}
	p, _ := ta.mgr.Active()
	if p.Name != "Sep" || p.AmountIn.String() != "2500" {
		t.Errorf("active = %+v", p)
	}
}

func TestTheme(t *testing.T) {
	ta := newTestApp(t)
	if out := ta.mustRun(t, "theme"); out != "light\n" {
		t.Errorf("default theme = %q", out)
	}
	ta.mustRun(t, "theme", "dark")
	if out := ta.mustRun(t, "theme"); out != "dark\n" {
		t.Errorf("theme = %q", out)
	}
}
