// Package report formats periods and records for people: currency amounts
// via go-money and markdown rendered to the terminal with glamour.
package report

import (
	"fmt"
	"strings"

	"github.com/NgigiN/budget/internal/ledger"
	"github.com/NgigiN/budget/internal/storage"
	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
)

// Amount formats d in currency, e.g. "€1,234.50". Unknown currencies fall
// back to the plain decimal with the code appended.
func Amount(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return d.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(d.Mul(factor).Round(0).IntPart(), currency).Display()
}

func mark(b bool) string {
	if b {
		return "x"
	}
	return " "
}

// escape keeps user text from breaking a markdown table row.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// PeriodMarkdown renders a period header, its records and the summary.
func PeriodMarkdown(p storage.Period, records []storage.Record, s ledger.Summary, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(p.Name))
	fmt.Fprintf(&b, "Income: **%s**\n\n", Amount(p.AmountIn, currency))

	if len(records) == 0 {
		b.WriteString("_No records._\n\n")
	} else {
		b.WriteString("| ID | Date | Label | Category | Amount | Type | Done | Borrowed | Fixed |\n")
		b.WriteString("|---:|---|---|---|---:|---|:-:|:-:|:-:|\n")
		for _, r := range records {
			kind := "debit"
			if r.IsCredit {
				kind = "credit"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				r.ID, r.Date, escape(r.Label), escape(r.Category), Amount(r.Amount, currency), kind,
				mark(r.Done), mark(r.Borrowed), mark(r.Fixed))
		}
		b.WriteString("\n")
	}

	b.WriteString(SummaryMarkdown(s, currency))
	return b.String()
}

// SummaryMarkdown renders summary figures as a two-column table.
func SummaryMarkdown(s ledger.Summary, currency string) string {
	var b strings.Builder
	b.WriteString("## Summary\n\n| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Records | %d |\n", s.Count)
	for _, row := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"Total debit", s.TotalDebit},
		{"Total credit", s.TotalCredit},
		{"Done", s.DoneDebit},
		{"Pending", s.PendingDebit},
		{"Borrowed", s.Borrowed},
		{"Fixed", s.FixedDebit},
		{"Remaining", s.Remaining},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", row.name, Amount(row.v, currency))
	}
	return b.String()
}

// PeriodsMarkdown renders the period list, marking the active one.
func PeriodsMarkdown(periods []storage.Period, active string, currency string) string {
	if len(periods) == 0 {
		return "_No periods yet._\n"
	}
	var b strings.Builder
	b.WriteString("| | Period | Income | Created |\n|---|---|---:|---|\n")
	for _, p := range periods {
		marker := ""
		if p.Name == active {
			marker = "*"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", marker, escape(p.Name), Amount(p.AmountIn, currency),
			p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// Render turns markdown into styled terminal output. theme is a glamour
// standard style name such as "light" or "dark".
func Render(md, theme string) (string, error) {
	out, err := glamour.Render(md, theme)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
