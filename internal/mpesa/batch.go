package mpesa

import (
	"fmt"
	"strings"

	"github.com/NgigiN/budget/internal/importer"
)

// Entry is one confirmation text plus the metadata lines written under it.
type Entry struct {
	Message  string
	Metadata []string
}

func isConfirmation(line string) bool {
	return strings.Contains(line, "Confirmed.") && (strings.Contains(line, "sent to") ||
		strings.Contains(line, "paid to") || strings.Contains(line, "received"))
}

func isMetadata(line string) bool {
	for _, p := range []string{"c:", "Category:", "r:", "Reason:"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Split breaks pasted text into entries. Every confirmation line starts a new
// entry; metadata lines attach to the entry above them and anything else is
// ignored.
func Split(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case isConfirmation(line):
			entries = append(entries, Entry{Message: line})
		case len(entries) > 0 && isMetadata(line):
			last := &entries[len(entries)-1]
			last.Metadata = append(last.Metadata, line)
		}
	}
	return entries
}

// ParseMetadata reads "c:"/"Category:" and "r:"/"Reason:" lines.
func ParseMetadata(lines []string) (category, reason string) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, p := range []string{"Category:", "c:"} {
			if v, ok := strings.CutPrefix(line, p); ok {
				category = strings.TrimSpace(v)
			}
		}
		for _, p := range []string{"Reason:", "r:"} {
			if v, ok := strings.CutPrefix(line, p); ok {
				reason = strings.TrimSpace(v)
			}
		}
	}
	return category, reason
}

// ParseBatch converts pasted text into import rows. Entries that fail to
// parse are reported by position and left out.
func ParseBatch(text string) ([]importer.Row, []error) {
	var rows []importer.Row
	var errs []error
	for i, e := range Split(text) {
		tx, err := ParseMessage(e.Message)
		if err != nil {
			errs = append(errs, fmt.Errorf("transaction %d: %w", i+1, err))
			continue
		}
		category, reason := ParseMetadata(e.Metadata)
		rows = append(rows, tx.Row(category, reason))
	}
	return rows, errs
}
