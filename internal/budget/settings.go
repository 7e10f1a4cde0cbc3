package budget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Restore loads the period remembered from the last run, falling back to the
// newest period. It reports whether a period was loaded.
func (m *Manager) Restore() (bool, error) {
	last, ok, err := m.store.GetConfig(storage.ConfigLastPeriod)
	if err != nil {
		return false, fmt.Errorf("restore: %w", err)
	}
	if ok && last != "" {
		_, err := m.LoadPeriod(last)
		var nf *storage.NotFoundError
		switch {
		case err == nil:
			return true, nil
		case !errors.As(err, &nf):
			return false, err
		}
		m.log.Info().Str("period", last).Msg("last period no longer exists")
	}

	periods, err := m.store.ListPeriods()
	if err != nil {
		return false, fmt.Errorf("restore: %w", err)
	}
	if len(periods) == 0 {
		return false, nil
	}
	if _, err := m.LoadPeriod(periods[0].Name); err != nil {
		return false, err
	}
	return true, nil
}

// Theme returns the stored display theme, light unless set otherwise.
func (m *Manager) Theme() (string, error) {
	theme, ok, err := m.store.GetConfig(storage.ConfigTheme)
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	if !ok || (theme != ThemeLight && theme != ThemeDark) {
		return ThemeLight, nil
	}
	return theme, nil
}

// SetTheme stores theme, which must be light or dark in any case.
func (m *Manager) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != ThemeLight && theme != ThemeDark {
		return &validation.ValidationError{Messages: []string{"theme must be light or dark"}}
	}
	if err := m.store.SetConfig(storage.ConfigTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
