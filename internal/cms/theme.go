package cms

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ThemeDateLayout is the canonical representation of theme window boundaries.
const ThemeDateLayout = "2006-01-02"

// NormalizeThemeWindow rewrites both theme window boundaries: unset values become nil,
// everything else is truncated to a UTC calendar date.
func NormalizeThemeWindow(page *Page) {
	if page == nil {
		return
	}

	page.CustomThemeFrom = normalizeThemeDate(page.CustomThemeFrom)
	page.CustomThemeTo = normalizeThemeDate(page.CustomThemeTo)
}

func normalizeThemeDate(value *time.Time) *time.Time {
	if value == nil || value.IsZero() {
		return nil
	}

	utc := value.UTC()
	date := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}

// ParseThemeDate converts form input into a theme window boundary. Blank input yields nil.
func ParseThemeDate(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	for _, layout := range []string{ThemeDateLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return normalizeThemeDate(&parsed), nil
		}
	}

	return nil, eris.Errorf("invalid theme date: %s", trimmed)
}
