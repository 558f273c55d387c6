package cms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeThemeWindowNullsEmptyValues(t *testing.T) {
	t.Parallel()

	zero := time.Time{}
	page := &Page{CustomThemeFrom: &zero, CustomThemeTo: nil}

	NormalizeThemeWindow(page)

	assert.Nil(t, page.CustomThemeFrom)
	assert.Nil(t, page.CustomThemeTo)
}

func TestNormalizeThemeWindowTruncatesToDate(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, 5, 1, 15, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	to := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
	page := &Page{CustomThemeFrom: &from, CustomThemeTo: &to}

	NormalizeThemeWindow(page)

	require.NotNil(t, page.CustomThemeFrom)
	require.NotNil(t, page.CustomThemeTo)
	assert.Equal(t, "2024-05-01", page.CustomThemeFrom.Format(ThemeDateLayout))
	assert.Equal(t, "2024-05-31", page.CustomThemeTo.Format(ThemeDateLayout))
	assert.Equal(t, 0, page.CustomThemeFrom.Hour())
	assert.Equal(t, time.UTC, page.CustomThemeFrom.Location())
}

func TestNormalizeThemeWindowNilPage(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { NormalizeThemeWindow(nil) })
}

func TestParseThemeDate(t *testing.T) {
	t.Parallel()

	empty, err := ParseThemeDate("   ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	plain, err := ParseThemeDate("2024-02-29")
	require.NoError(t, err)
	require.NotNil(t, plain)
	assert.Equal(t, "2024-02-29", plain.Format(ThemeDateLayout))

	stamped, err := ParseThemeDate("2024-03-10T08:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, stamped)
	assert.Equal(t, "2024-03-10", stamped.Format(ThemeDateLayout))

	_, err = ParseThemeDate("10/03/2024")
	require.Error(t, err)
}
