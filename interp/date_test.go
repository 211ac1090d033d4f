package interp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeDateRollsForward preserves the source behavior spec.md §9
// flags: a nonexistent date silently converts to the next valid date
// (Feb 30 in a common year lands on Mar 2).
func TestNormalizeDateRollsForward(t *testing.T) {
	y, m, d, err := NormalizeDate(2021, time.February, 30, false)
	require.NoError(t, err)
	assert.Equal(t, 2021, y)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 2, d)

	// Leap year: Feb 30 is only one day past the end.
	y, m, d, err = NormalizeDate(2020, time.February, 30, false)
	require.NoError(t, err)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 1, d)
}

// TestNormalizeDateStrictSurfacesError is the implementer choice spec.md
// §9 invites ("implementers may choose to surface an error instead"),
// selected by the strict-dates option.
func TestNormalizeDateStrictSurfacesError(t *testing.T) {
	_, _, _, err := NormalizeDate(2021, time.February, 30, true)
	require.Error(t, err)
	assert.Equal(t, "invalid-date", err.(*RebolError).ID)

	y, m, d, err := NormalizeDate(2021, time.February, 28, true)
	require.NoError(t, err)
	assert.Equal(t, 2021, y)
	assert.Equal(t, time.February, m)
	assert.Equal(t, 28, d)
}

func TestMakeDateHonorsLenientDefault(t *testing.T) {
	interp := New(Options{})
	c, err := interp.MakeDate(2021, time.February, 30, 0, 0)
	require.NoError(t, err)

	y, m, d, ns, zone := DateParts(c)
	assert.Equal(t, 2021, y)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 2, d)
	assert.Zero(t, ns)
	assert.Zero(t, zone)
}

func TestDateArithmetic(t *testing.T) {
	newYear := Date(2023, time.December, 31, 0, 0)
	next := AddDays(newYear, 1)
	y, m, d, _, _ := DateParts(next)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.January, m)
	assert.Equal(t, 1, d)

	assert.Equal(t, int64(1), DiffDays(next, newYear))
	assert.Equal(t, int64(-1), DiffDays(newYear, next))
}
