package wallclock

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptedFormats(t *testing.T) {
	want := Date(2025, time.January, 15, 14, 30, 0)

	for _, s := range []string{
		"2025-01-15 14:30:00",
		"2025-01-15T14:30:00",
		"2025-01-15T14:30:00Z",
		"2025-01-15 14:30",
		"2025-01-15T14:30",
		"2025-01-15T14:30:00+02:00",
	} {
		got, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("15/01/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized timestamp")
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-30")
	require.NoError(t, err)
	assert.Equal(t, Date(2025, time.March, 30, 0, 0, 0), got)

	_, err = ParseDate("2025-13-01")
	assert.Error(t, err)
}

func TestArithmeticIgnoresDST(t *testing.T) {
	// 2025-03-30 is a DST switch day in Europe; wall-clock math must stay 24h.
	start := Date(2025, time.March, 30, 0, 0, 0)
	end := Date(2025, time.March, 31, 0, 0, 0)
	assert.Equal(t, Day, end.Sub(start))
}

func TestFromTime_KeepsWallClockFields(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	tm := time.Date(2025, time.January, 15, 9, 0, 0, 0, loc)
	assert.Equal(t, "2025-01-15 09:00:00", FromTime(tm).String())
}

func TestStartOfDay(t *testing.T) {
	i := Date(2025, time.January, 15, 23, 59, 59)
	assert.Equal(t, Date(2025, time.January, 15, 0, 0, 0), i.StartOfDay())
	assert.Equal(t, "2025-01-16", i.StartOfDay().AddDays(1).FormatDate())
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		At Instant `json:"at"`
	}
	data, err := json.Marshal(wrapper{At: Date(2025, time.January, 15, 9, 25, 0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2025-01-15 09:25:00"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2025-01-15T09:25:00"}`), &w))
	assert.Equal(t, Date(2025, time.January, 15, 9, 25, 0), w.At)
}
