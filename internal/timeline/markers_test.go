package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string) Range {
	t.Helper()
	r, err := ResolveRange(start, end)
	require.NoError(t, err)
	return r
}

func labels(markers []Marker) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.Label)
	}
	return out
}

func assertInRange(t *testing.T, markers []Marker) {
	t.Helper()
	for _, m := range markers {
		assert.GreaterOrEqual(t, m.Position, 0.0, m.Label)
		assert.LessOrEqual(t, m.Position, 1.0, m.Label)
	}
	for i := 1; i < len(markers); i++ {
		assert.Greater(t, markers[i].Position, markers[i-1].Position)
	}
}

func TestMarkers_Hourly(t *testing.T) {
	r := mustRange(t, "2025-01-15", "2025-01-15")
	assert.Equal(t, GranularityHourly, GranularityFor(r))

	markers := Markers(r)
	require.Len(t, markers, 25)
	assert.Equal(t, "00:00", markers[0].Label)
	assert.Equal(t, 0.0, markers[0].Position)
	assert.Equal(t, "12:00", markers[12].Label)
	assert.InDelta(t, 43200.0/86399.0, markers[12].Position, 1e-9)
	assert.Equal(t, "23:00", markers[23].Label)
	assert.Equal(t, "23:59", markers[24].Label)
	assert.Equal(t, 1.0, markers[24].Position)
	assertInRange(t, markers)
}

func TestMarkers_Daily(t *testing.T) {
	r := mustRange(t, "2025-01-13", "2025-01-19")
	assert.Equal(t, GranularityDaily, GranularityFor(r))

	markers := Markers(r)
	assert.Equal(t, []string{"Mon 13/1", "Tue 14/1", "Wed 15/1", "Thu 16/1", "Fri 17/1", "Sat 18/1", "Sun 19/1"}, labels(markers))
	assertInRange(t, markers)

	two := Markers(mustRange(t, "2025-01-31", "2025-02-01"))
	assert.Equal(t, []string{"Fri 31/1", "Sat 1/2"}, labels(two))
}

func TestMarkers_Spread(t *testing.T) {
	r := mustRange(t, "2025-01-01", "2025-01-31")
	assert.Equal(t, GranularitySpread, GranularityFor(r))

	markers := Markers(r)
	assert.Equal(t, []string{"1/1", "5/1", "9/1", "13/1", "17/1", "21/1", "25/1", "29/1"}, labels(markers))
	assertInRange(t, markers)

	eight := Markers(mustRange(t, "2025-01-01", "2025-01-08"))
	assert.Len(t, eight, 8)

	for days := 8; days <= 31; days++ {
		end := mustRange(t, "2025-03-01", "2025-03-01").Start.AddDays(days - 1).FormatDate()
		m := Markers(mustRange(t, "2025-03-01", end))
		assert.LessOrEqual(t, len(m), maxSpreadMarkers, "days=%d", days)
		assertInRange(t, m)
	}
}

func TestMarkers_Weekly(t *testing.T) {
	r := mustRange(t, "2025-01-01", "2025-02-14")
	assert.Equal(t, 45, r.Days())
	assert.Equal(t, GranularityWeekly, GranularityFor(r))

	markers := Markers(r)
	assert.Equal(t, []string{"1/1", "8/1", "15/1", "22/1", "29/1", "5/2", "12/2"}, labels(markers))
	assertInRange(t, markers)
}

func TestMarkers_Monthly(t *testing.T) {
	r := mustRange(t, "2025-01-15", "2025-06-30")
	assert.Equal(t, GranularityMonthly, GranularityFor(r))

	markers := Markers(r)
	assert.Equal(t, []string{"1 Feb", "1 Mar", "1 Apr", "1 May", "1 Jun"}, labels(markers))
	assertInRange(t, markers)

	fromFirst := Markers(mustRange(t, "2025-01-01", "2025-04-30"))
	require.NotEmpty(t, fromFirst)
	assert.Equal(t, "1 Jan", fromFirst[0].Label)
	assert.Equal(t, 0.0, fromFirst[0].Position)
}

func TestMarkers_GranularityBoundaries(t *testing.T) {
	cases := []struct {
		start, end string
		want       Granularity
	}{
		{"2025-01-01", "2025-01-01", GranularityHourly},
		{"2025-01-01", "2025-01-02", GranularityDaily},
		{"2025-01-01", "2025-01-07", GranularityDaily},
		{"2025-01-01", "2025-01-08", GranularitySpread},
		{"2025-01-01", "2025-01-31", GranularitySpread},
		{"2025-01-01", "2025-02-01", GranularityWeekly},
		{"2025-01-01", "2025-03-03", GranularityWeekly},
		{"2025-01-01", "2025-03-04", GranularityMonthly},
	}
	for _, tc := range cases {
		t.Run(tc.start+"_"+tc.end, func(t *testing.T) {
			assert.Equal(t, tc.want, GranularityFor(mustRange(t, tc.start, tc.end)))
		})
	}
}
