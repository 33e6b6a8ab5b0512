package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) ClockTime {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		now       string
		canMark   bool
		phase     Phase
		remaining int
	}{
		{"before start", "08:59", false, PhaseUpcoming, 1},
		{"well before start", "08:00", false, PhaseUpcoming, 60},
		{"exactly at start", "09:00", true, PhaseOpen, 10},
		{"mid window", "09:05", true, PhaseOpen, 5},
		{"at window end", "09:10", true, PhaseOpen, 0},
		{"just after window", "09:11", false, PhaseClosed, 0},
		{"long after window", "11:00", false, PhaseClosed, 0},
	}

	start := clock(t, "09:00")
	end := clock(t, "10:30")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(start, end, clock(t, tc.now), 10)
			assert.Equal(t, tc.canMark, d.CanMark)
			assert.Equal(t, tc.phase, d.Phase)
			assert.Equal(t, tc.remaining, d.MinutesRemaining)
		})
	}
}

func TestEvaluateIgnoresScheduledEnd(t *testing.T) {
	// A 5-minute lecture still keeps its full 10-minute window open.
	start := clock(t, "09:00")
	end := clock(t, "09:05")
	d := Evaluate(start, end, clock(t, "09:08"), 10)
	assert.True(t, d.CanMark)
	assert.Equal(t, PhaseOpen, d.Phase)
}

func TestEvaluateCeilsUpcomingMinutes(t *testing.T) {
	start := clock(t, "09:00")
	now := ClockTime(8*time.Hour + 59*time.Minute + 30*time.Second)
	d := Evaluate(start, clock(t, "10:00"), now, 10)
	assert.Equal(t, PhaseUpcoming, d.Phase)
	assert.Equal(t, 1, d.MinutesRemaining)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("bogus")
	assert.Error(t, err)
}

func TestClockTimeJSON(t *testing.T) {
	b, err := json.Marshal(clock(t, "09:05"))
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(b))

	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"14:30"`), &c))
	assert.Equal(t, "14:30", c.String())

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
}

func TestClockOf(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 5, 30, 0, time.UTC)
	assert.Equal(t, ClockTime(9*time.Hour+5*time.Minute+30*time.Second), ClockOf(at))
}
