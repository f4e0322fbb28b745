package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopulse/internal/daterange"
)

// fixedClock pins "now" for deterministic parsing.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestParse(t *testing.T) {
	// Mid-afternoon to prove truncation to midnight
	now := time.Date(2026, 8, 28, 15, 42, 7, 0, time.UTC)
	parser := daterange.NewParser(fixedClock{now: now})
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startDate string
		endDate   string
		wantFrom  time.Time
		wantTo    time.Time
		wantErr   bool
	}{
		{
			name:     "empty defaults to trailing 30 day window",
			wantFrom: today.AddDate(0, 0, -29),
			wantTo:   today,
		},
		{
			name:      "explicit dates",
			startDate: "2026-08-01",
			endDate:   "2026-08-15",
			wantFrom:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "relative forms",
			startDate: "7daysAgo",
			endDate:   "today",
			wantFrom:  today.AddDate(0, 0, -7),
			wantTo:    today,
		},
		{
			name:      "zero days ago is today",
			startDate: "0daysAgo",
			endDate:   "today",
			wantFrom:  today,
			wantTo:    today,
		},
		{
			name:      "swapped bounds are normalized",
			startDate: "2026-08-15",
			endDate:   "2026-08-01",
			wantFrom:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "malformed date",
			startDate: "08/01/2026",
			wantErr:   true,
		},
		{
			name:      "malformed relative date",
			startDate: "manydaysAgo",
			wantErr:   true,
		},
		{
			name:      "negative relative date",
			startDate: "-3daysAgo",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parser.Parse(tt.startDate, tt.endDate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, r.From.Equal(tt.wantFrom), "from = %v, want %v", r.From, tt.wantFrom)
			assert.True(t, r.To.Equal(tt.wantTo), "to = %v, want %v", r.To, tt.wantTo)
		})
	}
}

func TestRangeDays(t *testing.T) {
	r := daterange.Range{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 30, r.Days())

	single := daterange.Range{From: r.From, To: r.From}
	assert.Equal(t, 1, single.Days())
}
