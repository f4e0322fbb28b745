// Package daterange parses the date-range parameters accepted by the metric
// endpoints. Alongside plain YYYY-MM-DD dates it understands the relative
// forms used by the Google reporting APIs ("today", "NdaysAgo"), which the
// frontend sends by default.
package daterange

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindowDays is the range used when the caller supplies no dates.
const DefaultWindowDays = 30

// TimeProvider abstracts the clock for deterministic tests.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

func (DefaultTimeProvider) Now() time.Time { return time.Now().UTC() }

// Range is a closed day interval in UTC. From and To are truncated to
// midnight.
type Range struct {
	From time.Time
	To   time.Time
}

// Days returns the number of days covered by the range, inclusive.
func (r Range) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

// Parser resolves start/end date strings into a Range.
type Parser struct {
	timeProvider TimeProvider
}

// NewParser creates a parser. A custom TimeProvider may be supplied for tests.
func NewParser(timeProvider ...TimeProvider) *Parser {
	var provider TimeProvider = DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}
	return &Parser{timeProvider: provider}
}

// Parse resolves the supplied start/end strings. Empty strings default to the
// trailing DefaultWindowDays window ending today. The parsed range is
// normalized so From never falls after To.
func (p *Parser) Parse(startDate, endDate string) (Range, error) {
	today := truncateToDay(p.timeProvider.Now())

	from, err := p.parseOne(startDate, today.AddDate(0, 0, -(DefaultWindowDays-1)), today)
	if err != nil {
		return Range{}, fmt.Errorf("invalid startDate: %w", err)
	}

	to, err := p.parseOne(endDate, today, today)
	if err != nil {
		return Range{}, fmt.Errorf("invalid endDate: %w", err)
	}

	if from.After(to) {
		from, to = to, from
	}

	return Range{From: from, To: to}, nil
}

func (p *Parser) parseOne(value string, defaultDate, today time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultDate, nil
	}

	if value == "today" {
		return today, nil
	}

	if strings.HasSuffix(value, "daysAgo") {
		n, err := strconv.Atoi(strings.TrimSuffix(value, "daysAgo"))
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("malformed relative date %q", value)
		}
		return today.AddDate(0, 0, -n), nil
	}

	date, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, \"today\" or \"NdaysAgo\": %w", err)
	}
	return date, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
