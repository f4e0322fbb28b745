// Package provider defines the contracts the refresh engines expect from an
// external analytics or search-ranking data source. The shipped implementation
// is a mock generator; a real Google adapter can be substituted without
// touching the engines.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned when a provider identifier does not resolve to a
// connected upstream property. Callers treat it as a valid "not connected"
// state, not a failure.
var ErrNotConnected = errors.New("provider not connected")

// DayMetrics is a single day of traffic metrics for an analytics property.
type DayMetrics struct {
	Date               time.Time
	ActiveUsers        int
	Sessions           int
	Pageviews          int
	Bounces            int
	AvgSessionDuration float64
}

// SearchDayMetrics is a single day of search performance for a site URL,
// aggregated across all queries.
type SearchDayMetrics struct {
	Date        time.Time
	Clicks      int
	Impressions int
	CTR         float64
	Position    float64
}

// QueryMetrics is the per-query performance over the requested range.
type QueryMetrics struct {
	Query       string
	Clicks      int
	Impressions int
	CTR         float64
	Position    float64
}

// SearchMetrics bundles the day series with the query breakdown.
type SearchMetrics struct {
	Days    []SearchDayMetrics
	Queries []QueryMetrics
}

// AnalyticsProvider fetches per-day traffic metrics for an analytics property.
// Implementations return ErrNotConnected when the property is unknown to the
// upstream account.
type AnalyticsProvider interface {
	FetchDailyMetrics(ctx context.Context, propertyID string, from, to time.Time) ([]DayMetrics, error)
}

// SearchConsoleProvider fetches per-day and per-query search performance for a
// registered site URL.
type SearchConsoleProvider interface {
	FetchSearchMetrics(ctx context.Context, siteURL string, from, to time.Time) (*SearchMetrics, error)
}
