package provider

import (
	"context"
	"math/rand/v2"
	"time"
)

// sample query pool for the mock search console adapter
var mockQueries = []string{
	"web design perth",
	"seo services",
	"wordpress developer",
	"ecommerce website",
	"google analytics setup",
	"local seo perth",
	"website maintenance",
	"responsive web design",
	"seo audit",
	"content marketing",
	"website redesign",
	"digital marketing",
	"mobile website",
	"woocommerce development",
	"search engine optimization",
	"ux design services",
	"web development perth",
	"logo design",
	"social media marketing",
	"branding agency",
}

// MockProvider generates plausible random metrics. It stands in for the real
// Google Analytics / Search Console clients during development and in tests.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var _ AnalyticsProvider = (*MockProvider)(nil)
var _ SearchConsoleProvider = (*MockProvider)(nil)

// FetchDailyMetrics returns one DayMetrics per day in [from, to].
// An empty property ID means the site was never connected.
func (p *MockProvider) FetchDailyMetrics(ctx context.Context, propertyID string, from, to time.Time) ([]DayMetrics, error) {
	if propertyID == "" {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var days []DayMetrics
	for d := truncateToDay(from); !d.After(truncateToDay(to)); d = d.AddDate(0, 0, 1) {
		days = append(days, DayMetrics{
			Date:               d,
			ActiveUsers:        rand.IntN(500) + 100,
			Sessions:           rand.IntN(800) + 200,
			Pageviews:          rand.IntN(2000) + 500,
			Bounces:            rand.IntN(300) + 50,
			AvgSessionDuration: float64(rand.IntN(180) + 30),
		})
	}
	return days, nil
}

// FetchSearchMetrics returns a day series plus a query breakdown for [from, to].
func (p *MockProvider) FetchSearchMetrics(ctx context.Context, siteURL string, from, to time.Time) (*SearchMetrics, error) {
	if siteURL == "" {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics := &SearchMetrics{}
	for d := truncateToDay(from); !d.After(truncateToDay(to)); d = d.AddDate(0, 0, 1) {
		metrics.Days = append(metrics.Days, SearchDayMetrics{
			Date:        d,
			Clicks:      rand.IntN(100) + 10,
			Impressions: rand.IntN(2000) + 500,
			CTR:         rand.Float64()*5 + 1,
			Position:    rand.Float64()*30 + 5,
		})
	}

	for _, q := range mockQueries {
		impressions := rand.IntN(40000) + 4000
		clicks := impressions * (rand.IntN(5) + 2) / 100
		metrics.Queries = append(metrics.Queries, QueryMetrics{
			Query:       q,
			Clicks:      clicks,
			Impressions: impressions,
			CTR:         float64(clicks) / float64(impressions) * 100,
			Position:    rand.Float64()*30 + 4,
		})
	}

	return metrics, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
