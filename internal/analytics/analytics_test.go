package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopulse/internal/analytics"
	"seopulse/internal/daterange"
	"seopulse/internal/provider"
	"seopulse/internal/testsupport"
)

// stubProvider returns a fixed set of day metrics.
type stubProvider struct {
	days []provider.DayMetrics
	err  error
}

func (s *stubProvider) FetchDailyMetrics(ctx context.Context, propertyID string, from, to time.Time) ([]provider.DayMetrics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.days, nil
}

func day(offset int) time.Time {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func testRange() daterange.Range {
	return daterange.Range{From: day(0), To: day(29)}
}

func fixedDays(values ...int) []provider.DayMetrics {
	days := make([]provider.DayMetrics, len(values))
	for i, v := range values {
		days[i] = provider.DayMetrics{
			Date:               day(i),
			ActiveUsers:        v,
			Sessions:           v * 2,
			Pageviews:          v * 3,
			Bounces:            v / 10,
			AvgSessionDuration: float64(30 * (i + 1)),
		}
	}
	return days
}

func TestRefreshSite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	user := testsupport.CreateTestUser(db, "analytics@example.com", "password123")

	t.Run("caches fetched day rows", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Cached", "https://cached.test", "properties/1")
		p := &stubProvider{days: fixedDays(100, 200, 300)}

		result, err := analytics.RefreshSite(context.Background(), db, logger, p, site, testRange())
		require.NoError(t, err)
		assert.True(t, result.Connected)
		assert.Equal(t, 3, result.Refreshed)

		rows, err := analytics.GetDaySeries(db, site.ID, testRange())
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 100, rows[0].ActiveUsers)
		assert.True(t, rows[0].Date.Before(rows[1].Date))
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Idempotent", "https://idempotent.test", "properties/2")
		p := &stubProvider{days: fixedDays(100, 200, 300)}

		_, err := analytics.RefreshSite(context.Background(), db, logger, p, site, testRange())
		require.NoError(t, err)

		// Second run with changed values replaces rows instead of duplicating
		p.days = fixedDays(110, 210, 310)
		_, err = analytics.RefreshSite(context.Background(), db, logger, p, site, testRange())
		require.NoError(t, err)

		rows, err := analytics.GetDaySeries(db, site.ID, testRange())
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 110, rows[0].ActiveUsers)
		assert.Equal(t, 310, rows[2].ActiveUsers)
	})

	t.Run("not connected site is a soft result", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Unconnected", "https://unconnected.test")
		p := &stubProvider{days: fixedDays(100)}

		result, err := analytics.RefreshSite(context.Background(), db, logger, p, site, testRange())
		require.NoError(t, err)
		assert.False(t, result.Connected)
		assert.Zero(t, result.Refreshed)
	})

	t.Run("provider outage falls back to cache", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Outage", "https://outage.test", "properties/3")

		_, err := analytics.RefreshSite(context.Background(), db, logger,
			&stubProvider{days: fixedDays(100, 200)}, site, testRange())
		require.NoError(t, err)

		result, err := analytics.RefreshSite(context.Background(), db, logger,
			&stubProvider{err: errors.New("quota exceeded")}, site, testRange())
		require.NoError(t, err)
		assert.True(t, result.Fallback)

		// Cached rows survived the failed refresh
		rows, err := analytics.GetDaySeries(db, site.ID, testRange())
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestGetTotals(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "totals@example.com", "password123")

	t.Run("sums additive metrics and averages duration", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Totals", "https://totals.test", "properties/10")
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(0), 100, 10, 50, 5, 30)
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(1), 200, 20, 60, 6, 60)
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(2), 300, 30, 70, 7, 90)

		totals, err := analytics.GetTotals(db, site.ID, testRange())
		require.NoError(t, err)

		assert.Equal(t, int64(600), totals.ActiveUsers)
		assert.Equal(t, int64(60), totals.Sessions)
		assert.Equal(t, int64(180), totals.Pageviews)
		assert.Equal(t, int64(18), totals.Bounces)
		assert.InDelta(t, 60.0, totals.AvgSessionDuration, 0.001)
		assert.Equal(t, int64(3), totals.Days)
	})

	t.Run("empty cache yields zero totals without error", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Empty", "https://empty.test")

		totals, err := analytics.GetTotals(db, site.ID, testRange())
		require.NoError(t, err)
		assert.Zero(t, totals.ActiveUsers)
		assert.Zero(t, totals.Days)
	})

	t.Run("range bounds are inclusive", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Bounds", "https://bounds.test")
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(0), 10, 1, 1, 0, 10)
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(29), 20, 2, 2, 0, 20)
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(30), 40, 4, 4, 0, 40)

		totals, err := analytics.GetTotals(db, site.ID, testRange())
		require.NoError(t, err)
		assert.Equal(t, int64(30), totals.ActiveUsers)
		assert.Equal(t, int64(2), totals.Days)
	})
}

func TestGetLatestRow(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "latest@example.com", "password123")

	t.Run("returns most recent day", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "Latest", "https://latest.test")
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(0), 10, 1, 1, 0, 10)
		testsupport.CreateAnalyticsRow(t, db, site.ID, day(5), 50, 5, 5, 0, 50)

		row, err := analytics.GetLatestRow(db, site.ID)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, 50, row.ActiveUsers)
	})

	t.Run("returns nil when site has no rows", func(t *testing.T) {
		site := testsupport.CreateTestSite(t, db, user.ID, "NoRows", "https://norows.test")

		row, err := analytics.GetLatestRow(db, site.ID)
		require.NoError(t, err)
		assert.Nil(t, row)
	})
}

func TestPurgeRowsOlderThan(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "purge@example.com", "password123")
	site := testsupport.CreateTestSite(t, db, user.ID, "Purge", "https://purge.test")

	testsupport.CreateAnalyticsRow(t, db, site.ID, day(0), 10, 1, 1, 0, 10)
	testsupport.CreateAnalyticsRow(t, db, site.ID, day(10), 20, 2, 2, 0, 20)
	testsupport.CreateAnalyticsRow(t, db, site.ID, day(20), 30, 3, 3, 0, 30)

	deleted, err := analytics.PurgeRowsOlderThan(db, day(10), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := analytics.CountRowsForSite(db, site.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGetOverviewForUser(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "overview@example.com", "password123")

	siteA := testsupport.CreateTestSite(t, db, user.ID, "A", "https://a-overview.test", "properties/20")
	siteB := testsupport.CreateTestSite(t, db, user.ID, "B", "https://b-overview.test", "properties/21")
	testsupport.CreateTestSite(t, db, user.ID, "Unconnected", "https://c-overview.test")

	testsupport.CreateAnalyticsRow(t, db, siteA.ID, day(0), 100, 10, 50, 5, 30)
	testsupport.CreateAnalyticsRow(t, db, siteA.ID, day(1), 200, 20, 60, 6, 60)
	testsupport.CreateAnalyticsRow(t, db, siteB.ID, day(0), 40, 4, 20, 2, 15)

	overview, err := analytics.GetOverviewForUser(context.Background(), db, user.ID, testRange())
	require.NoError(t, err)

	// Only connected sites appear
	require.Len(t, overview, 2)

	byURL := make(map[string]analytics.SiteOverview, len(overview))
	for _, entry := range overview {
		byURL[entry.Site.URL] = entry
	}

	a := byURL["https://a-overview.test"]
	require.NotNil(t, a.Latest)
	assert.Equal(t, int64(300), a.Totals.ActiveUsers)
	assert.Equal(t, 200, a.Latest.ActiveUsers)

	b := byURL["https://b-overview.test"]
	assert.Equal(t, int64(40), b.Totals.ActiveUsers)
}

func TestProperties(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	t.Run("add is replace on conflict", func(t *testing.T) {
		p := analytics.Property{PropertyID: "properties/900", PropertyName: "First"}
		require.NoError(t, analytics.AddProperty(db, logger, &p))

		p2 := analytics.Property{PropertyID: "properties/900", PropertyName: "Renamed"}
		require.NoError(t, analytics.AddProperty(db, logger, &p2))

		all, err := analytics.ListProperties(db)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Renamed", all[0].PropertyName)
	})
}
