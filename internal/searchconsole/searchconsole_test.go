package searchconsole_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopulse/internal/daterange"
	"seopulse/internal/provider"
	"seopulse/internal/searchconsole"
	"seopulse/internal/testsupport"
)

// stubProvider returns fixed search metrics.
type stubProvider struct {
	metrics *provider.SearchMetrics
	err     error
}

func (s *stubProvider) FetchSearchMetrics(ctx context.Context, siteURL string, from, to time.Time) (*provider.SearchMetrics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.metrics, nil
}

func day(offset int) time.Time {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func testRange() daterange.Range {
	return daterange.Range{From: day(0), To: day(29)}
}

func sampleMetrics() *provider.SearchMetrics {
	return &provider.SearchMetrics{
		Days: []provider.SearchDayMetrics{
			{Date: day(0), Clicks: 10, Impressions: 100, CTR: 0.1, Position: 12},
			{Date: day(1), Clicks: 20, Impressions: 200, CTR: 0.1, Position: 10},
		},
		Queries: []provider.QueryMetrics{
			{Query: "buy widgets", Clicks: 15, Impressions: 120, CTR: 0.125, Position: 8},
			{Query: "widget reviews", Clicks: 5, Impressions: 90, CTR: 0.055, Position: 14},
		},
	}
}

func TestSiteRegistry(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	t.Run("add registers a site", func(t *testing.T) {
		site, err := searchconsole.AddSite(db, logger, "https://registry.test", "")
		require.NoError(t, err)
		assert.Equal(t, "https://registry.test", site.SiteURL)
		assert.Equal(t, "siteOwner", site.PermissionLevel)
	})

	t.Run("add is replace on conflict", func(t *testing.T) {
		first, err := searchconsole.AddSite(db, logger, "https://dup-registry.test", "siteOwner")
		require.NoError(t, err)

		second, err := searchconsole.AddSite(db, logger, "https://dup-registry.test", "siteFullUser")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "siteFullUser", second.PermissionLevel)

		all, err := searchconsole.ListSites(db)
		require.NoError(t, err)
		for _, s := range all {
			if s.SiteURL == "https://dup-registry.test" {
				assert.Equal(t, "siteFullUser", s.PermissionLevel)
			}
		}
	})

	t.Run("rejects empty url", func(t *testing.T) {
		_, err := searchconsole.AddSite(db, logger, "   ", "")
		assert.Error(t, err)
	})

	t.Run("list is ordered by url", func(t *testing.T) {
		_, err := searchconsole.AddSite(db, logger, "https://zzz.test", "")
		require.NoError(t, err)
		_, err = searchconsole.AddSite(db, logger, "https://aaa.test", "")
		require.NoError(t, err)

		all, err := searchconsole.ListSites(db)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(all), 2)
		for i := 1; i < len(all); i++ {
			assert.LessOrEqual(t, all[i-1].SiteURL, all[i].SiteURL)
		}
	})

	t.Run("lookup of unknown url is a typed not found", func(t *testing.T) {
		_, err := searchconsole.GetSiteByURL(db, "https://unknown.test")

		var notFound *searchconsole.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestRemoveSite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	t.Run("removes registry entry and cached rows", func(t *testing.T) {
		siteURL := "https://remove.test"
		_, err := searchconsole.AddSite(db, logger, siteURL, "")
		require.NoError(t, err)
		testsupport.CreateSearchConsoleRow(t, db, siteURL, day(0), "", 10, 100, 0.1, 12)
		testsupport.CreateSearchConsoleRow(t, db, siteURL, day(0), "some query", 5, 40, 0.125, 9)

		require.NoError(t, searchconsole.RemoveSite(db, logger, siteURL))

		_, err = searchconsole.GetSiteByURL(db, siteURL)
		var notFound *searchconsole.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)

		rows, err := searchconsole.GetDaySeries(db, siteURL, testRange())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("unknown site is not found", func(t *testing.T) {
		err := searchconsole.RemoveSite(db, logger, "https://never-added.test")

		var notFound *searchconsole.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestRefreshSite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	t.Run("caches day aggregates and query rows", func(t *testing.T) {
		siteURL := "https://refresh.test"
		_, err := searchconsole.AddSite(db, logger, siteURL, "")
		require.NoError(t, err)

		result, err := searchconsole.RefreshSite(context.Background(), db, logger,
			&stubProvider{metrics: sampleMetrics()}, siteURL, testRange())
		require.NoError(t, err)
		assert.True(t, result.Connected)
		assert.Equal(t, 4, result.Refreshed)

		// Day series only returns the aggregate rows
		days, err := searchconsole.GetDaySeries(db, siteURL, testRange())
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, "", days[0].Query)
		assert.Equal(t, 10, days[0].Clicks)
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		siteURL := "https://idempotent.test"
		_, err := searchconsole.AddSite(db, logger, siteURL, "")
		require.NoError(t, err)

		_, err = searchconsole.RefreshSite(context.Background(), db, logger,
			&stubProvider{metrics: sampleMetrics()}, siteURL, testRange())
		require.NoError(t, err)

		// Second run with updated values replaces rows in place
		updated := sampleMetrics()
		updated.Days[0].Clicks = 11
		updated.Queries[0].Clicks = 16
		_, err = searchconsole.RefreshSite(context.Background(), db, logger,
			&stubProvider{metrics: updated}, siteURL, testRange())
		require.NoError(t, err)

		days, err := searchconsole.GetDaySeries(db, siteURL, testRange())
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, 11, days[0].Clicks)

		queries, err := searchconsole.TopQueries(db, siteURL, testRange(), 10)
		require.NoError(t, err)
		require.Len(t, queries, 2)
		assert.Equal(t, "buy widgets", queries[0].Query)
		assert.Equal(t, int64(16), queries[0].Clicks)
	})

	t.Run("unregistered site is an error", func(t *testing.T) {
		_, err := searchconsole.RefreshSite(context.Background(), db, logger,
			&stubProvider{metrics: sampleMetrics()}, "https://unregistered.test", testRange())

		var notFound *searchconsole.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("provider outage falls back to cache", func(t *testing.T) {
		siteURL := "https://outage.test"
		_, err := searchconsole.AddSite(db, logger, siteURL, "")
		require.NoError(t, err)

		_, err = searchconsole.RefreshSite(context.Background(), db, logger,
			&stubProvider{metrics: sampleMetrics()}, siteURL, testRange())
		require.NoError(t, err)

		result, err := searchconsole.RefreshSite(context.Background(), db, logger,
			&stubProvider{err: errors.New("quota exceeded")}, siteURL, testRange())
		require.NoError(t, err)
		assert.True(t, result.Fallback)

		days, err := searchconsole.GetDaySeries(db, siteURL, testRange())
		require.NoError(t, err)
		assert.Len(t, days, 2)
	})
}

func TestTopQueries(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	siteURL := "https://queries.test"

	testsupport.CreateSearchConsoleRow(t, db, siteURL, day(0), "", 100, 1000, 0.1, 10)
	testsupport.CreateSearchConsoleRow(t, db, siteURL, day(5), "popular query", 50, 400, 0.125, 5)
	testsupport.CreateSearchConsoleRow(t, db, siteURL, day(5), "quiet query", 2, 80, 0.025, 30)

	t.Run("sorted by clicks and excludes day aggregates", func(t *testing.T) {
		stats, err := searchconsole.TopQueries(db, siteURL, testRange(), 10)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "popular query", stats[0].Query)
		assert.Equal(t, "quiet query", stats[1].Query)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		stats, err := searchconsole.TopQueries(db, siteURL, testRange(), 1)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "popular query", stats[0].Query)
	})
}

func TestGetTotals(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	siteURL := "https://totals.test"

	t.Run("sums clicks and averages position over day aggregates", func(t *testing.T) {
		testsupport.CreateSearchConsoleRow(t, db, siteURL, day(0), "", 10, 100, 0.10, 12)
		testsupport.CreateSearchConsoleRow(t, db, siteURL, day(1), "", 30, 200, 0.15, 8)
		// Query row must not leak into the day rollup
		testsupport.CreateSearchConsoleRow(t, db, siteURL, day(1), "ignored query", 500, 5000, 0.1, 1)

		totals, err := searchconsole.GetTotals(db, siteURL, testRange())
		require.NoError(t, err)
		assert.Equal(t, int64(40), totals.Clicks)
		assert.Equal(t, int64(300), totals.Impressions)
		assert.InDelta(t, 0.125, totals.CTR, 0.001)
		assert.InDelta(t, 10.0, totals.Position, 0.001)
		assert.Equal(t, int64(2), totals.Days)
	})

	t.Run("empty cache yields zero totals", func(t *testing.T) {
		totals, err := searchconsole.GetTotals(db, "https://empty.test", testRange())
		require.NoError(t, err)
		assert.Zero(t, totals.Clicks)
		assert.Zero(t, totals.Days)
	})
}

func TestPurgeRowsOlderThan(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	siteURL := "https://purge.test"

	testsupport.CreateSearchConsoleRow(t, db, siteURL, day(0), "", 10, 100, 0.1, 10)
	testsupport.CreateSearchConsoleRow(t, db, siteURL, day(10), "", 20, 200, 0.1, 10)
	testsupport.CreateSearchConsoleRow(t, db, siteURL, day(20), "", 30, 300, 0.1, 10)

	deleted, err := searchconsole.PurgeRowsOlderThan(db, day(10), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, err := searchconsole.GetDaySeries(db, siteURL, testRange())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAvgPositionForSiteURL(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	t.Run("averages rows stored with a trailing slash", func(t *testing.T) {
		testsupport.CreateSearchConsoleRow(t, db, "https://avg.test/", day(0), "", 10, 100, 0.1, 10)
		testsupport.CreateSearchConsoleRow(t, db, "https://avg.test/", day(1), "", 10, 100, 0.1, 20)

		position, err := searchconsole.AvgPositionForSiteURL(db, "https://avg.test")
		require.NoError(t, err)
		assert.InDelta(t, 15.0, position, 0.001)
	})

	t.Run("no cached rows yields zero", func(t *testing.T) {
		position, err := searchconsole.AvgPositionForSiteURL(db, "https://no-rows.test")
		require.NoError(t, err)
		assert.Zero(t, position)
	})

	t.Run("wildcard characters in the URL match literally", func(t *testing.T) {
		// An underscore in one site's host must not pull in another site's rows.
		testsupport.CreateSearchConsoleRow(t, db, "https://my_site.test/", day(0), "", 10, 100, 0.1, 5)
		testsupport.CreateSearchConsoleRow(t, db, "https://myxsite.test/", day(0), "", 10, 100, 0.1, 45)

		position, err := searchconsole.AvgPositionForSiteURL(db, "https://my_site.test")
		require.NoError(t, err)
		assert.InDelta(t, 5.0, position, 0.001)

		position, err = searchconsole.AvgPositionForSiteURL(db, "https://myxsite.test")
		require.NoError(t, err)
		assert.InDelta(t, 45.0, position, 0.001)
	})
}
