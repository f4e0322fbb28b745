package searchconsole

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"seopulse/internal/daterange"
	"seopulse/internal/provider"
)

// RefreshResult reports what a refresh run did.
type RefreshResult struct {
	Refreshed int    `json:"refreshed"`
	Connected bool   `json:"connected"`
	Fallback  bool   `json:"fallback"`
	Message   string `json:"message,omitempty"`
}

// RefreshSite fetches search performance from the provider and upserts it
// into the cache: one day-aggregate row per day (query = "") plus one row per
// query stamped on the range end date. Keys are (site_url, date, query), so
// re-running a refresh replaces rows in place.
func RefreshSite(ctx context.Context, db *gorm.DB, logger *slog.Logger, p provider.SearchConsoleProvider, siteURL string, r daterange.Range) (*RefreshResult, error) {
	// The site must be registered before its cache can be populated.
	if _, err := GetSiteByURL(db, siteURL); err != nil {
		return nil, err
	}

	metrics, err := p.FetchSearchMetrics(ctx, siteURL, r.From, r.To)
	if err != nil {
		if errors.Is(err, provider.ErrNotConnected) {
			return &RefreshResult{
				Connected: false,
				Message:   "Site is not connected to search console",
			}, nil
		}
		logger.Warn("Search console provider unavailable, serving cached data",
			slog.String("site_url", siteURL),
			slog.Any("error", err))
		return &RefreshResult{
			Connected: true,
			Fallback:  true,
			Message:   "Search console provider unavailable; serving cached data",
		}, nil
	}

	refreshed, err := upsertSearchRows(db, logger, siteURL, r, metrics)
	if err != nil {
		return nil, err
	}

	logger.Info("Refreshed search console cache",
		slog.String("site_url", siteURL),
		slog.Int("rows", refreshed))

	return &RefreshResult{Refreshed: refreshed, Connected: true}, nil
}

const upsertCacheRowSQL = `
	INSERT INTO searchconsole_cache (site_url, date, query, clicks, impressions, ctr, position, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (site_url, date, query) DO UPDATE SET
		clicks = excluded.clicks,
		impressions = excluded.impressions,
		ctr = excluded.ctr,
		position = excluded.position,
		created_at = excluded.created_at
`

func upsertSearchRows(db *gorm.DB, logger *slog.Logger, siteURL string, r daterange.Range, metrics *provider.SearchMetrics) (int, error) {
	if metrics == nil || (len(metrics.Days) == 0 && len(metrics.Queries) == 0) {
		return 0, nil
	}

	now := time.Now().UTC()
	refreshed := 0
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		for _, day := range metrics.Days {
			err := tx.Exec(upsertCacheRowSQL, siteURL, day.Date.UTC(), "",
				day.Clicks, day.Impressions, day.CTR, day.Position, now).Error
			if err != nil {
				return err
			}
			refreshed++
		}

		// Query breakdowns cover the whole range; stamp them on the range end
		// so a later refresh of the same range replaces them.
		for _, q := range metrics.Queries {
			if q.Query == "" {
				continue
			}
			err := tx.Exec(upsertCacheRowSQL, siteURL, r.To, q.Query,
				q.Clicks, q.Impressions, q.CTR, q.Position, now).Error
			if err != nil {
				return err
			}
			refreshed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return refreshed, nil
}
