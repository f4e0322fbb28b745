package analytics

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"seopulse/internal/daterange"
	"seopulse/internal/provider"
	"seopulse/internal/sites"
)

// RefreshResult reports what a refresh run did.
type RefreshResult struct {
	Refreshed int    `json:"refreshed"`
	Connected bool   `json:"connected"`
	Fallback  bool   `json:"fallback"`
	Message   string `json:"message,omitempty"`
}

// RefreshSite fetches per-day metrics from the provider for the site's
// property and upserts them into the cache, one row per (site_id, date).
// Re-running the same refresh replaces rows in place.
//
// A site without a property is a valid state: the result says "not connected"
// and no error is returned. A failing provider is also not an error at this
// level; the caller keeps serving whatever is already cached.
func RefreshSite(ctx context.Context, db *gorm.DB, logger *slog.Logger, p provider.AnalyticsProvider, site *sites.Site, r daterange.Range) (*RefreshResult, error) {
	if !site.IsConnected() {
		return &RefreshResult{
			Connected: false,
			Message:   "Site is not connected to an analytics property",
		}, nil
	}

	days, err := p.FetchDailyMetrics(ctx, *site.PropertyID, r.From, r.To)
	if err != nil {
		if errors.Is(err, provider.ErrNotConnected) {
			return &RefreshResult{
				Connected: false,
				Message:   "Analytics property is not connected",
			}, nil
		}
		logger.Warn("Analytics provider unavailable, serving cached data",
			slog.Uint64("site_id", uint64(site.ID)),
			slog.Any("error", err))
		return &RefreshResult{
			Connected: true,
			Fallback:  true,
			Message:   "Analytics provider unavailable; serving cached data",
		}, nil
	}

	if err := upsertDayRows(db, logger, site.ID, days); err != nil {
		return nil, err
	}

	logger.Info("Refreshed analytics cache",
		slog.Uint64("site_id", uint64(site.ID)),
		slog.Int("days", len(days)))

	return &RefreshResult{Refreshed: len(days), Connected: true}, nil
}

// upsertDayRows persists the fetched day records with replace-on-conflict
// semantics keyed by (site_id, date).
func upsertDayRows(db *gorm.DB, logger *slog.Logger, siteID uint, days []provider.DayMetrics) error {
	if len(days) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		for _, day := range days {
			query := `
				INSERT INTO analytics_cache (site_id, date, active_users, sessions, pageviews, bounces, avg_session_duration, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (site_id, date) DO UPDATE SET
					active_users = excluded.active_users,
					sessions = excluded.sessions,
					pageviews = excluded.pageviews,
					bounces = excluded.bounces,
					avg_session_duration = excluded.avg_session_duration,
					created_at = excluded.created_at
			`
			err := tx.Exec(query, siteID, day.Date.UTC(), day.ActiveUsers, day.Sessions,
				day.Pageviews, day.Bounces, day.AvgSessionDuration, now).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
