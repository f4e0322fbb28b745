// Package analytics owns the analytics cache table and the aggregation
// queries over it. Rows are produced by the refresh engine (refresh.go) and
// consumed read-only by the report endpoints.
package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"seopulse/internal/daterange"
)

// CacheRow is one day of analytics metrics for a site. Uniqueness on
// (site_id, date) is what makes refresh idempotent: re-running a refresh
// replaces a day's row, it never duplicates it.
type CacheRow struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID             uint      `gorm:"not null;uniqueIndex:idx_analytics_cache_site_date;index:idx_analytics_cache_site" json:"site_id"`
	Date               time.Time `gorm:"not null;uniqueIndex:idx_analytics_cache_site_date;index:idx_analytics_cache_date" json:"date"`
	ActiveUsers        int       `gorm:"default:0" json:"active_users"`
	Sessions           int       `gorm:"default:0" json:"sessions"`
	Pageviews          int       `gorm:"default:0" json:"pageviews"`
	Bounces            int       `gorm:"default:0" json:"bounces"`
	AvgSessionDuration float64   `gorm:"default:0" json:"avg_session_duration"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CacheRow) TableName() string {
	return "analytics_cache"
}

// Totals is the rollup over a set of cached day rows. Additive metrics are
// column-wise sums; avg_session_duration is the arithmetic mean across days.
type Totals struct {
	ActiveUsers        int64   `json:"active_users"`
	Sessions           int64   `json:"sessions"`
	Pageviews          int64   `json:"pageviews"`
	Bounces            int64   `json:"bounces"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	Days               int64   `json:"days"`
}

// GetDaySeries retrieves the cached day rows for a site within the range,
// oldest first.
func GetDaySeries(db *gorm.DB, siteID uint, r daterange.Range) ([]CacheRow, error) {
	var rows []CacheRow
	err := db.Where("site_id = ? AND date BETWEEN ? AND ?", siteID, r.From, r.To).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics day series: %w", err)
	}
	return rows, nil
}

// GetTotals computes the rollup for a site over the range. A site with zero
// cached rows yields zero totals, not an error.
func GetTotals(db *gorm.DB, siteID uint, r daterange.Range) (Totals, error) {
	var totals Totals

	query := `
    SELECT
        COALESCE(SUM(active_users), 0) as active_users,
        COALESCE(SUM(sessions), 0) as sessions,
        COALESCE(SUM(pageviews), 0) as pageviews,
        COALESCE(SUM(bounces), 0) as bounces,
        COALESCE(AVG(avg_session_duration), 0) as avg_session_duration,
        COUNT(*) as days
    FROM analytics_cache
    WHERE site_id = ?
    AND date BETWEEN ? AND ?
    `

	err := db.Raw(query, siteID, r.From, r.To).Scan(&totals).Error
	if err != nil {
		return Totals{}, fmt.Errorf("failed to compute analytics totals: %w", err)
	}

	return totals, nil
}

// GetLatestRow retrieves the most recent cached day row for a site.
// Returns nil when the site has no cached rows yet.
func GetLatestRow(db *gorm.DB, siteID uint) (*CacheRow, error) {
	var row CacheRow
	err := db.Where("site_id = ?", siteID).Order("date DESC").First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analytics row: %w", err)
	}
	return &row, nil
}

// CountRowsForSite returns the number of cached day rows for a site.
func CountRowsForSite(db *gorm.DB, siteID uint) (int64, error) {
	var count int64
	if err := db.Model(&CacheRow{}).Where("site_id = ?", siteID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count analytics rows: %w", err)
	}
	return count, nil
}

// PurgeRowsOlderThan deletes cache rows with a date before the cutoff,
// in batches to avoid holding the write lock for long. Returns the number of
// rows deleted.
func PurgeRowsOlderThan(db *gorm.DB, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	totalDeleted := int64(0)
	for {
		result := db.Where("date < ?", cutoff).Limit(batchSize).Delete(&CacheRow{})
		if result.Error != nil {
			return totalDeleted, result.Error
		}
		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(batchSize) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	return totalDeleted, nil
}
