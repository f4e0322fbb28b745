// Package searchconsole owns the search console site registry and the search
// performance cache. The registry is keyed by site URL only - deliberately
// not foreign-keyed to the sites table, mirroring how the upstream API
// exposes verified properties independently of any dashboard site.
package searchconsole

import (
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"seopulse/internal/daterange"
)

// Site is an entry in the search console site registry.
type Site struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteURL         string    `gorm:"unique;not null" json:"site_url"`
	PermissionLevel string    `gorm:"default:'siteOwner'" json:"permission_level"`
	AddedAt         time.Time `json:"added_at"`
}

// TableName specifies the table name for GORM
func (Site) TableName() string {
	return "searchconsole_sites"
}

// CacheRow is one cached search performance row. Query is "" for the
// day-aggregate row and non-empty for per-query rows. The empty string is
// used instead of NULL on purpose: SQLite treats NULLs as distinct in unique
// indexes, which would break replace-on-conflict for the aggregate row.
type CacheRow struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteURL     string    `gorm:"not null;uniqueIndex:idx_searchcache_key;index:idx_searchcache_site" json:"site_url"`
	Date        time.Time `gorm:"not null;uniqueIndex:idx_searchcache_key;index:idx_searchcache_date" json:"date"`
	Query       string    `gorm:"not null;default:'';uniqueIndex:idx_searchcache_key" json:"query"`
	Clicks      int       `gorm:"default:0" json:"clicks"`
	Impressions int       `gorm:"default:0" json:"impressions"`
	CTR         float64   `gorm:"default:0" json:"ctr"`
	Position    float64   `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CacheRow) TableName() string {
	return "searchconsole_cache"
}

// SiteNotFoundError represents an error when a site URL is not registered.
type SiteNotFoundError struct {
	SiteURL string
}

func (e *SiteNotFoundError) Error() string {
	return fmt.Sprintf("search console site not found: %s", e.SiteURL)
}

// NewSiteNotFoundError creates a new SiteNotFoundError
func NewSiteNotFoundError(siteURL string) *SiteNotFoundError {
	return &SiteNotFoundError{SiteURL: siteURL}
}

// ListSites retrieves all registered search console sites ordered by URL.
func ListSites(db *gorm.DB) ([]Site, error) {
	var result []Site
	if err := db.Order("site_url").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list search console sites: %w", err)
	}
	return result, nil
}

// GetSiteByURL retrieves a registry entry by exact site URL.
func GetSiteByURL(db *gorm.DB, siteURL string) (*Site, error) {
	var site Site
	if err := db.Where("site_url = ?", siteURL).First(&site).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewSiteNotFoundError(siteURL)
		}
		return nil, fmt.Errorf("unexpected error querying search console site: %w", err)
	}
	return &site, nil
}

// AddSite registers a site URL, replacing the permission level when the URL
// is already registered.
func AddSite(db *gorm.DB, logger *slog.Logger, siteURL, permissionLevel string) (*Site, error) {
	siteURL = strings.TrimSpace(siteURL)
	if siteURL == "" {
		return nil, fmt.Errorf("site URL is required")
	}
	if permissionLevel == "" {
		permissionLevel = "siteOwner"
	}

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO searchconsole_sites (site_url, permission_level, added_at)
            VALUES (?, ?, ?)
            ON CONFLICT(site_url) DO UPDATE SET
                permission_level = excluded.permission_level
        `, siteURL, permissionLevel, time.Now().UTC()).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add search console site: %w", err)
	}

	return GetSiteByURL(db, siteURL)
}

// RemoveSite deletes a registry entry along with all of its cached rows.
// Both deletes happen in one transaction so a failed registry delete never
// leaves the cache half-purged.
func RemoveSite(db *gorm.DB, logger *slog.Logger, siteURL string) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Where("site_url = ?", siteURL).Delete(&CacheRow{}).Error; err != nil {
			return err
		}

		result := tx.Where("site_url = ?", siteURL).Delete(&Site{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return NewSiteNotFoundError(siteURL)
		}
		return nil
	})
}

// QueryStat is the per-query rollup over a date range.
type QueryStat struct {
	Query       string  `json:"query"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// TopQueries computes the query-level rollup for a site, sorted by clicks
// descending. The "" day-aggregate rows are excluded.
func TopQueries(db *gorm.DB, siteURL string, r daterange.Range, limit int) ([]QueryStat, error) {
	if limit <= 0 {
		limit = 20
	}

	var stats []QueryStat
	query := `
    SELECT
        query,
        SUM(clicks) as clicks,
        SUM(impressions) as impressions,
        AVG(ctr) as ctr,
        AVG(position) as position
    FROM searchconsole_cache
    WHERE site_url = ?
    AND date BETWEEN ? AND ?
    AND query != ''
    GROUP BY query
    ORDER BY clicks DESC
    LIMIT ?
    `

	err := db.Raw(query, siteURL, r.From, r.To, limit).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute top queries: %w", err)
	}

	return stats, nil
}

// Totals is the rollup over the day-aggregate rows of a range. Clicks and
// impressions are sums; ctr and position are arithmetic means across days.
type Totals struct {
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
	Days        int64   `json:"days"`
}

// GetDaySeries retrieves the cached day-aggregate rows for a site within the
// range, oldest first.
func GetDaySeries(db *gorm.DB, siteURL string, r daterange.Range) ([]CacheRow, error) {
	var rows []CacheRow
	err := db.Where("site_url = ? AND query = '' AND date BETWEEN ? AND ?", siteURL, r.From, r.To).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get search console day series: %w", err)
	}
	return rows, nil
}

// GetTotals computes the day-aggregate rollup for a site over the range.
// Zero cached rows yield zero totals, not an error.
func GetTotals(db *gorm.DB, siteURL string, r daterange.Range) (Totals, error) {
	var totals Totals

	query := `
    SELECT
        COALESCE(SUM(clicks), 0) as clicks,
        COALESCE(SUM(impressions), 0) as impressions,
        COALESCE(AVG(ctr), 0) as ctr,
        COALESCE(AVG(position), 0) as position,
        COUNT(*) as days
    FROM searchconsole_cache
    WHERE site_url = ?
    AND query = ''
    AND date BETWEEN ? AND ?
    `

	err := db.Raw(query, siteURL, r.From, r.To).Scan(&totals).Error
	if err != nil {
		return Totals{}, fmt.Errorf("failed to compute search console totals: %w", err)
	}

	return totals, nil
}

// PurgeRowsOlderThan deletes cache rows with a date before the cutoff, in
// batches to avoid holding the write lock for long. Returns the number of
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

// AvgPositionForSiteURL returns the average position across all cached rows
// for the site URL, matching on prefix so rows stored with a trailing slash
// still count. Used by the dashboard health score.
func AvgPositionForSiteURL(db *gorm.DB, siteURL string) (float64, error) {
	// LIKE wildcards in the URL itself must match literally.
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(siteURL)

	var position float64
	query := `
    SELECT COALESCE(AVG(position), 0)
    FROM searchconsole_cache
    WHERE site_url LIKE ? ESCAPE '\'
    `
	if err := db.Raw(query, escaped+"%").Scan(&position).Error; err != nil {
		return 0, fmt.Errorf("failed to compute average position: %w", err)
	}
	return position, nil
}
