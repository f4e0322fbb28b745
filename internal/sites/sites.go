package sites

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SiteNotFoundError represents an error when a site is not found for the
// requesting user. Ownership misses deliberately produce the same error as
// missing rows so that site IDs of other tenants cannot be probed.
type SiteNotFoundError struct {
	SiteID uint
}

func (e *SiteNotFoundError) Error() string {
	return fmt.Sprintf("site not found: %d", e.SiteID)
}

// NewSiteNotFoundError creates a new SiteNotFoundError
func NewSiteNotFoundError(siteID uint) *SiteNotFoundError {
	return &SiteNotFoundError{SiteID: siteID}
}

// Site represents a tracked website owned by exactly one user. PropertyID is
// the external analytics property reference; nil means the site is not yet
// connected to a provider.
type Site struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"not null" json:"name"`
	URL         string    `gorm:"unique;not null" json:"url"`
	PropertyID  *string   `json:"property_id"`
	AccountType string    `gorm:"default:'standard'" json:"account_type"`
	Category    string    `gorm:"default:'client'" json:"category"`
	Settings    string    `gorm:"default:'{}'" json:"settings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsConnected reports whether the site has an analytics property assigned.
func (s *Site) IsConnected() bool {
	return s.PropertyID != nil && *s.PropertyID != ""
}

// GetSitesForUser retrieves all sites owned by the given user, newest first.
func GetSitesForUser(db *gorm.DB, userID uint) ([]Site, error) {
	var result []Site
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get sites: %w", err)
	}
	return result, nil
}

// GetSiteForUser retrieves a site by ID, scoped to the owning user.
// A site owned by another user resolves as not found.
func GetSiteForUser(db *gorm.DB, id, userID uint) (*Site, error) {
	var site Site
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&site).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewSiteNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying site: %w", err)
	}
	return &site, nil
}

// GetConnectedSitesForUser retrieves the user's sites that have an analytics
// property assigned.
func GetConnectedSitesForUser(db *gorm.DB, userID uint) ([]Site, error) {
	var result []Site
	err := db.Where("user_id = ? AND property_id IS NOT NULL AND property_id != ''", userID).
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get connected sites: %w", err)
	}
	return result, nil
}

// CreateSite creates a new site for the given user
func CreateSite(db *gorm.DB, site *Site) error {
	if site.UserID == 0 {
		return fmt.Errorf("site owner is required")
	}
	if strings.TrimSpace(site.Name) == "" {
		return fmt.Errorf("site name is required")
	}
	if strings.TrimSpace(site.URL) == "" {
		return fmt.Errorf("site url is required")
	}

	now := time.Now().UTC()
	site.CreatedAt = now
	site.UpdatedAt = now

	// Ensure defaults
	if site.AccountType == "" {
		site.AccountType = "standard"
	}
	if site.Category == "" {
		site.Category = "client"
	}
	if site.Settings == "" {
		site.Settings = "{}"
	}

	return db.Create(site).Error
}

// UpdateSiteForUser updates an existing site, scoped to the owning user.
// Returns the refreshed site or SiteNotFoundError when the site does not
// exist or belongs to another user.
func UpdateSiteForUser(db *gorm.DB, site *Site) (*Site, error) {
	site.UpdatedAt = time.Now().UTC()

	result := db.Model(&Site{}).
		Where("id = ? AND user_id = ?", site.ID, site.UserID).
		Select("name", "url", "property_id", "account_type", "category", "settings", "updated_at").
		Updates(site)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, NewSiteNotFoundError(site.ID)
	}

	return GetSiteForUser(db, site.ID, site.UserID)
}

// DeleteSiteForUser deletes a site by ID, scoped to the owning user
func DeleteSiteForUser(db *gorm.DB, id, userID uint) error {
	result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Site{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewSiteNotFoundError(id)
	}
	return nil
}

// SiteSummary is the compact site representation used by the dashboard selector.
type SiteSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	AccountType string `json:"account_type"`
}

// GetSiteSummariesForUser returns the user's sites formatted for the frontend
// selector, ordered by name.
func GetSiteSummariesForUser(db *gorm.DB, userID uint) ([]SiteSummary, error) {
	var allSites []Site
	if err := db.Where("user_id = ?", userID).Order("name").Find(&allSites).Error; err != nil {
		return nil, fmt.Errorf("failed to get sites: %w", err)
	}

	result := make([]SiteSummary, len(allSites))
	for i, site := range allSites {
		result[i] = SiteSummary{
			ID:          site.ID,
			Name:        site.Name,
			URL:         site.URL,
			Category:    site.Category,
			AccountType: site.AccountType,
		}
	}

	return result, nil
}

// GetRecentSitesForUser retrieves the most recently updated sites for a user.
func GetRecentSitesForUser(db *gorm.DB, userID uint, limit int) ([]Site, error) {
	var result []Site
	err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent sites: %w", err)
	}
	return result, nil
}
