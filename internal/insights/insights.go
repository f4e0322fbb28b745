package insights

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AnalysisType represents the kind of analysis an insight was produced by
type AnalysisType string

const (
	AnalysisTraffic   AnalysisType = "traffic"
	AnalysisSEO       AnalysisType = "seo"
	AnalysisContent   AnalysisType = "content"
	AnalysisTechnical AnalysisType = "technical"
)

// Insight is an AI-generated annotation attached to a site. Insights are
// append-only: they are never updated or deleted through the API.
type Insight struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID       uint         `gorm:"not null;index:idx_ai_insights_site" json:"site_id"`
	AnalysisType AnalysisType `gorm:"size:50;not null" json:"analysis_type"`
	Content      string       `gorm:"not null" json:"content"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Insight) TableName() string {
	return "ai_insights"
}

// ValidAnalysisTypes returns all valid analysis types
func ValidAnalysisTypes() []AnalysisType {
	return []AnalysisType{
		AnalysisTraffic,
		AnalysisSEO,
		AnalysisContent,
		AnalysisTechnical,
	}
}

// IsValidAnalysisType checks if the given type is valid
func IsValidAnalysisType(t AnalysisType) bool {
	for _, valid := range ValidAnalysisTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// CreateInsight appends a new insight for a site.
func CreateInsight(db *gorm.DB, insight *Insight) error {
	if insight.SiteID == 0 {
		return fmt.Errorf("site ID is required")
	}
	if insight.Content == "" {
		return fmt.Errorf("insight content is required")
	}
	if insight.AnalysisType == "" {
		return fmt.Errorf("analysis type is required")
	}
	if !IsValidAnalysisType(insight.AnalysisType) {
		return fmt.Errorf("invalid analysis type: %s", insight.AnalysisType)
	}

	insight.CreatedAt = time.Now().UTC()
	return db.Create(insight).Error
}

// GetInsightsForSite retrieves all insights for a site, newest first.
func GetInsightsForSite(db *gorm.DB, siteID uint) ([]Insight, error) {
	var result []Insight
	err := db.Where("site_id = ?", siteID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetLatestInsightForSite retrieves the most recent insight of a given type.
// Returns nil when the site has none.
func GetLatestInsightForSite(db *gorm.DB, siteID uint, analysisType AnalysisType) (*Insight, error) {
	var insight Insight
	err := db.Where("site_id = ? AND analysis_type = ?", siteID, analysisType).
		Order("created_at DESC").
		First(&insight).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &insight, nil
}
