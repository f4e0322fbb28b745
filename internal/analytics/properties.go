package analytics

import (
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Property is an entry in the analytics property registry. Sites reference a
// property by its external PropertyID; the registry itself only records which
// properties the connected account exposes.
type Property struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID   string    `gorm:"unique;not null" json:"property_id"`
	PropertyName string    `json:"property_name"`
	AccountName  string    `json:"account_name"`
	AccountType  string    `gorm:"default:'standard'" json:"account_type"`
	AddedAt      time.Time `json:"added_at"`
}

// TableName specifies the table name for GORM
func (Property) TableName() string {
	return "analytics_properties"
}

// ListProperties retrieves all registered analytics properties.
func ListProperties(db *gorm.DB) ([]Property, error) {
	var properties []Property
	if err := db.Order("property_id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list analytics properties: %w", err)
	}
	return properties, nil
}

// AddProperty registers a property, replacing the name/account fields when
// the property is already known.
func AddProperty(db *gorm.DB, logger *slog.Logger, p *Property) error {
	if strings.TrimSpace(p.PropertyID) == "" {
		return fmt.Errorf("property ID is required")
	}
	if p.AccountType == "" {
		p.AccountType = "standard"
	}

	now := time.Now().UTC()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO analytics_properties (property_id, property_name, account_name, account_type, added_at)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT(property_id) DO UPDATE SET
                property_name = excluded.property_name,
                account_name = excluded.account_name,
                account_type = excluded.account_type
        `, p.PropertyID, p.PropertyName, p.AccountName, p.AccountType, now).Error
	})
}
