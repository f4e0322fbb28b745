// Package settings stores per-user dashboard preferences as an opaque JSON
// blob. The backend validates that the blob is JSON but does not interpret
// it; layout, widget choices and so on belong to the frontend.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

const defaultSettingsJSON = "{}"

// DashboardSetting holds one user's dashboard preferences. At most one row
// exists per user (read-or-create-then-update).
type DashboardSetting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Settings  string    `gorm:"default:'{}'" json:"settings"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DashboardSetting) TableName() string {
	return "dashboard_settings"
}

// GetForUser retrieves the user's dashboard settings, creating the default
// row on first access.
func GetForUser(db *gorm.DB, logger *slog.Logger, userID uint) (*DashboardSetting, error) {
	var setting DashboardSetting
	err := db.Where("user_id = ?", userID).First(&setting).Error
	if err == nil {
		return &setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get dashboard settings: %w", err)
	}

	setting = DashboardSetting{
		UserID:    userID,
		Settings:  defaultSettingsJSON,
		UpdatedAt: time.Now().UTC(),
	}
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		// Concurrent first reads race on the unique user_id index; losing the
		// race is fine, the row exists either way.
		return tx.Exec(`
            INSERT INTO dashboard_settings (user_id, settings, updated_at)
            VALUES (?, ?, ?)
            ON CONFLICT(user_id) DO NOTHING
        `, setting.UserID, setting.Settings, setting.UpdatedAt).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard settings: %w", err)
	}

	if err := db.Where("user_id = ?", userID).First(&setting).Error; err != nil {
		return nil, fmt.Errorf("failed to reload dashboard settings: %w", err)
	}
	return &setting, nil
}

// UpdateForUser replaces the user's settings blob. The blob must be valid
// JSON; anything else is rejected before it reaches storage.
func UpdateForUser(db *gorm.DB, logger *slog.Logger, userID uint, settingsJSON string) (*DashboardSetting, error) {
	if settingsJSON == "" {
		settingsJSON = defaultSettingsJSON
	}
	if !json.Valid([]byte(settingsJSON)) {
		return nil, fmt.Errorf("settings must be valid JSON")
	}

	now := time.Now().UTC()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO dashboard_settings (user_id, settings, updated_at)
            VALUES (?, ?, ?)
            ON CONFLICT(user_id) DO UPDATE SET
                settings = excluded.settings,
                updated_at = excluded.updated_at
        `, userID, settingsJSON, now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update dashboard settings: %w", err)
	}

	return GetForUser(db, logger, userID)
}
