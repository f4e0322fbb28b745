// Package seeder populates a development database with a demo user, demo
// sites and 30 days of cached metrics, so the dashboard has something to show
// right after `pulsectl seed`.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"seopulse/internal/analytics"
	"seopulse/internal/daterange"
	"seopulse/internal/provider"
	"seopulse/internal/searchconsole"
	"seopulse/internal/sites"
	"seopulse/internal/users"
)

const (
	// DemoEmail is the account the seeder creates.
	DemoEmail    = "demo@seopulse.local"
	demoPassword = "demo1234"
)

// demoSites are the sites seeded for the demo user. Each connects to a fake
// analytics property so refreshes work out of the box.
var demoSites = []struct {
	name       string
	url        string
	propertyID string
	category   string
}{
	{"Acme Store", "https://store.acme.test", "properties/100001", "client"},
	{"Acme Blog", "https://blog.acme.test", "properties/100002", "internal"},
	{"Roadrunner Consulting", "https://roadrunner.test", "properties/100003", "client"},
}

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager cartridge.DBManager
	Logger    *slog.Logger
	Days      int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, days int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = daterange.DefaultWindowDays
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		Days:      days,
	}
}

// Seed creates the demo user with its sites and fills both metric caches
// through the mock provider. Running it twice is safe: the user and sites are
// reused and the cache rows are replaced in place.
func (s *Seeder) Seed(ctx context.Context) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	user, err := s.ensureDemoUser(db)
	if err != nil {
		return err
	}

	r, err := daterange.NewParser().Parse(fmt.Sprintf("%ddaysAgo", s.Days-1), "today")
	if err != nil {
		return err
	}

	mock := provider.NewMockProvider()

	for _, spec := range demoSites {
		site, err := s.ensureSite(db, user.ID, spec.name, spec.url, spec.propertyID, spec.category)
		if err != nil {
			return err
		}

		property := analytics.Property{PropertyID: spec.propertyID, PropertyName: spec.name}
		if err := analytics.AddProperty(db, s.Logger, &property); err != nil {
			return fmt.Errorf("failed to register property %s: %w", spec.propertyID, err)
		}

		if _, err := searchconsole.AddSite(db, s.Logger, spec.url, "siteOwner"); err != nil {
			return fmt.Errorf("failed to register search console site %s: %w", spec.url, err)
		}

		if _, err := analytics.RefreshSite(ctx, db, s.Logger, mock, site, r); err != nil {
			return fmt.Errorf("failed to seed analytics for %s: %w", spec.url, err)
		}

		if _, err := searchconsole.RefreshSite(ctx, db, s.Logger, mock, spec.url, r); err != nil {
			return fmt.Errorf("failed to seed search console for %s: %w", spec.url, err)
		}

		s.Logger.Info("Seeded site",
			slog.String("url", spec.url),
			slog.Int("days", s.Days))
	}

	s.Logger.Info("Seeding completed",
		slog.String("email", DemoEmail),
		slog.String("password", demoPassword),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) ensureDemoUser(db *gorm.DB) (*users.User, error) {
	user, err := users.FindByEmail(db, DemoEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up demo user: %w", err)
	}

	if err := users.CreateAdminUser(db, DemoEmail, demoPassword); err != nil {
		return nil, fmt.Errorf("failed to create demo user: %w", err)
	}
	return users.FindByEmail(db, DemoEmail)
}

func (s *Seeder) ensureSite(db *gorm.DB, userID uint, name, url, propertyID, category string) (*sites.Site, error) {
	var existing sites.Site
	if err := db.Where("url = ?", url).First(&existing).Error; err == nil {
		return &existing, nil
	}

	site := &sites.Site{
		UserID:     userID,
		Name:       name,
		URL:        url,
		PropertyID: &propertyID,
		Category:   category,
	}
	if err := sites.CreateSite(db, site); err != nil {
		return nil, fmt.Errorf("failed to create demo site %s: %w", url, err)
	}
	return site, nil
}
