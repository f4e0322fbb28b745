package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"
	"gorm.io/gorm"

	"seopulse/internal/analytics"
	"seopulse/internal/daterange"
	"seopulse/internal/pkg/async"
	"seopulse/internal/searchconsole"
	"seopulse/internal/sites"
)

// DashboardResponse is the landing-page summary: site counts, metric sums
// across every cached site, and the most recently created sites.
type DashboardResponse struct {
	TotalSites     int64                `json:"total_sites"`
	ConnectedSites int64                `json:"connected_sites"`
	Analytics      analytics.Totals     `json:"analytics"`
	SearchConsole  searchconsole.Totals `json:"search_console"`
	RecentSites    []sites.Site         `json:"recent_sites"`
}

// DashboardIndexAction aggregates the caller's sites into the dashboard
// summary. The independent rollups fan out across the shared worker pool.
func DashboardIndexAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	r, err := parseRangeParams(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	db := ctx.DB()
	response, err := fetchDashboard(ctx.Ctx.Context(), db, userID, r)
	if err != nil {
		ctx.Logger.Error("Failed to build dashboard summary",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(response)
}

func fetchDashboard(ctx context.Context, db *gorm.DB, userID uint, r daterange.Range) (*DashboardResponse, error) {
	userSites, err := sites.GetSitesForUser(db, userID)
	if err != nil {
		return nil, err
	}

	response := &DashboardResponse{TotalSites: int64(len(userSites))}
	connected := make([]sites.Site, 0, len(userSites))
	for _, site := range userSites {
		if site.IsConnected() {
			connected = append(connected, site)
		}
	}
	response.ConnectedSites = int64(len(connected))

	tasks := []async.Task[any]{
		{
			Name: "analyticsTotals",
			Execute: func() (any, error) {
				sum := analytics.Totals{}
				for _, site := range connected {
					totals, err := analytics.GetTotals(db, site.ID, r)
					if err != nil {
						return nil, err
					}
					sum.ActiveUsers += totals.ActiveUsers
					sum.Sessions += totals.Sessions
					sum.Pageviews += totals.Pageviews
					sum.Bounces += totals.Bounces
					sum.Days += totals.Days
				}
				return sum, nil
			},
		},
		{
			Name: "searchTotals",
			Execute: func() (any, error) {
				sum := searchconsole.Totals{}
				for _, site := range userSites {
					totals, err := searchconsole.GetTotals(db, site.URL, r)
					if err != nil {
						return nil, err
					}
					sum.Clicks += totals.Clicks
					sum.Impressions += totals.Impressions
					sum.Days += totals.Days
				}
				return sum, nil
			},
		},
		{
			Name: "recentSites",
			Execute: func() (any, error) {
				return sites.GetRecentSitesForUser(db, userID, 5)
			},
		},
	}

	pool := async.NewPool[any](len(tasks))
	results := pool.Execute(ctx, tasks)

	for _, task := range tasks {
		result, ok := results[task.Name]
		if !ok {
			// A missing result means the pool stopped early, which only
			// happens when the context ends.
			return nil, ctx.Err()
		}
		if result.Err != nil {
			return nil, fmt.Errorf("dashboard task %s failed: %w", task.Name, result.Err)
		}
		switch task.Name {
		case "analyticsTotals":
			response.Analytics = result.Data.(analytics.Totals)
		case "searchTotals":
			response.SearchConsole = result.Data.(searchconsole.Totals)
		case "recentSites":
			response.RecentSites = result.Data.([]sites.Site)
		}
	}

	return response, nil
}

// SiteHealth is the per-site health entry of the dashboard health endpoint.
// Score is derived from the average search position: position 1 scores 100,
// position 50 or worse scores 0.
type SiteHealth struct {
	SiteID   uint    `json:"site_id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Position float64 `json:"position"`
	Score    int     `json:"score"`
	Status   string  `json:"status"`
}

// healthScore maps an average search position onto a 0-100 scale.
func healthScore(position float64) int {
	if position <= 0 {
		return 0
	}
	if position <= 1 {
		return 100
	}
	if position >= 50 {
		return 0
	}
	return int(100 * (50 - position) / 49)
}

func healthStatus(score int) string {
	switch {
	case score >= 70:
		return "good"
	case score >= 40:
		return "warning"
	default:
		return "critical"
	}
}

// DashboardHealthAction computes a position-derived health score for each of
// the caller's sites.
func DashboardHealthAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	db := ctx.DB()
	userSites, err := sites.GetSitesForUser(db, userID)
	if err != nil {
		ctx.Logger.Error("Failed to list sites for health check", slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	health := make([]SiteHealth, 0, len(userSites))
	for _, site := range userSites {
		position, err := searchconsole.AvgPositionForSiteURL(db, site.URL)
		if err != nil {
			ctx.Logger.Error("Failed to compute site health",
				slog.Uint64("site_id", uint64(site.ID)),
				slog.Any("error", err))
			return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
		}

		score := healthScore(position)
		health = append(health, SiteHealth{
			SiteID:   site.ID,
			Name:     site.Name,
			URL:      site.URL,
			Position: position,
			Score:    score,
			Status:   healthStatus(score),
		})
	}

	return ctx.JSON(fiber.Map{"sites": health})
}
