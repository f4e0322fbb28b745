package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"seopulse/internal/analytics"
	"seopulse/internal/provider"
	"seopulse/internal/sites"
)

// AnalyticsSiteAction returns the cached day series plus rollup totals for one
// of the user's sites over the requested range.
func AnalyticsSiteAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	siteID, err := ctx.ParamsInt("siteId")
	if err != nil || siteID <= 0 {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
	}

	r, err := parseRangeParams(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	db := ctx.DB()
	site, err := sites.GetSiteForUser(db, uint(siteID), userID)
	if err != nil {
		return siteError(ctx, err)
	}

	series, err := analytics.GetDaySeries(db, site.ID, r)
	if err != nil {
		ctx.Logger.Error("Failed to get analytics series",
			slog.Uint64("site_id", uint64(site.ID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	totals, err := analytics.GetTotals(db, site.ID, r)
	if err != nil {
		ctx.Logger.Error("Failed to get analytics totals",
			slog.Uint64("site_id", uint64(site.ID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	// An empty cache is a valid state, not an error; the frontend shows an
	// empty chart with a hint to refresh.
	source := "cache"
	message := ""
	if len(series) == 0 {
		source = "none"
		message = "No cached analytics data for this range; trigger a refresh"
	}

	return ctx.JSON(fiber.Map{
		"site":      site,
		"connected": site.IsConnected(),
		"source":    source,
		"message":   message,
		"days":      series,
		"totals":    totals,
	})
}

// AnalyticsRefreshAction pulls fresh metrics from the analytics provider into
// the cache for one site. Refresh is synchronous: when the handler returns,
// the cache already reflects the provider's data. A provider outage is not an
// error; the response flags the fallback and cached data keeps serving.
func AnalyticsRefreshAction(p provider.AnalyticsProvider) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		userID, ok := requireUserID(ctx)
		if !ok {
			return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
		}

		siteID, err := ctx.ParamsInt("siteId")
		if err != nil || siteID <= 0 {
			return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
		}

		r, err := parseRangeParams(ctx)
		if err != nil {
			return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
		}

		db := ctx.DB()
		site, err := sites.GetSiteForUser(db, uint(siteID), userID)
		if err != nil {
			return siteError(ctx, err)
		}

		result, err := analytics.RefreshSite(ctx.Ctx.Context(), db, ctx.Logger, p, site, r)
		if err != nil {
			ctx.Logger.Error("Failed to refresh analytics cache",
				slog.Uint64("site_id", uint64(site.ID)),
				slog.Any("error", err))
			return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
		}

		return ctx.JSON(result)
	}
}

// AnalyticsOverviewAction returns the latest cached metrics plus range totals
// for every connected site the user owns.
func AnalyticsOverviewAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	r, err := parseRangeParams(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	overview, err := analytics.GetOverviewForUser(ctx.Ctx.Context(), ctx.DB(), userID, r)
	if err != nil {
		ctx.Logger.Error("Failed to compute analytics overview",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(fiber.Map{"overview": overview})
}

// AnalyticsPropertiesAction lists the analytics properties known to the
// installation, for the site connection dropdown.
func AnalyticsPropertiesAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	properties, err := analytics.ListProperties(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to list analytics properties", slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(fiber.Map{"properties": properties})
}

// AnalyticsPropertyCreateAction registers an analytics property so sites can
// connect to it.
func AnalyticsPropertyCreateAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	var body struct {
		PropertyID   string `json:"property_id"`
		PropertyName string `json:"property_name"`
		AccountName  string `json:"account_name"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(body.PropertyID) == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Property ID is required")
	}

	property := analytics.Property{
		PropertyID:   strings.TrimSpace(body.PropertyID),
		PropertyName: strings.TrimSpace(body.PropertyName),
		AccountName:  strings.TrimSpace(body.AccountName),
	}
	if err := analytics.AddProperty(ctx.DB(), ctx.Logger, &property); err != nil {
		ctx.Logger.Error("Failed to add analytics property",
			slog.String("property_id", property.PropertyID),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"property": property})
}
