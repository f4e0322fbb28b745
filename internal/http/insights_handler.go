package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"seopulse/internal/insights"
	"seopulse/internal/sites"
)

// InsightsIndexAction lists the insights recorded for one of the user's
// sites, newest first.
func InsightsIndexAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	siteID, err := ctx.ParamsInt("siteId")
	if err != nil || siteID <= 0 {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
	}

	db := ctx.DB()
	site, err := sites.GetSiteForUser(db, uint(siteID), userID)
	if err != nil {
		return siteError(ctx, err)
	}

	result, err := insights.GetInsightsForSite(db, site.ID)
	if err != nil {
		ctx.Logger.Error("Failed to list insights",
			slog.Uint64("site_id", uint64(site.ID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(fiber.Map{"insights": result})
}

// InsightCreateAction appends an insight to one of the user's sites.
func InsightCreateAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	siteID, err := ctx.ParamsInt("siteId")
	if err != nil || siteID <= 0 {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
	}

	var body struct {
		AnalysisType string `json:"analysis_type"`
		Content      string `json:"content"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	db := ctx.DB()
	site, err := sites.GetSiteForUser(db, uint(siteID), userID)
	if err != nil {
		return siteError(ctx, err)
	}

	insight := insights.Insight{
		SiteID:       site.ID,
		AnalysisType: insights.AnalysisType(body.AnalysisType),
		Content:      body.Content,
	}
	if err := insights.CreateInsight(db, &insight); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	ctx.Logger.Info("Insight recorded",
		slog.Uint64("site_id", uint64(site.ID)),
		slog.String("analysis_type", string(insight.AnalysisType)))

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"insight": insight})
}
