package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"seopulse/internal/sites"
)

// sitePayload is the request body for site create and update.
type sitePayload struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	PropertyID  *string `json:"property_id"`
	AccountType string  `json:"account_type"`
	Category    string  `json:"category"`
	Settings    string  `json:"settings"`
}

// SitesIndexAction lists the authenticated user's sites, newest first.
func SitesIndexAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	result, err := sites.GetSitesForUser(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Error("Failed to list sites", slog.Any("error", err))
		return siteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"sites": result})
}

// SitesSummaryAction returns the compact site list used by the dashboard
// site selector.
func SitesSummaryAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	summaries, err := sites.GetSiteSummariesForUser(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Error("Failed to list site summaries", slog.Any("error", err))
		return siteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"sites": summaries})
}

// SiteShowAction returns one of the user's sites. Sites owned by other users
// resolve as 404, never 403, so site IDs cannot be probed.
func SiteShowAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
	}

	site, err := sites.GetSiteForUser(ctx.DB(), uint(id), userID)
	if err != nil {
		return siteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"site": site})
}

// SiteCreateAction creates a site owned by the authenticated user.
func SiteCreateAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	var body sitePayload
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	site := sites.Site{
		UserID:      userID,
		Name:        strings.TrimSpace(body.Name),
		URL:         strings.TrimSpace(body.URL),
		PropertyID:  body.PropertyID,
		AccountType: body.AccountType,
		Category:    body.Category,
		Settings:    body.Settings,
	}

	if err := sites.CreateSite(ctx.DB(), &site); err != nil {
		ctx.Logger.Warn("Failed to create site",
			slog.String("url", site.URL),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	ctx.Logger.Info("Site created",
		slog.Uint64("id", uint64(site.ID)),
		slog.String("url", site.URL))

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"site": site})
}

// SiteUpdateAction updates one of the user's sites.
func SiteUpdateAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
	}

	var body sitePayload
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.URL) == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Site name and URL are required")
	}

	site := sites.Site{
		ID:          uint(id),
		UserID:      userID,
		Name:        strings.TrimSpace(body.Name),
		URL:         strings.TrimSpace(body.URL),
		PropertyID:  body.PropertyID,
		AccountType: body.AccountType,
		Category:    body.Category,
		Settings:    body.Settings,
	}

	updated, err := sites.UpdateSiteForUser(ctx.DB(), &site)
	if err != nil {
		return siteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"site": updated})
}

// SiteDeleteAction deletes one of the user's sites.
func SiteDeleteAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site ID")
	}

	if err := sites.DeleteSiteForUser(ctx.DB(), uint(id), userID); err != nil {
		return siteError(ctx, err)
	}

	ctx.Logger.Info("Site deleted", slog.Int("id", id))
	return ctx.JSON(fiber.Map{"success": true})
}
