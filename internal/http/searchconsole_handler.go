package http

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"seopulse/internal/pkg/queryclass"
	"seopulse/internal/provider"
	"seopulse/internal/searchconsole"
)

// SearchConsoleSitesAction lists the registered search console sites.
func SearchConsoleSitesAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	result, err := searchconsole.ListSites(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to list search console sites", slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(fiber.Map{"sites": result})
}

// SearchConsoleSiteAddAction registers a site URL with the search console
// registry. Re-adding an existing URL updates its permission level.
func SearchConsoleSiteAddAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	var body struct {
		SiteURL         string `json:"site_url"`
		PermissionLevel string `json:"permission_level"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	site, err := searchconsole.AddSite(ctx.DB(), ctx.Logger, body.SiteURL, body.PermissionLevel)
	if err != nil {
		ctx.Logger.Warn("Failed to add search console site",
			slog.String("site_url", body.SiteURL),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"site": site})
}

// SearchConsoleSiteRemoveAction removes a site and its cached rows. The site
// URL arrives URL-encoded as a path parameter.
func SearchConsoleSiteRemoveAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	siteURL, err := url.PathUnescape(ctx.Params("siteUrl"))
	if err != nil || siteURL == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid site URL")
	}

	if err := searchconsole.RemoveSite(ctx.DB(), ctx.Logger, siteURL); err != nil {
		return siteError(ctx, err)
	}

	ctx.Logger.Info("Search console site removed", slog.String("site_url", siteURL))
	return ctx.JSON(fiber.Map{"message": "Site removed"})
}

// queryStatWithIntent decorates a query rollup with its classified intent.
type queryStatWithIntent struct {
	searchconsole.QueryStat
	Intent string `json:"intent"`
}

// SearchConsoleQueriesAction returns the top queries for a site over the
// range, each tagged with a search intent classification.
func SearchConsoleQueriesAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	siteURL := ctx.Query("siteUrl")
	if siteURL == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "siteUrl query parameter is required")
	}

	r, err := parseRangeParams(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))

	db := ctx.DB()
	if _, err := searchconsole.GetSiteByURL(db, siteURL); err != nil {
		return siteError(ctx, err)
	}

	stats, err := searchconsole.TopQueries(db, siteURL, r, limit)
	if err != nil {
		ctx.Logger.Error("Failed to compute top queries",
			slog.String("site_url", siteURL),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	queries := make([]queryStatWithIntent, len(stats))
	for i, stat := range stats {
		queries[i] = queryStatWithIntent{
			QueryStat: stat,
			Intent:    queryclass.Classify(stat.Query),
		}
	}

	return ctx.JSON(fiber.Map{"queries": queries})
}

// SearchConsolePerformanceAction returns the cached day series plus totals
// for a site over the range.
func SearchConsolePerformanceAction(ctx *cartridge.Context) error {
	if _, ok := requireUserID(ctx); !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	siteURL := ctx.Query("siteUrl")
	if siteURL == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "siteUrl query parameter is required")
	}

	r, err := parseRangeParams(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	db := ctx.DB()
	site, err := searchconsole.GetSiteByURL(db, siteURL)
	if err != nil {
		return siteError(ctx, err)
	}

	series, err := searchconsole.GetDaySeries(db, siteURL, r)
	if err != nil {
		ctx.Logger.Error("Failed to get search console series",
			slog.String("site_url", siteURL),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	totals, err := searchconsole.GetTotals(db, siteURL, r)
	if err != nil {
		ctx.Logger.Error("Failed to get search console totals",
			slog.String("site_url", siteURL),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(fiber.Map{
		"site":   site,
		"days":   series,
		"totals": totals,
	})
}

// SearchConsoleRefreshAction pulls fresh search performance data into the
// cache for one registered site. Synchronous, like the analytics refresh.
func SearchConsoleRefreshAction(p provider.SearchConsoleProvider) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		if _, ok := requireUserID(ctx); !ok {
			return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
		}

		// The site URL comes as a query parameter; a JSON body works too.
		siteURL := ctx.Query("siteUrl")
		if siteURL == "" {
			var body struct {
				SiteURL string `json:"site_url"`
			}
			if err := ctx.BodyParser(&body); err == nil {
				siteURL = body.SiteURL
			}
		}
		if siteURL == "" {
			return errorJSON(ctx, fiber.StatusBadRequest, "siteUrl is required")
		}

		r, err := parseRangeParams(ctx)
		if err != nil {
			return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
		}

		result, err := searchconsole.RefreshSite(ctx.Ctx.Context(), ctx.DB(), ctx.Logger, p, siteURL, r)
		if err != nil {
			ctx.Logger.Error("Failed to refresh search console cache",
				slog.String("site_url", siteURL),
				slog.Any("error", err))
			return siteError(ctx, err)
		}

		return ctx.JSON(result)
	}
}
