package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"seopulse/internal/daterange"
	"seopulse/internal/searchconsole"
	"seopulse/internal/sites"
)

var rangeParser = daterange.NewParser()

// errorJSON writes the uniform API error shape.
func errorJSON(ctx *cartridge.Context, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

// requireUserID resolves the authenticated user from the session. Routes
// calling this sit behind the auth middleware, so a miss here means the
// session expired between the middleware and the handler.
func requireUserID(ctx *cartridge.Context) (uint, bool) {
	userID, ok := ctx.Session.GetUserID(ctx.Ctx)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}

// parseRangeParams resolves the startDate/endDate query parameters.
func parseRangeParams(ctx *cartridge.Context) (daterange.Range, error) {
	return rangeParser.Parse(ctx.Query("startDate"), ctx.Query("endDate"))
}

// siteError maps storage errors from the sites and searchconsole packages to
// API status codes. Not-found errors become 404; everything else is a 500.
func siteError(ctx *cartridge.Context, err error) error {
	var siteNotFound *sites.SiteNotFoundError
	if errors.As(err, &siteNotFound) {
		return errorJSON(ctx, fiber.StatusNotFound, siteNotFound.Error())
	}
	var scNotFound *searchconsole.SiteNotFoundError
	if errors.As(err, &scNotFound) {
		return errorJSON(ctx, fiber.StatusNotFound, scNotFound.Error())
	}
	return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
}
