package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"seopulse/internal/settings"
)

// DashboardSettingsShowAction returns the caller's dashboard settings,
// creating the default row on first access.
func DashboardSettingsShowAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	setting, err := settings.GetForUser(ctx.DB(), ctx.Logger, userID)
	if err != nil {
		ctx.Logger.Error("Failed to load dashboard settings",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(setting)
}

// DashboardSettingsUpdateAction replaces the caller's settings blob.
func DashboardSettingsUpdateAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Authentication required")
	}

	var body struct {
		Settings string `json:"settings"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	setting, err := settings.UpdateForUser(ctx.DB(), ctx.Logger, userID, body.Settings)
	if err != nil {
		ctx.Logger.Warn("Rejected dashboard settings update",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	return ctx.JSON(setting)
}
