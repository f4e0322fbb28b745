package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/crypto"
	"log/slog"

	"seopulse/internal/config"
	"seopulse/internal/users"
)

// devUserEmail is the account created by the development login shortcut.
const devUserEmail = "dev@seopulse.local"

// ProcessLoginAction handles password login over the JSON API.
func ProcessLoginAction(ctx *cartridge.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	if body.Email == "" || body.Password == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Email and password are required")
	}

	db := ctx.DB()
	user, err := users.FindByEmail(db, body.Email)

	// Always verify a password so the response time does not reveal whether
	// the email exists.
	var passwordValid bool
	if err != nil {
		ctx.Logger.Debug("User not found during login", slog.String("email", body.Email))
		dummyHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // bcrypt hash of "dummy"
		crypto.VerifyPassword(dummyHash, body.Password)
		passwordValid = false
	} else {
		passwordValid = crypto.VerifyPassword(user.EncryptedPassword, body.Password)
		if !passwordValid {
			ctx.Logger.Debug("Invalid password attempt", slog.String("email", body.Email))
		}
	}

	if !passwordValid {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Invalid email or password")
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Login failed")
	}

	ctx.Logger.Debug("Login successful",
		slog.String("email", body.Email),
		slog.Int("userId", int(user.ID)))

	return ctx.JSON(fiber.Map{"user": user})
}

// DevLoginAction signs in a shared development user without credentials.
// Disabled outside development so it can never be reached in production.
func DevLoginAction(cfg *config.Config) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		if cfg.IsProduction() {
			return errorJSON(ctx, fiber.StatusNotFound, "Not found")
		}

		db := ctx.DB()
		user, err := users.UpsertFromLogin(db, ctx.Logger, devUserEmail, "Dev User", "")
		if err != nil {
			ctx.Logger.Error("Failed to upsert dev user", slog.Any("error", err))
			return errorJSON(ctx, fiber.StatusInternalServerError, "Dev login failed")
		}

		if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
			ctx.Logger.Error("Failed to set session", slog.Any("error", err))
			return errorJSON(ctx, fiber.StatusInternalServerError, "Dev login failed")
		}

		ctx.Logger.Info("Development login", slog.String("email", user.Email))
		return ctx.JSON(fiber.Map{"user": user})
	}
}

// GoogleAuthAction hands the frontend the Google authorization URL. When no
// OAuth client is configured the endpoint says so instead of emitting a URL
// that could never complete.
func GoogleAuthAction(cfg *config.Config) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		if !cfg.HasGoogleOAuth() {
			return errorJSON(ctx, fiber.StatusServiceUnavailable, "Google OAuth is not configured")
		}

		redirectURI := ctx.Query("redirect_uri", "/api/auth/google/callback")
		params := url.Values{}
		params.Set("client_id", cfg.GoogleClientID)
		params.Set("redirect_uri", redirectURI)
		params.Set("response_type", "code")
		params.Set("scope", "openid email profile")

		return ctx.JSON(fiber.Map{
			"auth_url": "https://accounts.google.com/o/oauth2/v2/auth?" + params.Encode(),
		})
	}
}

// MeAction reports the session state. Always 200: an anonymous caller gets
// {authenticated: false}, which the SPA uses to decide whether to show the
// login screen.
func MeAction(ctx *cartridge.Context) error {
	userID, ok := requireUserID(ctx)
	if !ok {
		return ctx.JSON(fiber.Map{"authenticated": false})
	}

	user, err := users.FindByID(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Error("Failed to load session user",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err))
		return ctx.JSON(fiber.Map{"authenticated": false})
	}

	return ctx.JSON(fiber.Map{"authenticated": true, "user": user})
}

// LogoutAction clears the session cookie.
func LogoutAction(ctx *cartridge.Context) error {
	ctx.Session.ClearSession(ctx.Ctx)
	return ctx.JSON(fiber.Map{"message": "Logged out"})
}
