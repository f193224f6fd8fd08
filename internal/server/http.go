// Package server assembles the HTTP API and the gRPC health server.
package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"notesmk/backend/internal/devotp"
	identityhandler "notesmk/backend/internal/identity/handler"
	"notesmk/backend/internal/logging"
	notehandler "notesmk/backend/internal/note/handler"
	"notesmk/backend/internal/server/httperr"
	"notesmk/backend/internal/server/middleware"
)

// APIPrefix is the path prefix of the JSON API.
const APIPrefix = "/api/v1"

// HTTPDeps holds what the HTTP routes need.
type HTTPDeps struct {
	Auth          identityhandler.AuthService
	Authenticator middleware.Authenticator
	Notes         notehandler.Notes
	Cookie        identityhandler.CookieConfig
	// AllowedOrigins are echoed with credentials allowed. Empty disables CORS headers.
	AllowedOrigins []string
	// DevOTP mounts GET /dev/otp when non-nil.
	DevOTP devotp.Store
	// Ready serves GET /healthz when non-nil.
	Ready  fiber.Handler
	Logger logging.Logger
}

// NewHTTPApp builds the fiber app with every route mounted.
func NewHTTPApp(deps HTTPDeps) *fiber.App {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	if deps.Cookie.Name == "" {
		deps.Cookie.Name = "token"
	}
	app := fiber.New(fiber.Config{
		AppName:      "notesmk",
		ErrorHandler: httperr.Handler(log),
	})
	app.Use(recoverer.New())
	if len(deps.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{fiber.HeaderContentType, fiber.HeaderAuthorization},
			AllowMethods:     []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions},
		}))
	}
	app.Use(middleware.ClientIP(), middleware.RequestLog(log, "/", "/healthz"))

	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": "Your server is up and running..."})
	})
	if deps.Ready != nil {
		app.Get("/healthz", deps.Ready)
	}
	if deps.DevOTP != nil {
		app.Get("/dev/otp", identityhandler.DevOTP(deps.DevOTP))
	}

	gate := middleware.RequireSession(deps.Authenticator, deps.Cookie.Name)
	api := app.Group(APIPrefix)
	identityhandler.New(deps.Auth, deps.Cookie).Register(api, gate)
	notehandler.New(deps.Notes).Register(api, gate)
	return app
}
