package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/denizaksu/calcgate/internal/config"
	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/handlers"
	"github.com/denizaksu/calcgate/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	calculateHandler *handlers.CalculateHandler,
	adminUsers *handlers.AdminUsersHandler,
	adminRoles *handlers.AdminRolesHandler,
	adminHistory *handlers.AdminHistoryHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth endpoints are public with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login/start", authHandler.LoginStart)
	auth.Post("/login/verify", authHandler.LoginVerify)
	auth.Post("/admin/login", authHandler.AdminLogin)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Calculator: any authenticated user; authorization happens per request
	// against the effective role table.
	api.Post("/calculate", middleware.JWTProtected(cfg), calculateHandler.Calculate)

	// Admin surface: AdminRole group claim required before any other logic.
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired())
	admin.Get("/users", adminUsers.List)
	admin.Post("/users/role", adminUsers.UpdateRole)
	admin.Post("/users/block", adminUsers.Block)
	admin.Delete("/users", adminUsers.Delete)
	admin.Get("/roles", adminRoles.List)
	admin.Post("/roles", adminRoles.Create)
	admin.Delete("/roles", adminRoles.Delete)
	admin.Get("/history", adminHistory.List)
	admin.Delete("/history", adminHistory.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Not found"})
	})
}
