package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/denizaksu/calcgate/internal/config"
)

// CORS allows the configured browser origins. Credentials stay off, auth is
// bearer-token only.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET, POST, DELETE, OPTIONS",
		AllowHeaders: "Origin, Content-Type, Authorization, Accept",
	})
}
