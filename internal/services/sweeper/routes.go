package sweeper

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapstyle-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для запуска свипа
func (s *SweeperService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/sweep")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.RunSweep)
}
