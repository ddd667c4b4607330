package profile

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapstyle-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API профилей
func (s *ProfileService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/profile")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetMyProfile)
	api.Post("/", s.CreateProfile)
	api.Put("/image", s.UpdateProfileImage)
	api.Get("/:id", s.GetProfile)

	logout := app.Group("/api/logout")
	logout.Use(middleware.AuthMiddleware(s.jwtService))
	logout.Post("/", s.Logout)
}
