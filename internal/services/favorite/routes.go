package favorite

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapstyle-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API избранного
func (s *FavoriteService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/favorites")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.AddToFavorites)
	api.Get("/", s.GetFavorites)
	api.Delete("/:id", s.RemoveFromFavorites)
}
