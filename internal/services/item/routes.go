package item

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapstyle-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API вещей
func (s *ItemService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/items")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateItem)
	api.Get("/", s.GetItems)
	api.Get("/search", s.SearchItems)
	api.Get("/my", s.GetMyItems)
	api.Get("/my/swappable", s.GetSwappableItems)
	api.Get("/:id", s.GetItem)
	api.Get("/:id/timeslots", s.GetItemTimeSlots)
	api.Get("/:id/available", s.CheckItemAvailability)
	api.Delete("/:id", s.DeleteItem)
}
