package swap

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapstyle-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API обменов
func (s *SwapService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/swaps")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateSwapOffer)
	api.Get("/sent", s.GetSentOffers)
	api.Get("/:id", s.GetSwapOffer)
	api.Put("/:id/status", s.UpdateSwapStatus)

	// Входящие предложения привязаны к вещи владельца
	offers := app.Group("/api/items/:id/offers")
	offers.Use(middleware.AuthMiddleware(s.jwtService))
	offers.Get("/", s.GetItemOffers)
}
