package notification

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapstyle-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API уведомлений
func (s *NotificationService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/notifications")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetNotifications)
	api.Get("/unread_count", s.GetUnreadCount)
	api.Post("/read_all", s.MarkAllAsRead)
}
