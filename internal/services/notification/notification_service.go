package notification

import (
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/notifications"
	"github.com/rajivgeraev/swapstyle-api/internal/utils"
)

// NotificationService представляет сервис для работы с уведомлениями
type NotificationService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	repo       *notifications.Repository
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(cfg *config.Config, repo *notifications.Repository) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		repo:       repo,
	}
}

// GetNotifications возвращает уведомления пользователя, новые первыми
func (s *NotificationService) GetNotifications(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	list, err := s.repo.GetUserNotifications(c.Context(), userID)
	if err != nil {
		log.Printf("Ошибка запроса уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения уведомлений"})
	}

	return c.JSON(fiber.Map{
		"notifications": list,
		"count":         len(list),
	})
}

// GetUnreadCount возвращает число непрочитанных уведомлений
func (s *NotificationService) GetUnreadCount(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	count, err := s.repo.GetUnreadCount(c.Context(), userID)
	if err != nil {
		log.Printf("Ошибка подсчета уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения уведомлений"})
	}

	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkAllAsRead помечает все уведомления пользователя прочитанными
func (s *NotificationService) MarkAllAsRead(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	if err := s.repo.MarkAllAsRead(c.Context(), userID); err != nil {
		log.Printf("Ошибка пометки уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления уведомлений"})
	}

	return c.JSON(fiber.Map{"success": true})
}
