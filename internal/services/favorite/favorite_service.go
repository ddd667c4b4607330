package favorite

import (
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/items"
	"github.com/rajivgeraev/swapstyle-api/internal/utils"
)

// FavoriteService представляет сервис для работы с избранным
type FavoriteService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	repo       *items.Repository
}

// NewFavoriteService создает новый экземпляр FavoriteService
func NewFavoriteService(cfg *config.Config, repo *items.Repository) *FavoriteService {
	return &FavoriteService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		repo:       repo,
	}
}

// AddToFavorites добавляет вещь в избранное
func (s *FavoriteService) AddToFavorites(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID string `json:"item_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil || requestData.ItemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	if err := s.repo.AddToFavorites(c.Context(), userID, requestData.ItemID); err != nil {
		log.Printf("Ошибка добавления в избранное: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка добавления в избранное"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// RemoveFromFavorites убирает вещь из избранного
func (s *FavoriteService) RemoveFromFavorites(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	if err := s.repo.RemoveFromFavorites(c.Context(), userID, itemID); err != nil {
		log.Printf("Ошибка удаления из избранного: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления из избранного"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetFavorites возвращает избранные вещи пользователя
func (s *FavoriteService) GetFavorites(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	list, err := s.repo.GetFavoriteItems(c.Context(), userID)
	if err != nil {
		log.Printf("Ошибка запроса избранного: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения избранного"})
	}

	return c.JSON(fiber.Map{
		"items": list,
		"count": len(list),
	})
}
