package item

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/items"
	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/utils"
)

// ItemService представляет сервис для работы с вещами
type ItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	repo       *items.Repository
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(cfg *config.Config, repo *items.Repository) *ItemService {
	return &ItemService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		repo:       repo,
	}
}

// CreateItem обрабатывает создание новой вещи
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		Title       string   `json:"title"`
		Brand       string   `json:"brand"`
		Size        string   `json:"size"`
		Category    string   `json:"category"`
		Description string   `json:"description"`
		Photos      []string `json:"photos"`
		TimeSlots   []string `json:"time_slots"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	item := &models.ClothingItem{
		Title:       requestData.Title,
		Brand:       requestData.Brand,
		Size:        requestData.Size,
		Category:    requestData.Category,
		Description: requestData.Description,
		Photos:      requestData.Photos,
		TimeSlots:   requestData.TimeSlots,
	}

	itemID, err := s.repo.CreateItem(c.Context(), userID, item)
	if err != nil {
		if errors.Is(err, items.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("Ошибка создания вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения вещи"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item_id": itemID,
		"message": "Вещь успешно добавлена",
	})
}

// GetItems возвращает доступные вещи других пользователей
func (s *ItemService) GetItems(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	category := c.Query("category", "")

	list, err := s.repo.GetItems(c.Context(), userID, category)
	if err != nil {
		log.Printf("Ошибка запроса вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещей"})
	}

	return c.JSON(fiber.Map{
		"items": list,
		"count": len(list),
	})
}

// SearchItems ищет вещи по названию, бренду, категории или размеру
func (s *ItemService) SearchItems(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	query := c.Query("q", "")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Поисковый запрос не указан"})
	}

	list, err := s.repo.SearchItems(c.Context(), userID, query)
	if err != nil {
		log.Printf("Ошибка поиска вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка поиска вещей"})
	}

	return c.JSON(fiber.Map{
		"items": list,
		"count": len(list),
	})
}

// GetMyItems возвращает вещи текущего пользователя по статусу
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	status := models.ItemStatus(c.Query("status", string(models.ItemStatusAvailable)))

	list, err := s.repo.GetUserItemsByStatus(c.Context(), userID, status)
	if err != nil {
		log.Printf("Ошибка запроса вещей пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещей"})
	}

	return c.JSON(fiber.Map{
		"items": list,
		"count": len(list),
	})
}

// GetSwappableItems возвращает доступные вещи пользователя, которые еще
// не предложены в других обменах — для выбора встречной вещи
func (s *ItemService) GetSwappableItems(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	list, err := s.repo.GetUserItemsByStatus(c.Context(), userID, models.ItemStatusAvailable)
	if err != nil {
		log.Printf("Ошибка запроса вещей пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещей"})
	}

	list, err = s.repo.FilterItemsNotOffered(c.Context(), userID, list)
	if err != nil {
		log.Printf("Ошибка фильтрации предложенных вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещей"})
	}

	return c.JSON(fiber.Map{
		"items": list,
		"count": len(list),
	})
}

// GetItem возвращает детальную информацию о вещи
func (s *ItemService) GetItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	item, err := s.repo.GetItemByID(c.Context(), itemID, userID)
	if err != nil {
		if errors.Is(err, items.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		}
		log.Printf("Ошибка получения вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещи"})
	}

	return c.JSON(fiber.Map{"item": item})
}

// GetItemTimeSlots возвращает слоты времени вещи
func (s *ItemService) GetItemTimeSlots(c fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	slots, err := s.repo.GetItemTimeSlots(c.Context(), itemID)
	if err != nil {
		if errors.Is(err, items.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		}
		log.Printf("Ошибка получения слотов времени: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения слотов времени"})
	}

	return c.JSON(fiber.Map{"time_slots": slots})
}

// CheckItemAvailability перепроверяет доступность вещи для обмена
func (s *ItemService) CheckItemAvailability(c fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	available, err := s.repo.IsItemAvailableForSwap(c.Context(), itemID)
	if err != nil {
		if errors.Is(err, items.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		}
		log.Printf("Ошибка проверки доступности вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки вещи"})
	}

	return c.JSON(fiber.Map{"available": available})
}

// DeleteItem удаляет вещь вместе со всеми связанными предложениями и избранным
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	err := s.repo.DeleteItem(c.Context(), userID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, items.ErrItemNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		case errors.Is(err, items.ErrNotOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к удалению этой вещи"})
		case errors.Is(err, items.ErrItemNotAvailable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Удалить можно только вещь, доступную для обмена"})
		}
		log.Printf("Ошибка удаления вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления вещи"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Вещь успешно удалена",
	})
}
