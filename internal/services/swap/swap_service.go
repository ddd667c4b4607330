package swap

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/swaps"
	"github.com/rajivgeraev/swapstyle-api/internal/utils"
)

// SwapService представляет сервис для работы с предложениями обмена
type SwapService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	repo       *swaps.Repository
}

// NewSwapService создает новый экземпляр SwapService
func NewSwapService(cfg *config.Config, repo *swaps.Repository) *SwapService {
	return &SwapService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		repo:       repo,
	}
}

// CreateSwapOffer обрабатывает создание предложения обмена
func (s *SwapService) CreateSwapOffer(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID           string              `json:"item_id"`
		OfferedItemID    string              `json:"offered_item_id"`
		SelectedTimeSlot string              `json:"selected_time_slot"`
		SelectedLocation models.SwapLocation `json:"selected_location"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	offer := &models.SwapOffer{
		ItemID:           requestData.ItemID,
		OfferedItemID:    requestData.OfferedItemID,
		SelectedTimeSlot: requestData.SelectedTimeSlot,
		SelectedLocation: requestData.SelectedLocation,
	}

	swapID, err := s.repo.CreateSwapOffer(c.Context(), userID, offer)
	if err != nil {
		switch {
		case errors.Is(err, swaps.ErrValidation), errors.Is(err, swaps.ErrInvalidTimeSlot):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, swaps.ErrItemNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		case errors.Is(err, swaps.ErrItemNotAvailable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вещь недоступна для обмена"})
		case errors.Is(err, swaps.ErrDuplicateOffer):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вещь уже предложена в другом обмене"})
		case errors.Is(err, swaps.ErrNotOfferedOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Встречная вещь принадлежит другому пользователю"})
		}
		log.Printf("Ошибка создания предложения обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания предложения обмена"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"swap_id": swapID,
		"message": "Предложение обмена отправлено",
	})
}

// GetSentOffers возвращает исходящие предложения текущего пользователя
func (s *SwapService) GetSentOffers(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	offers, err := s.repo.GetUserSentOffers(c.Context(), userID)
	if err != nil {
		log.Printf("Ошибка запроса исходящих предложений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложений"})
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}

// GetSwapOffer возвращает предложение обмена по идентификатору
func (s *SwapService) GetSwapOffer(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	swapID := c.Params("id")
	if swapID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID предложения не указан"})
	}

	offer, err := s.repo.GetSwapOfferByID(c.Context(), userID, swapID)
	if err != nil {
		if errors.Is(err, swaps.ErrOfferNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предложение обмена не найдено"})
		}
		log.Printf("Ошибка получения предложения обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложения"})
	}

	return c.JSON(fiber.Map{"offer": offer})
}

// UpdateSwapStatus принимает или отклоняет предложение обмена
func (s *SwapService) UpdateSwapStatus(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	swapID := c.Params("id")
	if swapID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID предложения не указан"})
	}

	var requestData struct {
		Status string `json:"status"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	var newStatus models.SwapOfferStatus
	switch strings.ToLower(requestData.Status) {
	case "accepted":
		newStatus = models.SwapStatusAccepted
	case "rejected":
		newStatus = models.SwapStatusRejected
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус предложения"})
	}

	err := s.repo.UpdateSwapOfferStatus(c.Context(), userID, swapID, newStatus)
	if err != nil {
		switch {
		case errors.Is(err, swaps.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предложение обмена не найдено"})
		case errors.Is(err, swaps.ErrOfferNotPending):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Предложение обмена уже обработано"})
		case errors.Is(err, swaps.ErrItemNotAvailable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вещь уже участвует в другом обмене"})
		case errors.Is(err, swaps.ErrInvalidStatus):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус предложения"})
		case errors.Is(err, swaps.ErrPartialUpdate):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Операция применилась не полностью, повторите попытку"})
		}
		log.Printf("Ошибка обновления статуса предложения %s: %v", swapID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления статуса"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  string(newStatus),
	})
}

// GetItemOffers возвращает предложения обмена на вещь владельца
func (s *SwapService) GetItemOffers(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("id")
	if itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	var status *models.SwapOfferStatus
	if raw := c.Query("status", ""); raw != "" {
		st := models.SwapOfferStatus(strings.ToUpper(raw))
		status = &st
	}

	offers, err := s.repo.GetItemSwapOffers(c.Context(), userID, itemID, status)
	if err != nil {
		log.Printf("Ошибка запроса предложений на вещь %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложений"})
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}
