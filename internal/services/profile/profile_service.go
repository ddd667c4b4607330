package profile

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/sweep"
	"github.com/rajivgeraev/swapstyle-api/internal/users"
	"github.com/rajivgeraev/swapstyle-api/internal/utils"
)

// ProfileService представляет сервис для работы с профилями пользователей
type ProfileService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	repo       *users.Repository
	sweeper    *sweep.Service
}

// NewProfileService создает новый экземпляр ProfileService
func NewProfileService(cfg *config.Config, repo *users.Repository, sweeper *sweep.Service) *ProfileService {
	return &ProfileService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		repo:       repo,
		sweeper:    sweeper,
	}
}

// GetMyProfile возвращает профиль текущего пользователя
func (s *ProfileService) GetMyProfile(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	return s.respondProfile(c, userID)
}

// GetProfile возвращает публичный профиль пользователя по идентификатору
func (s *ProfileService) GetProfile(c fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID пользователя не указан"})
	}

	return s.respondProfile(c, userID)
}

func (s *ProfileService) respondProfile(c fiber.Ctx, userID string) error {
	user, err := s.repo.GetUserProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка получения профиля %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения профиля"})
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"level": user.UserLevel(),
	})
}

// CreateProfile сохраняет профиль текущего пользователя
func (s *ProfileService) CreateProfile(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	}
	if err := c.Bind().Body(&requestData); err != nil || requestData.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Имя пользователя не указано"})
	}

	user := &models.User{
		ID:              userID,
		Username:        requestData.Username,
		ProfileImageURL: requestData.ProfileImageURL,
	}
	if err := s.repo.CreateUserProfile(c.Context(), user); err != nil {
		log.Printf("Ошибка сохранения профиля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения профиля"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// UpdateProfileImage обновляет аватар текущего пользователя
func (s *ProfileService) UpdateProfileImage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ProfileImageURL string `json:"profile_image_url"`
	}
	if err := c.Bind().Body(&requestData); err != nil || requestData.ProfileImageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ссылка на изображение не указана"})
	}

	if err := s.repo.UpdateProfileImage(c.Context(), userID, requestData.ProfileImageURL); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка обновления аватара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления аватара"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Logout завершает сессию пользователя. Сессионный кеш обработанных
// обменов сбрасывается, чтобы новый вход начинался с чистого состояния.
func (s *ProfileService) Logout(c fiber.Ctx) error {
	s.sweeper.ClearProcessedSwaps()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Вы вышли из аккаунта",
	})
}
