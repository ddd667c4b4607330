package sweeper

import (
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/sweep"
	"github.com/rajivgeraev/swapstyle-api/internal/utils"
)

// SweeperService запускает обработку просроченных слотов по запросу.
// Клиенты дергают этот эндпоинт при входе на главный экран, поэтому
// обработка обязана быть идемпотентной.
type SweeperService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	sweeper    *sweep.Service
}

// NewSweeperService создает новый экземпляр SweeperService
func NewSweeperService(cfg *config.Config, sweeper *sweep.Service) *SweeperService {
	return &SweeperService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		sweeper:    sweeper,
	}
}

// RunSweep выполняет полный проход по просроченным вещам и предложениям
func (s *SweeperService) RunSweep(c fiber.Ctx) error {
	if err := s.sweeper.CheckAndUpdateExpiredItems(c.Context()); err != nil {
		log.Printf("Ошибка обработки просроченных слотов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обработки просроченных слотов"})
	}

	return c.JSON(fiber.Map{"success": true})
}
