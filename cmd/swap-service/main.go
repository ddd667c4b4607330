package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/swapstyle-api/internal/config"
	"github.com/rajivgeraev/swapstyle-api/internal/db"
	"github.com/rajivgeraev/swapstyle-api/internal/items"
	"github.com/rajivgeraev/swapstyle-api/internal/notifications"
	"github.com/rajivgeraev/swapstyle-api/internal/services/favorite"
	"github.com/rajivgeraev/swapstyle-api/internal/services/item"
	"github.com/rajivgeraev/swapstyle-api/internal/services/notification"
	"github.com/rajivgeraev/swapstyle-api/internal/services/profile"
	"github.com/rajivgeraev/swapstyle-api/internal/services/swap"
	"github.com/rajivgeraev/swapstyle-api/internal/services/sweeper"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
	"github.com/rajivgeraev/swapstyle-api/internal/swaps"
	"github.com/rajivgeraev/swapstyle-api/internal/sweep"
	"github.com/rajivgeraev/swapstyle-api/internal/users"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	ctx, cancel := db.GetContext()
	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		log.Fatalf("❌ Ошибка при создании схемы документов: %v", err)
	}
	cancel()
	docStore := store.NewPostgresStore(db.Pool)

	// Создаём репозитории
	itemsRepo := items.NewRepository(docStore)
	notifRepo := notifications.NewRepository(docStore)
	swapsRepo := swaps.NewRepository(docStore, notifRepo)
	usersRepo := users.NewRepository(docStore)
	sweepService := sweep.NewService(docStore)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "SwapStyle API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Регистрируем маршруты
	item.NewItemService(cfg, itemsRepo).SetupRoutes(app)
	swap.NewSwapService(cfg, swapsRepo).SetupRoutes(app)
	favorite.NewFavoriteService(cfg, itemsRepo).SetupRoutes(app)
	notification.NewNotificationService(cfg, notifRepo).SetupRoutes(app)
	profile.NewProfileService(cfg, usersRepo, sweepService).SetupRoutes(app)
	sweeper.NewSweeperService(cfg, sweepService).SetupRoutes(app)

	// Запускаем сервер
	log.Printf("✅ SwapStyle API запущен на %s", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
