package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/example/tiffin/internal/config"
	"github.com/example/tiffin/internal/database"
	"github.com/example/tiffin/internal/routes"
	"github.com/example/tiffin/internal/services"
	"github.com/example/tiffin/internal/utils"
)

func main() {
	cfg := config.Load()
	utils.ConfigureBusinessTimezone(cfg.BusinessTimezone)
	db := database.Connect(cfg.DatabaseURL)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	app := fiber.New(fiber.Config{
		AppName: "Tiffin Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.Register(app, db, rdb, cfg)

	notifier := services.NewNotifierService(cfg.TelegramBotToken, cfg.TelegramOpsChat)
	scheduler := services.NewDeadlineScheduler(db, notifier)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}
	defer scheduler.Stop()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
