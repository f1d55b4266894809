package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/Friz64/travelhook/internal/config"
	"github.com/Friz64/travelhook/internal/handler"
	"github.com/Friz64/travelhook/internal/locks"
	"github.com/Friz64/travelhook/internal/metrics"
	"github.com/Friz64/travelhook/internal/repository"
	"github.com/Friz64/travelhook/internal/service"
	"github.com/Friz64/travelhook/internal/travelynx"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL драйвер
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
	}
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("Не удалось подключиться к базе данных: %v", err)
	}
	// Выполняем миграции (если есть)
	files, err := filepath.Glob("migrations/*.sql")
	if err == nil {
		for _, file := range files {
			if _, err := db.Exec("BEGIN"); err != nil {
				log.Printf("Ошибка при инициации транзакции миграции: %v", err)
				continue
			}
			err := func() error {
				content, readErr := os.ReadFile(file)
				if readErr != nil {
					return readErr
				}
				if _, execErr := db.Exec(string(content)); execErr != nil {
					return execErr
				}
				return nil
			}()
			if err != nil {
				log.Printf("Миграция %s завершилась ошибкой: %v", file, err)
				db.Exec("ROLLBACK")
			} else {
				db.Exec("COMMIT")
				log.Printf("Миграция %s применена.", file)
			}
		}
	}

	// Инициализируем репозитории
	userRepo := repository.NewUserRepository(db)
	tripRepo := repository.NewTripRepository(db)
	privacyRepo := repository.NewPrivacyRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	// Инициализируем сервисы
	tvx := travelynx.NewClient(cfg.TravelynxBase)
	collector := metrics.NewCollector()
	userService := service.NewUserService(userRepo, privacyRepo, tvx)
	journeyService := service.NewJourneyService(tripRepo, userRepo, cfg.Location)
	linkService := service.NewLinkService(linkRepo, cfg.WebhookPublicURL, cfg.HafasBase)

	// Вебхук travelynx и живую ленту обслуживает процесс бота, здесь
	// только читающие маршруты
	h := handler.NewHandler(userService, journeyService, nil, linkService, locks.NewTable(), collector)
	router := gin.Default()
	api := router.Group("/api")
	{
		api.GET("/status/:telegram_id", h.Status)
	}
	router.GET("/s/:id", h.Unshorten)
	router.GET("/metrics", gin.WrapH(collector.Handler()))
	// Health-check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Запускаем HTTP-сервер
	if err := router.Run(cfg.APIAddr); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
