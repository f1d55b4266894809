// Пакет config собирает настройки бота из файла .env и переменных окружения.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	BotToken      string // токен основного бота
	AdminBotToken string // токен операторского бота
	AdminChatID   int64  // чат, из которого принимаются операторские команды

	WebhookAddr      string // адрес HTTP-сервера вебхуков, например ":6005"
	WebhookPublicURL string // публичный адрес сервиса без пути, для ссылок и регистрации
	APIAddr          string

	TravelynxBase string // базовый URL travelynx API
	HafasBase     string // базовый URL справочного API расписаний

	Location *time.Location
}

// Load читает .env (если он есть) и окружение. Отсутствующие значения
// заменяются умолчаниями, пригодными для локального запуска.
func Load() (*Config, error) {
	// подхватываем .env, отсутствие файла не ошибка
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:           getenvDefault("DB_HOST", "localhost"),
		DBPort:           getenvDefault("DB_PORT", "5432"),
		DBUser:           os.Getenv("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBName:           os.Getenv("DB_NAME"),
		BotToken:         os.Getenv("BOT_TOKEN"),
		AdminBotToken:    os.Getenv("ADMIN_BOT_TOKEN"),
		WebhookAddr:      getenvDefault("WEBHOOK_ADDR", ":6005"),
		WebhookPublicURL: getenvDefault("WEBHOOK_PUBLIC_URL", "http://localhost:6005"),
		APIAddr:          ":" + getenvDefault("API_PORT", "8080"),
		TravelynxBase:    getenvDefault("TRAVELYNX_BASE", "https://travelynx.de"),
		HafasBase:        getenvDefault("HAFAS_BASE", "https://v5.db.transport.rest"),
	}

	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		if _, err := fmt.Sscan(v, &cfg.AdminChatID); err != nil {
			return nil, fmt.Errorf("некорректный ADMIN_CHAT_ID: %q", v)
		}
	}

	tzName := getenvDefault("TZ", "Europe/Berlin")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("некорректный TZ: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName,
	)
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
