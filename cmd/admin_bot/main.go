package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Friz64/travelhook/internal/config"
	"github.com/Friz64/travelhook/internal/repository"
	"github.com/Friz64/travelhook/internal/service"
	"github.com/Friz64/travelhook/internal/travelynx"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
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

	userRepo := repository.NewUserRepository(db)
	privacyRepo := repository.NewPrivacyRepository(db)
	serverRepo := repository.NewServerRepository(db)
	userService := service.NewUserService(userRepo, privacyRepo, travelynx.NewClient(cfg.TravelynxBase))

	if cfg.AdminBotToken == "" {
		log.Fatal("Не указан токен операторского бота (ADMIN_BOT_TOKEN)")
	}
	if cfg.AdminChatID == 0 {
		log.Fatal("Не указан операторский чат (ADMIN_CHAT_ID)")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.AdminBotToken)
	if err != nil {
		log.Fatal("Ошибка инициализации операторского бота:", err)
	}
	log.Printf("Запущен операторский бот %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		msg := update.Message
		chatID := msg.Chat.ID
		// команды принимаются только из операторского чата
		if chatID != cfg.AdminChatID {
			continue
		}

		switch msg.Command() {
		case "start", "help":
			bot.Send(tgbotapi.NewMessage(chatID,
				"/servers - группы, где живет бот\n"+
					"/setlive <chat_id> <channel_id> - привязать живой канал\n"+
					"/resettoken <telegram_id> - выдать новый секрет вебхука\n"+
					"/stats - счетчики базы"))

		case "servers":
			servers, err := serverRepo.List()
			if err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Не удалось прочитать список серверов."))
				continue
			}
			if len(servers) == 0 {
				bot.Send(tgbotapi.NewMessage(chatID, "Бот пока не видел ни одной группы."))
				continue
			}
			var b strings.Builder
			for _, s := range servers {
				fmt.Fprintf(&b, "%d - %s", s.ChatID, s.Title)
				if s.LiveChannelID != 0 {
					fmt.Fprintf(&b, " (лента: %d)", s.LiveChannelID)
				}
				b.WriteString("\n")
			}
			bot.Send(tgbotapi.NewMessage(chatID, b.String()))

		case "setlive":
			args := strings.Fields(msg.CommandArguments())
			if len(args) != 2 {
				bot.Send(tgbotapi.NewMessage(chatID, "Использование: /setlive <chat_id> <channel_id>"))
				continue
			}
			groupID, err1 := strconv.ParseInt(args[0], 10, 64)
			channelID, err2 := strconv.ParseInt(args[1], 10, 64)
			if err1 != nil || err2 != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Некорректные идентификаторы."))
				continue
			}
			if err := serverRepo.SetLiveChannel(groupID, channelID); err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Не удалось сохранить: "+err.Error()))
				continue
			}
			bot.Send(tgbotapi.NewMessage(chatID, "Живой канал привязан."))

		case "resettoken":
			telegramID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
			if err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Использование: /resettoken <telegram_id>"))
				continue
			}
			user, err := userService.Find(telegramID)
			if err != nil || user == nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Пользователь не найден."))
				continue
			}
			token, err := userService.ResetWebhookToken(user.ID)
			if err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Не удалось обновить токен."))
				continue
			}
			bot.Send(tgbotapi.NewMessage(chatID,
				fmt.Sprintf("Новый секрет вебхука пользователя %d:\n%s", telegramID, token)))

		case "stats":
			var users, trips, recent, messages int
			db.Get(&users, "SELECT COUNT(*) FROM users")
			db.Get(&trips, "SELECT COUNT(*) FROM trips")
			db.Get(&recent, "SELECT COUNT(*) FROM trips WHERE from_time > $1",
				time.Now().Add(-24*time.Hour).Unix())
			db.Get(&messages, "SELECT COUNT(*) FROM messages")
			bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
				"Пользователей: %d\nПоездок: %d\nПоездок за сутки: %d\nСообщений в лентах: %d",
				users, trips, recent, messages)))
		}
	}
}
