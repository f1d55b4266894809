package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Friz64/travelhook/internal/config"
	"github.com/Friz64/travelhook/internal/format"
	"github.com/Friz64/travelhook/internal/hafas"
	"github.com/Friz64/travelhook/internal/handler"
	"github.com/Friz64/travelhook/internal/locks"
	"github.com/Friz64/travelhook/internal/metrics"
	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/repository"
	"github.com/Friz64/travelhook/internal/service"
	"github.com/Friz64/travelhook/internal/travelynx"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pelletier/go-toml/v2"
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

	// Инициализация репозиториев и сервисов
	userRepo := repository.NewUserRepository(db)
	tripRepo := repository.NewTripRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	privacyRepo := repository.NewPrivacyRepository(db)
	serverRepo := repository.NewServerRepository(db)
	linkRepo := repository.NewLinkRepository(db)

	tvx := travelynx.NewClient(cfg.TravelynxBase)
	timetable := hafas.NewClient(cfg.HafasBase)
	collector := metrics.NewCollector()
	lockTab := locks.NewTable()

	userService := service.NewUserService(userRepo, privacyRepo, tvx)
	journeyService := service.NewJourneyService(tripRepo, userRepo, cfg.Location)
	headsignService := service.NewHeadsignService(tripRepo, timetable, collector)
	linkService := service.NewLinkService(linkRepo, cfg.WebhookPublicURL, cfg.HafasBase)

	// Инициализация Telegram Bot API
	if cfg.BotToken == "" {
		log.Fatal("Не указан токен бота (BOT_TOKEN)")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("Ошибка инициализации бота:", err)
	}
	log.Printf("Запущен бот %s", bot.Self.UserName)

	feedService := service.NewFeedService(bot, messageRepo, privacyRepo, headsignService, linkService, cfg.Location)

	// Вебхук travelynx живет в том же процессе, что и бот
	h := handler.NewHandler(userService, journeyService, feedService, linkService, lockTab, collector)
	router := gin.Default()
	router.POST("/travelynx", h.Webhook)
	router.GET("/s/:id", h.Unshorten)
	router.GET("/metrics", gin.WrapH(collector.Handler()))
	go func() {
		if err := router.Run(cfg.WebhookAddr); err != nil {
			log.Fatalf("Ошибка запуска вебхук-сервера: %v", err)
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	// Состояние диалогов
	pendingRegister := make(map[int64]bool)    // ждем токен travelynx
	pendingSuggestions := make(map[int64]bool) // ждем список подсказок
	pendingEdit := make(map[int64]string)      // userID -> journeyID, ждем TOML
	pendingManual := make(map[int64]bool)      // ждем описание ручной поездки

	for update := range updates {
		// --- CallbackQuery (inline buttons) ---
		if cq := update.CallbackQuery; cq != nil {
			bot.Request(tgbotapi.NewCallback(cq.ID, ""))
			if cq.Message == nil {
				continue
			}

			fromID := cq.From.ID
			data := cq.Data
			user, err := userService.Find(fromID)
			if err != nil || user == nil {
				continue
			}
			chatID := cq.Message.Chat.ID

			switch {
			// Режим нарезки следующего чекина
			case strings.HasPrefix(data, "BRKMODE_"):
				v, err := strconv.ParseInt(strings.TrimPrefix(data, "BRKMODE_"), 10, 16)
				if err != nil {
					continue
				}
				mode := model.BreakMode(v)
				if err := userService.SetBreakMode(user.ID, mode); err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не удалось сохранить режим."))
					continue
				}
				bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID,
					"Следующий чекин: "+breakModeLabel(mode)))

			// Уровень приватности в этом чате
			case strings.HasPrefix(data, "PRIV_"):
				v, err := strconv.ParseInt(strings.TrimPrefix(data, "PRIV_"), 10, 16)
				if err != nil {
					continue
				}
				level := model.Privacy(v)
				if err := userService.SetPrivacy(user.ID, chatID, level); err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не удалось сохранить уровень."))
					continue
				}
				bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID,
					fmt.Sprintf("Видимость в этом чате: %s", level)))

			// Подтверждение удаления последней поездки
			case data == "UNDO_YES":
				last, err := journeyService.LastTrip(user.ID)
				if err != nil || last == nil {
					bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID, "Нечего отменять."))
					continue
				}
				raw, err := last.UnpatchedStatus()
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Поврежденная запись поездки."))
					continue
				}
				raw.CheckedIn = false
				mu := lockTab.Get(user.ID)
				mu.Lock()
				result, err := journeyService.HandleStatusUpdate(user, "undo", raw)
				if err == nil {
					publishResult(feedService, user, result)
				}
				mu.Unlock()
				switch {
				case errors.Is(err, service.ErrStillCheckedIn):
					bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID,
						"Чекин еще активен. Сначала отмените его в travelynx, потом повторите /undo."))
				case err != nil:
					bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID, "Не получилось: "+err.Error()))
				default:
					bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID, "Последняя поездка удалена."))
				}

			case data == "UNDO_NO":
				bot.Send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID, "Оставил как есть."))
			}

			continue
		}

		// --- Обычные сообщения ---
		if update.Message == nil {
			continue
		}
		msg := update.Message
		chatID := msg.Chat.ID
		userID := msg.From.ID

		// Запоминаем группы, в которых бот состоит: операторский бот
		// привязывает к ним живые каналы
		if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
			if err := serverRepo.Upsert(chatID, msg.Chat.Title); err != nil {
				log.Printf("не удалось сохранить сервер %d: %v", chatID, err)
			}
		}

		// Команды
		if msg.IsCommand() {
			switch msg.Command() {
			case "start", "help":
				bot.Send(tgbotapi.NewMessage(chatID,
					"Я пересылаю чекины travelynx в Telegram.\n\n"+
						"/register - привязать аккаунт travelynx (в личке)\n"+
						"/zug - показать текущую поездку\n"+
						"/history - текущее путешествие целиком\n"+
						"/journey_break - как нарезать следующий чекин\n"+
						"/undo - удалить последнюю поездку\n"+
						"/delay <мин> - записать опоздание\n"+
						"/comment <текст> - комментарий к поездке\n"+
						"/edit - править статус поездки (TOML)\n"+
						"/manualtrip - ручной чекин\n"+
						"/walk <куда> - пеший переход\n"+
						"/privacy - видимость ваших поездок в этом чате\n"+
						"/suggestions - подсказки для ручных чекинов"))

			case "register":
				if !msg.Chat.IsPrivate() {
					bot.Send(tgbotapi.NewMessage(chatID, "Напишите мне в личные сообщения: /register."))
					continue
				}
				pendingRegister[userID] = true
				bot.Send(tgbotapi.NewMessage(chatID,
					"Пришлите токен статуса travelynx (travelynx → Account → API → Status)."))

			case "zug":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				if !msg.Chat.IsPrivate() && !privacyAllows(userService, user.ID, chatID) {
					bot.Send(tgbotapi.NewMessage(chatID, "Настройки приватности не разрешают показывать ваши поездки здесь."))
					continue
				}
				status, err := tvx.Status(user.StatusToken)
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не удалось опросить travelynx. Есть ли активный чекин?"))
					continue
				}
				reason := "checkout"
				if status.CheckedIn {
					reason = "update"
				}
				mu := lockTab.Get(user.ID)
				mu.Lock()
				result, err := journeyService.HandleStatusUpdate(user, reason, *status)
				if err == nil {
					publishResult(feedService, user, result)
				}
				mu.Unlock()
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не получилось: "+err.Error()))
					continue
				}
				if result.Kind != service.ResultPublished || len(result.Trips) == 0 {
					bot.Send(tgbotapi.NewMessage(chatID, "Сейчас нет поездки, которую можно показать."))
					continue
				}
				reply := tgbotapi.NewMessage(chatID, feedService.Render(result.Trips))
				reply.ParseMode = tgbotapi.ModeMarkdown
				reply.DisableWebPagePreview = true
				bot.Send(reply)

			case "history":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				if !msg.Chat.IsPrivate() && !privacyAllows(userService, user.ID, chatID) {
					bot.Send(tgbotapi.NewMessage(chatID, "Настройки приватности не разрешают показывать ваши поездки здесь."))
					continue
				}
				trips, err := journeyService.CurrentTrips(user.ID)
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не удалось прочитать поездки."))
					continue
				}
				if len(trips) == 0 {
					bot.Send(tgbotapi.NewMessage(chatID, "Пока ни одной поездки."))
					continue
				}
				text := format.JourneySummary(trips, cfg.Location) + "\n\n" + feedService.Render(trips)
				reply := tgbotapi.NewMessage(chatID, text)
				reply.ParseMode = tgbotapi.ModeMarkdown
				reply.DisableWebPagePreview = true
				bot.Send(reply)

			case "journey_break":
				if requireUser(bot, userService, userID, chatID) == nil {
					continue
				}
				kb := tgbotapi.NewInlineKeyboardMarkup(
					tgbotapi.NewInlineKeyboardRow(
						tgbotapi.NewInlineKeyboardButtonData("Как обычно", "BRKMODE_0"),
						tgbotapi.NewInlineKeyboardButtonData("Новое путешествие", "BRKMODE_1"),
						tgbotapi.NewInlineKeyboardButtonData("Склеить", "BRKMODE_-1"),
					),
				)
				reply := tgbotapi.NewMessage(chatID,
					"Как нарезать следующий чекин?\n"+
						"«Как обычно» - по расстоянию и времени пересадки.\n"+
						"«Новое путешествие» - принудительно начать новое.\n"+
						"«Склеить» - продолжить текущее, даже если пауза была долгой.")
				reply.ReplyMarkup = kb
				bot.Send(reply)

			case "undo":
				if requireUser(bot, userService, userID, chatID) == nil {
					continue
				}
				kb := tgbotapi.NewInlineKeyboardMarkup(
					tgbotapi.NewInlineKeyboardRow(
						tgbotapi.NewInlineKeyboardButtonData("Да, удалить", "UNDO_YES"),
						tgbotapi.NewInlineKeyboardButtonData("Нет", "UNDO_NO"),
					),
				)
				reply := tgbotapi.NewMessage(chatID, "Удалить последнюю поездку и ее сообщения из ленты?")
				reply.ReplyMarkup = kb
				bot.Send(reply)

			case "delay":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				minutes, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Используйте: /delay <минуты>"))
					continue
				}
				last, err := journeyService.LastTrip(user.ID)
				if err != nil || last == nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Нет поездки, к которой можно записать опоздание."))
					continue
				}
				eff, err := last.Status()
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Поврежденная запись поездки."))
					continue
				}
				doc := map[string]any{
					"fromStation": map[string]any{"realTime": eff.FromStation.ScheduledTime + int64(minutes)*60},
					"toStation":   map[string]any{"realTime": eff.ToStation.ScheduledTime + int64(minutes)*60},
				}
				if applyPatchAndPublish(bot, chatID, lockTab, journeyService, feedService, collector, user, last.JourneyID, doc) {
					bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Записал опоздание %d мин.", minutes)))
				}

			case "comment":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				last, err := journeyService.LastTrip(user.ID)
				if err != nil || last == nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Нет поездки для комментария."))
					continue
				}
				text := strings.TrimSpace(msg.CommandArguments())
				doc := map[string]any{"comment": text}
				if text == "" {
					doc["comment"] = nil
				}
				if applyPatchAndPublish(bot, chatID, lockTab, journeyService, feedService, collector, user, last.JourneyID, doc) {
					if text == "" {
						bot.Send(tgbotapi.NewMessage(chatID, "Комментарий убран."))
					} else {
						bot.Send(tgbotapi.NewMessage(chatID, "Комментарий записан."))
					}
				}

			case "edit":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				if !msg.Chat.IsPrivate() {
					bot.Send(tgbotapi.NewMessage(chatID, "Правки принимаю только в личке."))
					continue
				}
				last, err := journeyService.LastTrip(user.ID)
				if err != nil || last == nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Нет поездки, которую можно править."))
					continue
				}
				doc, err := last.PatchDocument()
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Поврежденный патч поездки."))
					continue
				}
				current, err := toml.Marshal(doc)
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не удалось показать патч."))
					continue
				}
				pendingEdit[userID] = last.JourneyID
				text := "Пришлите правки статуса в TOML. Строка \"null\" удаляет ключ.\nТекущий патч:\n```\n" +
					string(current) + "\n```"
				reply := tgbotapi.NewMessage(chatID, text)
				reply.ParseMode = tgbotapi.ModeMarkdown
				bot.Send(reply)

			case "manualtrip":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				if !msg.Chat.IsPrivate() {
					bot.Send(tgbotapi.NewMessage(chatID, "Ручные чекины принимаю только в личке."))
					continue
				}
				pendingManual[userID] = true
				text := "Опишите поездку одной строкой:\nоткуда | 15:04 | куда | 16:10 | RE 4 | направление (необязательно)"
				if sugg := user.SuggestionList(); len(sugg) > 0 {
					text += "\n\nВаши подсказки:\n" + strings.Join(sugg, "\n")
				}
				bot.Send(tgbotapi.NewMessage(chatID, text))

			case "walk":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				dest := strings.TrimSpace(msg.CommandArguments())
				if dest == "" {
					bot.Send(tgbotapi.NewMessage(chatID, "Используйте: /walk <куда>"))
					continue
				}
				last, err := journeyService.LastTrip(user.ID)
				if err != nil || last == nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Не знаю, откуда вы идете: нет предыдущей поездки."))
					continue
				}
				eff, err := last.Status()
				if err != nil {
					bot.Send(tgbotapi.NewMessage(chatID, "Поврежденная запись поездки."))
					continue
				}
				now := time.Now().Unix()
				status := syntheticStatus(
					eff.ToStation, model.Stop{UIC: 69, Name: dest, ScheduledTime: now, RealTime: now},
					model.Train{Type: "walk"}, "")
				status.FromStation.ScheduledTime = now
				status.FromStation.RealTime = now
				if runStatus(bot, chatID, lockTab, journeyService, feedService, user, "checkout", status) {
					bot.Send(tgbotapi.NewMessage(chatID, "Пеший переход записан."))
				}

			case "privacy":
				if requireUser(bot, userService, userID, chatID) == nil {
					continue
				}
				if msg.Chat.IsPrivate() {
					bot.Send(tgbotapi.NewMessage(chatID, "Видимость настраивается отдельно в каждой группе: выполните /privacy там."))
					continue
				}
				kb := tgbotapi.NewInlineKeyboardMarkup(
					tgbotapi.NewInlineKeyboardRow(
						tgbotapi.NewInlineKeyboardButtonData("Только я", "PRIV_0"),
						tgbotapi.NewInlineKeyboardButtonData("Все", "PRIV_5"),
						tgbotapi.NewInlineKeyboardButtonData("Живая лента", "PRIV_10"),
					),
				)
				reply := tgbotapi.NewMessage(chatID,
					"Кому видны ваши поездки в этом чате?\n"+
						"«Только я» - поездки показываете только вы сами.\n"+
						"«Все» - команды /zug и /history работают у всех.\n"+
						"«Живая лента» - чекины публикуются в живой канал автоматически.")
				reply.ReplyMarkup = kb
				bot.Send(reply)

			case "suggestions":
				user := requireUser(bot, userService, userID, chatID)
				if user == nil {
					continue
				}
				if !msg.Chat.IsPrivate() {
					bot.Send(tgbotapi.NewMessage(chatID, "Подсказки настраиваются в личке."))
					continue
				}
				pendingSuggestions[userID] = true
				text := "Пришлите подсказки для ручных чекинов, по одной на строку."
				if sugg := user.SuggestionList(); len(sugg) > 0 {
					text += "\nСейчас сохранено:\n" + strings.Join(sugg, "\n")
				}
				bot.Send(tgbotapi.NewMessage(chatID, text))
			}
			continue
		}

		// Обработка «ожидающих» состояний, все только в личке

		if pendingRegister[userID] && msg.Chat.IsPrivate() {
			delete(pendingRegister, userID)
			user, err := userService.Register(userID, strings.TrimSpace(msg.Text))
			if err != nil {
				if errors.Is(err, service.ErrBadToken) {
					bot.Send(tgbotapi.NewMessage(chatID, "travelynx не принял токен. Попробуйте /register еще раз."))
				} else {
					log.Printf("ошибка регистрации %d: %v", userID, err)
					bot.Send(tgbotapi.NewMessage(chatID, "Не удалось зарегистрировать, попробуйте позже."))
				}
				continue
			}
			text := "Готово! Теперь добавьте вебхук в travelynx (Account → Webhook):\n" +
				"URL: " + cfg.WebhookPublicURL + "/travelynx\n" +
				"Token: " + user.WebhookToken
			bot.Send(tgbotapi.NewMessage(chatID, text))
			continue
		}

		if pendingSuggestions[userID] && msg.Chat.IsPrivate() {
			delete(pendingSuggestions, userID)
			user := requireUser(bot, userService, userID, chatID)
			if user == nil {
				continue
			}
			lines := strings.Split(msg.Text, "\n")
			if err := userService.SetSuggestions(user.ID, lines); err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Не удалось сохранить подсказки."))
			} else {
				bot.Send(tgbotapi.NewMessage(chatID, "Подсказки сохранены."))
			}
			continue
		}

		if journeyID, ok := pendingEdit[userID]; ok && msg.Chat.IsPrivate() {
			delete(pendingEdit, userID)
			user := requireUser(bot, userService, userID, chatID)
			if user == nil {
				continue
			}
			var doc map[string]any
			if err := toml.Unmarshal([]byte(stripFences(msg.Text)), &doc); err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, "Не разобрал TOML: "+err.Error()))
				continue
			}
			nullify(doc)
			if applyPatchAndPublish(bot, chatID, lockTab, journeyService, feedService, collector, user, journeyID, doc) {
				bot.Send(tgbotapi.NewMessage(chatID, "Правки записаны."))
			}
			continue
		}

		if pendingManual[userID] && msg.Chat.IsPrivate() {
			delete(pendingManual, userID)
			user := requireUser(bot, userService, userID, chatID)
			if user == nil {
				continue
			}
			status, err := parseManualTrip(msg.Text, cfg.Location)
			if err != nil {
				bot.Send(tgbotapi.NewMessage(chatID, err.Error()))
				continue
			}
			if runStatus(bot, chatID, lockTab, journeyService, feedService, user, "checkout", status) {
				bot.Send(tgbotapi.NewMessage(chatID, "Ручной чекин записан."))
			}
			continue
		}
	}
}

// requireUser возвращает зарегистрированного пользователя или nil, ответив в чат.
func requireUser(bot *tgbotapi.BotAPI, users *service.UserService, telegramID, chatID int64) *model.User {
	user, err := users.Find(telegramID)
	if err != nil {
		log.Printf("ошибка поиска пользователя %d: %v", telegramID, err)
		bot.Send(tgbotapi.NewMessage(chatID, "Ошибка базы данных, попробуйте позже."))
		return nil
	}
	if user == nil {
		bot.Send(tgbotapi.NewMessage(chatID, "Сначала зарегистрируйтесь: /register в личке бота."))
		return nil
	}
	return user
}

// privacyAllows отвечает, можно ли показывать поездки пользователя в чате.
func privacyAllows(users *service.UserService, userID, chatID int64) bool {
	level, err := users.Privacy(userID, chatID)
	if err != nil {
		return false
	}
	return level >= model.PrivacyEveryone
}

// runStatus прогоняет статус через обработку и публикацию под замком пользователя.
func runStatus(bot *tgbotapi.BotAPI, chatID int64, lockTab *locks.Table,
	js *service.JourneyService, fs *service.FeedService,
	user *model.User, reason string, status model.Status) bool {
	mu := lockTab.Get(user.ID)
	mu.Lock()
	result, err := js.HandleStatusUpdate(user, reason, status)
	if err == nil {
		publishResult(fs, user, result)
	}
	mu.Unlock()
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, "Не получилось: "+err.Error()))
		return false
	}
	return true
}

// applyPatchAndPublish накладывает патч и публикует итог под замком пользователя.
func applyPatchAndPublish(bot *tgbotapi.BotAPI, chatID int64, lockTab *locks.Table,
	js *service.JourneyService, fs *service.FeedService, collector *metrics.Collector,
	user *model.User, journeyID string, doc map[string]any) bool {
	mu := lockTab.Get(user.ID)
	mu.Lock()
	result, err := js.ApplyPatch(user, journeyID, doc)
	if err == nil {
		collector.PatchesWritten.Inc()
		publishResult(fs, user, result)
	}
	mu.Unlock()
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, "Не получилось: "+err.Error()))
		return false
	}
	return true
}

// publishResult разносит итог обработки по живой ленте.
func publishResult(fs *service.FeedService, user *model.User, result *service.UpdateResult) {
	switch result.Kind {
	case service.ResultPublished:
		if _, err := fs.Publish(user, result.Status, result.Trips); err != nil {
			log.Printf("ошибка публикации в ленту: %v", err)
		}
	case service.ResultUndone:
		if _, err := fs.Unpublish(user, result.Deleted, result.Trips); err != nil {
			log.Printf("ошибка отзыва публикации: %v", err)
		}
	}
}

// syntheticStatus собирает статус ручного чекина с синтетическим
// идентификатором поезда, который не рвет путешествия по расстоянию.
func syntheticStatus(from, to model.Stop, train model.Train, fakeheadsign string) model.Status {
	train.ID = model.SyntheticMarker + strings.ReplaceAll(uuid.NewString(), "-", "")
	train.Fakeheadsign = fakeheadsign
	return model.Status{
		CheckedIn:   false,
		ActionTime:  time.Now().Unix(),
		FromStation: from,
		ToStation:   to,
		Train:       train,
		Visibility:  model.Visibility{Level: 100, Desc: "public"},
	}
}

// parseManualTrip разбирает строку вида "откуда | 15:04 | куда | 16:10 | RE 4 | направление".
func parseManualTrip(text string, loc *time.Location) (model.Status, error) {
	parts := strings.Split(text, "|")
	if len(parts) < 5 {
		return model.Status{}, errors.New("Нужно минимум пять полей: откуда | отправление | куда | прибытие | поезд")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	dep, err := parseClock(parts[1], loc)
	if err != nil {
		return model.Status{}, fmt.Errorf("Не разобрал время отправления %q, жду ЧЧ:ММ", parts[1])
	}
	arr, err := parseClock(parts[3], loc)
	if err != nil {
		return model.Status{}, fmt.Errorf("Не разобрал время прибытия %q, жду ЧЧ:ММ", parts[3])
	}
	if arr < dep {
		arr += 24 * 60 * 60 // приехали уже после полуночи
	}
	fields := strings.Fields(parts[4])
	if len(fields) == 0 {
		return model.Status{}, errors.New("Не указан поезд, например RE 4")
	}
	train := model.Train{Type: fields[0]}
	if len(fields) > 1 {
		train.Line = strings.Join(fields[1:], " ")
	}
	fake := ""
	if len(parts) > 5 {
		fake = parts[5]
	}
	from := model.Stop{UIC: 42, Name: parts[0], ScheduledTime: dep, RealTime: dep}
	to := model.Stop{UIC: 69, Name: parts[2], ScheduledTime: arr, RealTime: arr}
	return syntheticStatus(from, to, train, fake), nil
}

// parseClock переводит "ЧЧ:ММ" в отметку времени на сегодняшней дате.
func parseClock(s string, loc *time.Location) (int64, error) {
	t, err := time.ParseInLocation("15:04", s, loc)
	if err != nil {
		return 0, err
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc).Unix(), nil
}

// nullify заменяет строки "null" на настоящие null: в TOML их не выразить.
func nullify(doc map[string]any) {
	for k, v := range doc {
		switch vv := v.(type) {
		case string:
			if vv == "null" {
				doc[k] = nil
			}
		case map[string]any:
			nullify(vv)
		}
	}
}

// stripFences убирает обрамление ``` из присланного кода.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```toml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// breakModeLabel возвращает подпись режима нарезки для ответов бота.
func breakModeLabel(mode model.BreakMode) string {
	switch mode {
	case model.BreakForce:
		return "новое путешествие"
	case model.BreakGlue:
		return "продолжение текущего"
	default:
		return "как обычно"
	}
}
