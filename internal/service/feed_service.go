package service

import (
	"log"
	"time"

	"github.com/Friz64/travelhook/internal/format"
	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender описывает часть API телеграм-бота, нужную для живой ленты.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// FeedService публикует поездки в живые каналы серверов. У каждой поездки
// в каждом канале не больше одного сообщения: новые события редактируют
// старое сообщение, а не плодят новые.
type FeedService struct {
	bot      Sender
	messages *repository.MessageRepository
	privacy  *repository.PrivacyRepository
	headsign *HeadsignService
	links    *LinkService
	loc      *time.Location
}

// NewFeedService создает новый сервис живой ленты.
func NewFeedService(bot Sender, messages *repository.MessageRepository, privacy *repository.PrivacyRepository, headsign *HeadsignService, links *LinkService, loc *time.Location) *FeedService {
	return &FeedService{bot: bot, messages: messages, privacy: privacy, headsign: headsign, links: links, loc: loc}
}

// Publish разносит обновление поездки по живым каналам пользователя.
// Возвращает число каналов ленты.
func (f *FeedService) Publish(user *model.User, status model.Status, trips []model.Trip) (int, error) {
	channels, err := f.privacy.LiveChannelIDs(user.ID)
	if err != nil {
		return 0, err
	}
	journeyID := status.JourneyID()
	for _, chatID := range channels {
		// не постим, если пользователь вышел из чата и ленту не видит
		member, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: user.TelegramID},
		})
		if err != nil || member.HasLeft() || member.WasKicked() {
			continue
		}

		if existing, err := f.messages.Find(user.ID, journeyID, chatID); err == nil {
			// чекаут мог прийти, когда вручную запощенный следующий чекин
			// уже висит ниже: тогда обрезаем список и ссылаемся на него
			view := trips
			link := ""
			if newer, err := f.messages.FindNewerThan(user.ID, chatID, existing.MessageID); err == nil {
				link = format.MessageLink(chatID, newer.MessageID)
				for i := range trips {
					if trips[i].JourneyID == journeyID {
						view = trips[:i+1]
						break
					}
				}
			}
			f.edit(chatID, existing.MessageID, f.render(view, link))
		} else {
			sent, err := f.send(chatID, f.render(trips, ""))
			if err != nil {
				log.Printf("не удалось отправить сообщение в канал %d: %v", chatID, err)
				continue
			}
			if err := f.messages.Save(&model.Message{
				UserID:    user.ID,
				JourneyID: journeyID,
				ChatID:    chatID,
				MessageID: int64(sent.MessageID),
			}); err != nil {
				log.Printf("не удалось сохранить привязку сообщения: %v", err)
			}
			// ужимаем сообщение предыдущей поездки, чтобы не захламлять канал
			if len(trips) > 1 {
				if prev, err := f.messages.Find(user.ID, trips[len(trips)-2].JourneyID, chatID); err == nil {
					link := format.MessageLink(chatID, int64(sent.MessageID))
					f.edit(chatID, prev.MessageID, f.render(trips[:len(trips)-1], link))
				}
			}
		}
	}
	return len(channels), nil
}

// Unpublish удаляет сообщения стертой поездки и перерисовывает хвост
// путешествия без нее. Возвращает число удаленных сообщений.
func (f *FeedService) Unpublish(user *model.User, deleted *model.Trip, trips []model.Trip) (int, error) {
	msgs, err := f.messages.FindAll(user.ID, deleted.JourneyID)
	if err != nil {
		return 0, err
	}
	for _, m := range msgs {
		if _, err := f.bot.Request(tgbotapi.NewDeleteMessage(m.ChatID, int(m.MessageID))); err != nil {
			log.Printf("не удалось удалить сообщение %d в канале %d: %v", m.MessageID, m.ChatID, err)
		}
	}
	if err := f.messages.Delete(user.ID, deleted.JourneyID); err != nil {
		return 0, err
	}
	if len(trips) > 0 {
		tail := trips[len(trips)-1]
		tailMsgs, err := f.messages.FindAll(user.ID, tail.JourneyID)
		if err != nil {
			return len(msgs), nil
		}
		text := f.render(trips, "")
		for _, m := range tailMsgs {
			f.edit(m.ChatID, m.MessageID, text)
		}
	}
	return len(msgs), nil
}

// Render печатает путешествие так же, как оно выглядит в живой ленте.
func (f *FeedService) Render(trips []model.Trip) string {
	return f.render(trips, "")
}

func (f *FeedService) render(trips []model.Trip, continueLink string) string {
	decor := func(t *model.Trip) format.TripDecor {
		return format.TripDecor{
			Headsign: f.headsign.Resolve(t),
			TrainURL: f.links.TripURL(t),
		}
	}
	text := format.Journey(trips, decor, f.loc)
	if continueLink != "" {
		text = format.ContinuedAt(text, continueLink)
	}
	return text
}

func (f *FeedService) send(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return f.bot.Send(msg)
}

func (f *FeedService) edit(chatID, messageID int64, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, int(messageID), text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	if _, err := f.bot.Send(edit); err != nil {
		log.Printf("не удалось отредактировать сообщение %d в канале %d: %v", messageID, chatID, err)
	}
}
