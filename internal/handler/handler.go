package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Friz64/travelhook/internal/locks"
	"github.com/Friz64/travelhook/internal/metrics"
	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/service"

	"github.com/gin-gonic/gin"
)

// UserDirectory описывает поиск пользователей, нужный обработчикам.
type UserDirectory interface {
	FindByWebhookToken(token string) (*model.User, error)
	Find(telegramID int64) (*model.User, error)
}

// JourneyProcessor описывает обработку событий и чтение текущего путешествия.
type JourneyProcessor interface {
	HandleStatusUpdate(user *model.User, reason string, status model.Status) (*service.UpdateResult, error)
	CurrentTrips(userID int64) ([]model.Trip, error)
}

// FeedPublisher описывает публикацию путешествий в живые каналы.
type FeedPublisher interface {
	Publish(user *model.User, status model.Status, trips []model.Trip) (int, error)
	Unpublish(user *model.User, deleted *model.Trip, trips []model.Trip) (int, error)
}

// LinkResolver описывает разворачивание коротких ссылок.
type LinkResolver interface {
	Resolve(shortID string) (*model.Link, error)
}

// Handler структурирует зависимости сервисов для обработки HTTP-запросов.
type Handler struct {
	UserService    UserDirectory
	JourneyService JourneyProcessor
	FeedService    FeedPublisher
	LinkService    LinkResolver
	Locks          *locks.Table
	Metrics        *metrics.Collector
}

// NewHandler создает новый Handler с внедрением зависимостей (сервисов).
func NewHandler(us UserDirectory, js JourneyProcessor, fs FeedPublisher,
	ls LinkResolver, lt *locks.Table, m *metrics.Collector) *Handler {
	return &Handler{
		UserService:    us,
		JourneyService: js,
		FeedService:    fs,
		LinkService:    ls,
		Locks:          lt,
		Metrics:        m,
	}
}

// webhookEvent представляет тело push-уведомления travelynx.
type webhookEvent struct {
	Reason string       `json:"reason"`
	Status model.Status `json:"status"`
}

// Webhook обработчик для POST /travelynx - принимает push-уведомления travelynx.
// Тексты ответов читает сам travelynx, поэтому они на языке его журнала.
func (h *Handler) Webhook(c *gin.Context) {
	started := time.Now()
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	user, err := h.UserService.FindByWebhookToken(token)
	if err != nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		log.Printf("вебхук с неизвестным токеном %q", token)
		c.String(http.StatusUnauthorized, "unknown token")
		return
	}
	var event webhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.observe("malformed", "invalid", started)
		c.Status(http.StatusNoContent)
		return
	}

	// весь разбор события и публикация идут под замком пользователя
	mu := h.Locks.Get(user.ID)
	mu.Lock()
	defer mu.Unlock()

	log.Printf("вебхук: %d %s %s %s", user.TelegramID, event.Reason,
		event.Status.Train.Type, event.Status.Train.No)

	result, err := h.JourneyService.HandleStatusUpdate(user, event.Reason, event.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStillCheckedIn):
			h.observe(event.Reason, "rejected", started)
			c.String(http.StatusOK, "Not unpublishing last checkin: you're still checked in. "+
				"Undo your checkout in travelynx first, then undo the checkin.")
		case errors.Is(err, service.ErrNoTrip):
			h.observe(event.Reason, "rejected", started)
			c.String(http.StatusOK, "Nothing to undo")
		default:
			log.Printf("ошибка обработки вебхука: %v", err)
			h.observe(event.Reason, "error", started)
			c.String(http.StatusInternalServerError, "internal error")
		}
		return
	}

	switch result.Kind {
	case service.ResultPing:
		h.observe(event.Reason, "ping", started)
		c.String(http.StatusOK, "travelynx relay bot successfully connected!")
	case service.ResultInvalid:
		h.observe(event.Reason, "invalid", started)
		c.Status(http.StatusNoContent)
	case service.ResultPrivate:
		h.observe(event.Reason, "private", started)
		c.String(http.StatusOK, "Not publishing private %s in %s %s",
			event.Reason, event.Status.Train.Type, event.Status.Train.No)
	case service.ResultUndone:
		n, err := h.FeedService.Unpublish(user, result.Deleted, result.Trips)
		if err != nil {
			log.Printf("ошибка отзыва публикации: %v", err)
			h.observe(event.Reason, "error", started)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
		h.observe(event.Reason, "undone", started)
		c.String(http.StatusOK, "Unpublished last checkin for %d channels", n)
	case service.ResultPublished:
		if result.NewJourney {
			h.Metrics.JourneysStarted.Inc()
		}
		n, err := h.FeedService.Publish(user, event.Status, result.Trips)
		if err != nil {
			log.Printf("ошибка публикации: %v", err)
			h.observe(event.Reason, "error", started)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
		h.observe(event.Reason, "published", started)
		c.String(http.StatusOK, "Successfully published %s %s %s to %d channels",
			event.Status.Train.Type, event.Status.Train.No, event.Reason, n)
	}
}

// Unshorten обработчик для GET /s/:id - разворачивает короткую ссылку.
func (h *Handler) Unshorten(c *gin.Context) {
	link, err := h.LinkService.Resolve(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось найти ссылку"})
		return
	}
	if link == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Redirect(http.StatusFound, link.LongURL)
}

// Status обработчик для GET /api/status/:telegram_id - отдает текущее
// путешествие пользователя в виде эффективных статусов.
func (h *Handler) Status(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный идентификатор"})
		return
	}
	user, err := h.UserService.Find(telegramID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось найти пользователя"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не зарегистрирован"})
		return
	}
	trips, err := h.JourneyService.CurrentTrips(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить поездки"})
		return
	}
	statuses := make([]model.Status, 0, len(trips))
	for i := range trips {
		status, err := trips[i].Status()
		if err != nil {
			continue
		}
		statuses = append(statuses, status)
	}
	c.JSON(http.StatusOK, gin.H{"telegramId": telegramID, "trips": statuses})
}

func (h *Handler) observe(reason, outcome string, started time.Time) {
	h.Metrics.WebhookEvents.WithLabelValues(reason, outcome).Inc()
	h.Metrics.LastEventTime.SetToCurrentTime()
	h.Metrics.HandlerDuration.Observe(time.Since(started).Seconds())
}
