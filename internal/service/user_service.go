package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/repository"
	"github.com/google/uuid"
)

// TokenChecker проверяет токены чтения статуса travelynx.
type TokenChecker interface {
	TokenValid(token string) bool
}

// ErrBadToken сообщает, что travelynx не принял присланный токен чтения.
var ErrBadToken = errors.New("travelynx не принял этот токен")

// UserService содержит бизнес-логику, связанную с пользователями.
type UserService struct {
	userRepo    *repository.UserRepository
	privacyRepo *repository.PrivacyRepository
	travelynx   TokenChecker
}

// NewUserService создает новый сервис пользователей.
func NewUserService(userRepo *repository.UserRepository, privacyRepo *repository.PrivacyRepository, travelynx TokenChecker) *UserService {
	return &UserService{userRepo: userRepo, privacyRepo: privacyRepo, travelynx: travelynx}
}

// Find возвращает пользователя по Telegram ID или nil, если он не зарегистрирован.
func (s *UserService) Find(telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}
	return user, nil
}

// FindByWebhookToken возвращает пользователя по секрету вебхука или nil.
func (s *UserService) FindByWebhookToken(token string) (*model.User, error) {
	user, err := s.userRepo.GetByWebhookToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}
	return user, nil
}

// Register проверяет токен чтения в travelynx и регистрирует пользователя.
// Повторная регистрация обновляет токен чтения, секрет вебхука остается прежним.
func (s *UserService) Register(telegramID int64, statusToken string) (*model.User, error) {
	if !s.travelynx.TokenValid(statusToken) {
		return nil, ErrBadToken
	}
	existing, err := s.Find(telegramID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.userRepo.SetStatusToken(existing.ID, statusToken); err != nil {
			return nil, err
		}
		existing.StatusToken = statusToken
		return existing, nil
	}
	user := &model.User{
		TelegramID:   telegramID,
		StatusToken:  statusToken,
		WebhookToken: newWebhookToken(),
	}
	id, err := s.userRepo.Create(user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// ResetWebhookToken выдает пользователю новый секрет вебхука.
func (s *UserService) ResetWebhookToken(userID int64) (string, error) {
	token := newWebhookToken()
	if err := s.userRepo.ResetWebhookToken(userID, token); err != nil {
		return "", err
	}
	return token, nil
}

// SetBreakMode запоминает, как нарезать следующий чекин пользователя.
func (s *UserService) SetBreakMode(userID int64, mode model.BreakMode) error {
	return s.userRepo.SetBreakMode(userID, mode)
}

// SetSuggestions сохраняет подсказки для ручных чекинов, по одной на строку.
func (s *UserService) SetSuggestions(userID int64, items []string) error {
	return s.userRepo.SetSuggestions(userID, strings.Join(items, "\n"))
}

// SetPrivacy сохраняет уровень видимости пользователя в чате.
func (s *UserService) SetPrivacy(userID, chatID int64, level model.Privacy) error {
	return s.privacyRepo.Set(userID, chatID, level)
}

// Privacy возвращает уровень видимости пользователя в чате.
func (s *UserService) Privacy(userID, chatID int64) (model.Privacy, error) {
	return s.privacyRepo.Get(userID, chatID)
}

func newWebhookToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
