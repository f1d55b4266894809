package repository

import (
	"fmt"

	"github.com/Friz64/travelhook/internal/model"

	"github.com/jmoiron/sqlx"
)

// UserRepository обеспечивает доступ к данным пользователей в базе данных.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый репозиторий пользователей.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create добавляет нового пользователя в базу. Возвращает ID созданного пользователя.
func (r *UserRepository) Create(user *model.User) (int64, error) {
	query := `INSERT INTO users (telegram_id, status_token, webhook_token, break_journey, suggestions)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := r.db.QueryRow(query, user.TelegramID, user.StatusToken, user.WebhookToken,
		user.BreakMode, user.Suggestions).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать пользователя: %w", err)
	}
	return id, nil
}

// GetByTelegramID ищет пользователя по его Telegram ID. Возвращает nil, если не найдено.
func (r *UserRepository) GetByTelegramID(telegramID int64) (*model.User, error) {
	var user model.User
	err := r.db.Get(&user, "SELECT * FROM users WHERE telegram_id=$1", telegramID)
	if err != nil {
		// sqlx.Get возвращает ошибку, если не найдено (sql.ErrNoRows и др.)
		return nil, err
	}
	return &user, nil
}

// GetByWebhookToken ищет пользователя по секрету входящего вебхука.
func (r *UserRepository) GetByWebhookToken(token string) (*model.User, error) {
	var user model.User
	err := r.db.Get(&user, "SELECT * FROM users WHERE webhook_token=$1", token)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID возвращает пользователя по внутреннему идентификатору.
func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Get(&user, "SELECT * FROM users WHERE id=$1", id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetBreakMode сохраняет режим склейки следующего чекина.
func (r *UserRepository) SetBreakMode(userID int64, mode model.BreakMode) error {
	_, err := r.db.Exec("UPDATE users SET break_journey=$1 WHERE id=$2", mode, userID)
	if err != nil {
		return fmt.Errorf("не удалось сохранить режим склейки: %w", err)
	}
	return nil
}

// SetSuggestions сохраняет подсказки пользователя для ручных чекинов.
func (r *UserRepository) SetSuggestions(userID int64, suggestions string) error {
	_, err := r.db.Exec("UPDATE users SET suggestions=$1 WHERE id=$2", suggestions, userID)
	if err != nil {
		return fmt.Errorf("не удалось сохранить подсказки: %w", err)
	}
	return nil
}

// SetStatusToken сохраняет новый токен чтения статуса travelynx.
func (r *UserRepository) SetStatusToken(userID int64, token string) error {
	_, err := r.db.Exec("UPDATE users SET status_token=$1 WHERE id=$2", token, userID)
	if err != nil {
		return fmt.Errorf("не удалось обновить токен статуса: %w", err)
	}
	return nil
}

// ResetWebhookToken заменяет секрет входящего вебхука пользователя.
func (r *UserRepository) ResetWebhookToken(userID int64, token string) error {
	_, err := r.db.Exec("UPDATE users SET webhook_token=$1 WHERE id=$2", token, userID)
	if err != nil {
		return fmt.Errorf("не удалось обновить токен вебхука: %w", err)
	}
	return nil
}
