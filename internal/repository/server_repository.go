package repository

import (
	"fmt"

	"github.com/Friz64/travelhook/internal/model"

	"github.com/jmoiron/sqlx"
)

// ServerRepository обеспечивает доступ к настройкам групповых чатов.
type ServerRepository struct {
	db *sqlx.DB
}

// NewServerRepository создает новый репозиторий чатов.
func NewServerRepository(db *sqlx.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// Upsert регистрирует чат или обновляет его название.
func (r *ServerRepository) Upsert(chatID int64, title string) error {
	_, err := r.db.Exec(`INSERT INTO servers (chat_id, title) VALUES ($1, $2)
	          ON CONFLICT (chat_id) DO UPDATE SET title = EXCLUDED.title`, chatID, title)
	if err != nil {
		return fmt.Errorf("не удалось сохранить чат: %w", err)
	}
	return nil
}

// SetLiveChannel назначает чату канал для живых публикаций.
func (r *ServerRepository) SetLiveChannel(chatID int64, channelID int64) error {
	_, err := r.db.Exec("UPDATE servers SET live_channel_id=$1 WHERE chat_id=$2", channelID, chatID)
	if err != nil {
		return fmt.Errorf("не удалось назначить живой канал: %w", err)
	}
	return nil
}

// Get возвращает настройки чата по его идентификатору.
func (r *ServerRepository) Get(chatID int64) (*model.Server, error) {
	var server model.Server
	err := r.db.Get(&server, "SELECT * FROM servers WHERE chat_id=$1", chatID)
	if err != nil {
		return nil, err
	}
	return &server, nil
}

// List возвращает все чаты, в которых работает бот.
func (r *ServerRepository) List() ([]model.Server, error) {
	servers := []model.Server{}
	err := r.db.Select(&servers, "SELECT * FROM servers ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка чатов: %w", err)
	}
	return servers, nil
}
