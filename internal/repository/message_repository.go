package repository

import (
	"fmt"

	"github.com/Friz64/travelhook/internal/model"

	"github.com/jmoiron/sqlx"
)

// MessageRepository обеспечивает учет опубликованных в живые каналы сообщений.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создает новый репозиторий сообщений.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save сохраняет привязку сообщения к поездке и каналу.
func (r *MessageRepository) Save(msg *model.Message) error {
	_, err := r.db.Exec(`INSERT INTO messages (user_id, journey_id, chat_id, message_id)
	                      VALUES ($1, $2, $3, $4)
	                      ON CONFLICT (user_id, journey_id, chat_id) DO UPDATE SET message_id = EXCLUDED.message_id`,
		msg.UserID, msg.JourneyID, msg.ChatID, msg.MessageID)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении сообщения: %w", err)
	}
	return nil
}

// Find возвращает сообщение данной поездки в данном канале.
func (r *MessageRepository) Find(userID int64, journeyID string, chatID int64) (*model.Message, error) {
	var msg model.Message
	err := r.db.Get(&msg, "SELECT * FROM messages WHERE user_id=$1 AND journey_id=$2 AND chat_id=$3",
		userID, journeyID, chatID)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindAll возвращает сообщения поездки во всех каналах.
func (r *MessageRepository) FindAll(userID int64, journeyID string) ([]model.Message, error) {
	messages := []model.Message{}
	err := r.db.Select(&messages, "SELECT * FROM messages WHERE user_id=$1 AND journey_id=$2", userID, journeyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений поездки: %w", err)
	}
	return messages, nil
}

// FindNewerThan возвращает следующее по порядку сообщение пользователя в канале,
// если такое есть. По нему строится ссылка «продолжение следует».
func (r *MessageRepository) FindNewerThan(userID int64, chatID int64, messageID int64) (*model.Message, error) {
	var msg model.Message
	err := r.db.Get(&msg,
		`SELECT * FROM messages WHERE user_id=$1 AND chat_id=$2 AND message_id > $3
		 ORDER BY message_id LIMIT 1`, userID, chatID, messageID)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete удаляет привязки сообщений поездки (сами сообщения удаляет бот).
func (r *MessageRepository) Delete(userID int64, journeyID string) error {
	_, err := r.db.Exec("DELETE FROM messages WHERE user_id=$1 AND journey_id=$2", userID, journeyID)
	if err != nil {
		return fmt.Errorf("не удалось удалить сообщения поездки: %w", err)
	}
	return nil
}
