package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Friz64/travelhook/internal/model"

	"github.com/jmoiron/sqlx"
)

// PrivacyRepository обеспечивает доступ к уровням приватности пользователей по чатам.
type PrivacyRepository struct {
	db *sqlx.DB
}

// NewPrivacyRepository создает новый репозиторий настроек приватности.
func NewPrivacyRepository(db *sqlx.DB) *PrivacyRepository {
	return &PrivacyRepository{db: db}
}

// Set сохраняет уровень приватности пользователя для чата.
func (r *PrivacyRepository) Set(userID int64, chatID int64, level model.Privacy) error {
	_, err := r.db.Exec(`INSERT INTO user_privacy (user_id, chat_id, level) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, chat_id) DO UPDATE SET level = EXCLUDED.level`,
		userID, chatID, level)
	if err != nil {
		return fmt.Errorf("не удалось сохранить уровень приватности: %w", err)
	}
	return nil
}

// Get возвращает уровень приватности пользователя для чата. Если настройки нет,
// действует самый закрытый уровень.
func (r *PrivacyRepository) Get(userID int64, chatID int64) (model.Privacy, error) {
	var level model.Privacy
	err := r.db.Get(&level, "SELECT level FROM user_privacy WHERE user_id=$1 AND chat_id=$2", userID, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PrivacyMe, nil
	}
	if err != nil {
		return model.PrivacyMe, fmt.Errorf("не удалось получить уровень приватности: %w", err)
	}
	return level, nil
}

// LiveChannelIDs возвращает живые каналы всех чатов, где пользователь включил
// уровень LIVE и чат настроил канал для публикаций.
func (r *PrivacyRepository) LiveChannelIDs(userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.Select(&ids,
		`SELECT s.live_channel_id FROM user_privacy p
		 JOIN servers s ON p.chat_id = s.chat_id
		 WHERE p.user_id=$1 AND p.level >= $2 AND s.live_channel_id <> 0`,
		userID, model.PrivacyLive)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении живых каналов: %w", err)
	}
	return ids, nil
}
