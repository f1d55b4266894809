package repository

import (
	"encoding/json"
	"fmt"

	"github.com/Friz64/travelhook/internal/model"

	"github.com/jmoiron/sqlx"
)

// TripRepository обеспечивает доступ к сохраненным чекинам в базе данных.
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository создает новый репозиторий поездок.
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Upsert вставляет новую поездку или переписывает сырой статус существующей.
// Патч правок и признак начала цепочки при конфликте не трогаются, поэтому
// повторная доставка одного и того же вебхука безопасна.
func (r *TripRepository) Upsert(userID int64, status model.Status, startsJourney bool) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать статус: %w", err)
	}
	_, err = r.db.Exec(`INSERT INTO trips (user_id, journey_id, from_time, travelynx_status, starts_journey)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (user_id, journey_id) DO UPDATE SET travelynx_status = EXCLUDED.travelynx_status`,
		userID, status.JourneyID(), status.FromStation.ScheduledTime, raw, startsJourney)
	if err != nil {
		return fmt.Errorf("не удалось сохранить поездку: %w", err)
	}
	return nil
}

// Find возвращает поездку по ключу (пользователь, journey_id).
func (r *TripRepository) Find(userID int64, journeyID string) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.Get(&trip, "SELECT * FROM trips WHERE user_id=$1 AND journey_id=$2", userID, journeyID)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// FindLast возвращает самую позднюю по отправлению поездку пользователя.
func (r *TripRepository) FindLast(userID int64) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.Get(&trip, "SELECT * FROM trips WHERE user_id=$1 ORDER BY from_time DESC LIMIT 1", userID)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// FindCurrent возвращает поездки текущей цепочки по возрастанию времени
// отправления: все начиная с последней поездки, начавшей новую цепочку.
func (r *TripRepository) FindCurrent(userID int64) ([]model.Trip, error) {
	trips := []model.Trip{}
	err := r.db.Select(&trips,
		`SELECT * FROM trips
		 WHERE user_id=$1 AND from_time >= (
		         SELECT COALESCE(MAX(from_time), 0) FROM trips
		         WHERE user_id=$1 AND starts_journey
		 )
		 ORDER BY from_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении текущей цепочки поездок: %w", err)
	}
	return trips, nil
}

// Delete удаляет поездку. Используется только при отмене чекина.
func (r *TripRepository) Delete(userID int64, journeyID string) error {
	_, err := r.db.Exec("DELETE FROM trips WHERE user_id=$1 AND journey_id=$2", userID, journeyID)
	if err != nil {
		return fmt.Errorf("не удалось удалить поездку: %w", err)
	}
	return nil
}

// WritePatch заменяет документ правок поездки. Документ должен быть уже
// слит с предыдущим патчем вызывающей стороной.
func (r *TripRepository) WritePatch(userID int64, journeyID string, doc []byte) error {
	_, err := r.db.Exec("UPDATE trips SET status_patch=$3 WHERE user_id=$1 AND journey_id=$2",
		userID, journeyID, doc)
	if err != nil {
		return fmt.Errorf("не удалось записать патч поездки: %w", err)
	}
	return nil
}

// WriteHeadsign запоминает разрешенное направление рейса.
func (r *TripRepository) WriteHeadsign(userID int64, journeyID string, headsign string) error {
	_, err := r.db.Exec("UPDATE trips SET headsign=$3 WHERE user_id=$1 AND journey_id=$2",
		userID, journeyID, headsign)
	if err != nil {
		return fmt.Errorf("не удалось записать направление рейса: %w", err)
	}
	return nil
}

// UpdateRaw переписывает сырой статус поездки после исправления артефактов
// данных. Ключ journey_id при этом не пересчитывается.
func (r *TripRepository) UpdateRaw(userID int64, journeyID string, status model.Status) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать статус: %w", err)
	}
	_, err = r.db.Exec("UPDATE trips SET travelynx_status=$3, from_time=$4 WHERE user_id=$1 AND journey_id=$2",
		userID, journeyID, raw, status.FromStation.ScheduledTime)
	if err != nil {
		return fmt.Errorf("не удалось обновить статус поездки: %w", err)
	}
	return nil
}
