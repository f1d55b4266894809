package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/patch"
	"github.com/umahmood/haversine"
)

// TripStore описывает хранилище поездок, необходимое сервису путешествий.
type TripStore interface {
	Upsert(userID int64, status model.Status, startsJourney bool) error
	Find(userID int64, journeyID string) (*model.Trip, error)
	FindLast(userID int64) (*model.Trip, error)
	FindCurrent(userID int64) ([]model.Trip, error)
	Delete(userID int64, journeyID string) error
	WritePatch(userID int64, journeyID string, doc []byte) error
	UpdateRaw(userID int64, journeyID string, status model.Status) error
}

// UserStore описывает операции над пользователями, необходимые сервису путешествий.
type UserStore interface {
	SetBreakMode(userID int64, mode model.BreakMode) error
}

// Порог склейки: до 2 км между станциями пересадка считается одной поездкой.
const maxTransferKm = 2.0

// Порог ожидания: дольше двух часов на станции - уже новое путешествие.
const maxTransferSeconds = 7200

var (
	// ErrStillCheckedIn сообщает, что поездку нельзя отменить, пока чекин активен.
	ErrStillCheckedIn = errors.New("чекин еще активен, сначала отмените его в travelynx")
	// ErrNoTrip сообщает, что у пользователя нет сохраненных поездок.
	ErrNoTrip = errors.New("нет сохраненных поездок")
)

// ResultKind описывает, чем закончилась обработка вебхука.
type ResultKind int

const (
	// ResultPing - проверка связи, ничего не сохранено.
	ResultPing ResultKind = iota
	// ResultInvalid - событие не прошло валидацию и было отброшено.
	ResultInvalid
	// ResultPrivate - приватный чекин, запись стерта и не публикуется.
	ResultPrivate
	// ResultUndone - последняя поездка удалена по undo.
	ResultUndone
	// ResultPublished - поездка сохранена и готова к публикации.
	ResultPublished
)

// UpdateResult представляет итог обработки одного события вебхука.
type UpdateResult struct {
	Kind       ResultKind
	Status     model.Status // статус, вызвавший обработку
	Trips      []model.Trip // текущее путешествие после обработки
	Deleted    *model.Trip  // удаленная поездка при undo
	NewJourney bool         // событие открыло новое путешествие
}

// JourneyService содержит бизнес-логику обработки чекинов: нарезку потока
// поездок на путешествия, примирение статусов и слой исправлений.
type JourneyService struct {
	tripStore TripStore
	userStore UserStore
	loc       *time.Location
}

// NewJourneyService создает новый сервис для работы с путешествиями.
func NewJourneyService(tripStore TripStore, userStore UserStore, loc *time.Location) *JourneyService {
	return &JourneyService{tripStore: tripStore, userStore: userStore, loc: loc}
}

// HandleStatusUpdate обрабатывает одно событие от travelynx. Повторная
// доставка того же события безопасна: запись поездки перезаписывается
// только сырым статусом, патчи и нарезка не трогаются.
func (s *JourneyService) HandleStatusUpdate(user *model.User, reason string, status model.Status) (*UpdateResult, error) {
	// ping без активного чекина - только проверка связи
	if reason == "ping" && !status.CheckedIn {
		return &UpdateResult{Kind: ResultPing, Status: status}, nil
	}
	if !validReason(reason) || status.ToStation.Name == "" {
		return &UpdateResult{Kind: ResultInvalid, Status: status}, nil
	}
	if reason == "undo" && !status.CheckedIn {
		result, err := s.undoLast(user)
		if err != nil {
			return nil, err
		}
		result.Status = status
		return result, nil
	}
	if status.Visibility.Desc == "private" {
		// на всякий случай стираем уже сохраненную запись
		if err := s.tripStore.Delete(user.ID, status.JourneyID()); err != nil {
			return nil, fmt.Errorf("не удалось стереть приватную поездку: %w", err)
		}
		return &UpdateResult{Kind: ResultPrivate, Status: status}, nil
	}

	last, err := s.findLast(user.ID)
	if err != nil {
		return nil, err
	}
	startsJourney := true
	if last != nil {
		startsJourney, err = s.startsNewJourney(user, last, status, reason)
		if err != nil {
			return nil, err
		}
	}
	if err := s.tripStore.Upsert(user.ID, status, startsJourney); err != nil {
		return nil, err
	}
	if fixed, changed := repairStatus(status, s.loc); changed {
		if err := s.tripStore.UpdateRaw(user.ID, status.JourneyID(), fixed); err != nil {
			return nil, fmt.Errorf("не удалось сохранить исправленный статус: %w", err)
		}
	}
	trips, err := s.tripStore.FindCurrent(user.ID)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{Kind: ResultPublished, Status: status, Trips: trips, NewJourney: startsJourney}, nil
}

// startsNewJourney решает, открывает ли событие новое путешествие.
// Сравнения идут по эффективным (пропатченным) статусам.
func (s *JourneyService) startsNewJourney(user *model.User, last *model.Trip, status model.Status, reason string) (bool, error) {
	// чекаут уже известного поезда никогда не рвет путешествие
	if reason == "checkout" {
		trips, err := s.tripStore.FindCurrent(user.ID)
		if err != nil {
			return false, err
		}
		for _, t := range trips {
			eff, err := t.Status()
			if err != nil {
				return false, err
			}
			if eff.Train.ID == status.Train.ID {
				return false, nil
			}
		}
	}
	old, err := last.Status()
	if err != nil {
		return false, err
	}
	if old.Train.ID == status.Train.ID {
		return false, nil
	}
	// ручной разрыв и ручная склейка одноразовые
	switch user.BreakMode {
	case model.BreakForce:
		if err := s.userStore.SetBreakMode(user.ID, model.BreakNatural); err != nil {
			return false, err
		}
		return true, nil
	case model.BreakGlue:
		if err := s.userStore.SetBreakMode(user.ID, model.BreakNatural); err != nil {
			return false, err
		}
		return false, nil
	}
	_, km := haversine.Distance(
		haversine.Coord{Lat: old.ToStation.Latitude, Lon: old.ToStation.Longitude},
		haversine.Coord{Lat: status.FromStation.Latitude, Lon: status.FromStation.Longitude},
	)
	movedAway := km > maxTransferKm && !strings.Contains(status.Train.ID+old.Train.ID, model.SyntheticMarker)
	waitedLong := status.FromStation.RealTime-old.ToStation.RealTime > maxTransferSeconds
	return movedAway || waitedLong, nil
}

// undoLast удаляет последнюю поездку пользователя. Удалять можно только
// завершенную поездку: пока чекин активен, travelynx продолжит слать
// обновления, и запись тут же появилась бы снова.
func (s *JourneyService) undoLast(user *model.User) (*UpdateResult, error) {
	last, err := s.findLast(user.ID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, ErrNoTrip
	}
	eff, err := last.Status()
	if err != nil {
		return nil, err
	}
	if eff.CheckedIn {
		return nil, ErrStillCheckedIn
	}
	if err := s.tripStore.Delete(user.ID, last.JourneyID); err != nil {
		return nil, err
	}
	trips, err := s.tripStore.FindCurrent(user.ID)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{Kind: ResultUndone, Trips: trips, Deleted: last}, nil
}

// ApplyPatch накладывает патч на поездку и заново прогоняет ее через
// обработку, чтобы публикации отразили новый эффективный статус.
func (s *JourneyService) ApplyPatch(user *model.User, journeyID string, doc map[string]any) (*UpdateResult, error) {
	trip, err := s.find(user.ID, journeyID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrNoTrip
	}
	existing, err := trip.PatchDocument()
	if err != nil {
		return nil, err
	}
	merged, err := json.Marshal(patch.Merge(existing, doc))
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать патч: %w", err)
	}
	if err := s.tripStore.WritePatch(user.ID, journeyID, merged); err != nil {
		return nil, err
	}
	fresh, err := s.find(user.ID, journeyID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ErrNoTrip
	}
	eff, err := fresh.Status()
	if err != nil {
		return nil, err
	}
	raw, err := fresh.UnpatchedStatus()
	if err != nil {
		return nil, err
	}
	reason := "checkout"
	if eff.CheckedIn {
		reason = "update"
	}
	return s.HandleStatusUpdate(user, reason, raw)
}

// CurrentTrips возвращает поездки текущего путешествия пользователя.
func (s *JourneyService) CurrentTrips(userID int64) ([]model.Trip, error) {
	return s.tripStore.FindCurrent(userID)
}

// LastTrip возвращает последнюю сохраненную поездку пользователя
// или nil, если поездок еще не было.
func (s *JourneyService) LastTrip(userID int64) (*model.Trip, error) {
	return s.findLast(userID)
}

// findLast и find прячут sql.ErrNoRows: отсутствие поездки не ошибка.
func (s *JourneyService) findLast(userID int64) (*model.Trip, error) {
	trip, err := s.tripStore.FindLast(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

func (s *JourneyService) find(userID int64, journeyID string) (*model.Trip, error) {
	trip, err := s.tripStore.Find(userID, journeyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

func validReason(reason string) bool {
	switch reason {
	case "update", "checkin", "ping", "checkout", "undo":
		return true
	}
	return false
}
