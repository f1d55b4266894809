package model

import (
	"strconv"
	"strings"
)

// SyntheticMarker помечает идентификаторы поездов для поездок, введенных вручную
// (пешком, велосипед и т.п.), которых нет в HAFAS/IRIS.
const SyntheticMarker = "travelhookfaked"

// Privacy представляет уровень приватности пользователя для конкретного чата.
type Privacy int16

const (
	PrivacyMe       Privacy = 0  // журнал виден только самому пользователю
	PrivacyEveryone Privacy = 5  // командой /zug могут пользоваться все участники чата
	PrivacyLive     Privacy = 10 // включена автоматическая публикация в живой канал
)

// String возвращает имя уровня приватности для вывода в чат.
func (p Privacy) String() string {
	switch p {
	case PrivacyEveryone:
		return "EVERYONE"
	case PrivacyLive:
		return "LIVE"
	default:
		return "ME"
	}
}

// BreakMode представляет настройку пользователя, влияющую на склейку следующего
// чекина с текущей цепочкой поездок.
type BreakMode int16

const (
	BreakNatural BreakMode = 0  // решает движок по расстоянию и времени пересадки
	BreakForce   BreakMode = 1  // следующий чекин принудительно начнет новую цепочку
	BreakGlue    BreakMode = -1 // следующий чекин принудительно продолжит цепочку
)

// Status представляет снимок состояния чекина, как его присылает travelynx в вебхуке.
type Status struct {
	CheckedIn         bool       `json:"checkedIn"`
	Comment           string     `json:"comment"`
	ActionTime        int64      `json:"actionTime"`
	FromStation       Stop       `json:"fromStation"`
	ToStation         Stop       `json:"toStation"`
	IntermediateStops []Stop     `json:"intermediateStops"`
	Train             Train      `json:"train"`
	Visibility        Visibility `json:"visibility"`
}

// Stop представляет остановку маршрута. Для fromStation времена означают
// отправление, для toStation - прибытие.
type Stop struct {
	UIC           int64   `json:"uic"`
	DS100         string  `json:"ds100"`
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ScheduledTime int64   `json:"scheduledTime"`
	RealTime      int64   `json:"realTime"`
}

// Train описывает транспорт чекина.
type Train struct {
	Type         string `json:"type"`
	Line         string `json:"line"`
	No           string `json:"no"`
	ID           string `json:"id"`
	HafasID      string `json:"hafasId"`
	Fakeheadsign string `json:"fakeheadsign,omitempty"` // направление, заданное пользователем вручную
}

// Visibility представляет видимость чекина на стороне travelynx.
type Visibility struct {
	Level int    `json:"level"`
	Desc  string `json:"desc"`
}

// JourneyID возвращает устойчивый ключ поездки: время отправления по расписанию,
// склеенное с идентификатором рейса. Вместе с id пользователя образует первичный
// ключ таблицы trips.
func (s Status) JourneyID() string {
	return strconv.FormatInt(s.FromStation.ScheduledTime, 10) + s.Train.ID
}

// Synthetic сообщает, введена ли поездка вручную, а не получена из travelynx.
func (s Status) Synthetic() bool {
	return strings.Contains(s.Train.ID, SyntheticMarker)
}

// LineLabel возвращает номер линии или, если его нет, номер рейса.
func (t Train) LineLabel() string {
	if t.Line != "" {
		return t.Line
	}
	return t.No
}
