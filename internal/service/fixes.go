package service

import (
	"time"

	"github.com/Friz64/travelhook/internal/model"
)

// Расписания до этой отметки (2000-01-01 UTC) travelynx присылает, когда
// ручной чекин создан без даты: в часах и минутах время верное, а день 1970-й.
const epochCutoff = 946684800

// Географический центр берлинского кольца.
const (
	ringCenterLat = 52.511
	ringCenterLon = 13.376
)

// repairStatus прогоняет сырой статус через слой исправлений известных
// причуд данных. Возвращает исправленный статус и признак изменения.
// Идентификатор поездки при этом никогда не пересчитывается.
func repairStatus(status model.Status, loc *time.Location) (model.Status, bool) {
	changed := false
	if fixed, ok := repairEpoch(status, loc); ok {
		status = fixed
		changed = true
	}
	if fixed, ok := repairRingDirection(status); ok {
		status = fixed
		changed = true
	}
	return status, changed
}

// repairEpoch переносит времена из 1970 года на дату события: часы и минуты
// сохраняются, день берется из actionTime в локальной зоне. Прибытие раньше
// отправления означает поездку через полночь.
func repairEpoch(status model.Status, loc *time.Location) (model.Status, bool) {
	if status.FromStation.ScheduledTime >= epochCutoff {
		return status, false
	}
	base := time.Unix(status.ActionTime, 0).In(loc)
	rebase := func(t int64) int64 {
		if t == 0 {
			return 0
		}
		clock := time.Unix(t, 0).In(loc)
		return time.Date(base.Year(), base.Month(), base.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, loc).Unix()
	}
	status.FromStation.ScheduledTime = rebase(status.FromStation.ScheduledTime)
	status.FromStation.RealTime = rebase(status.FromStation.RealTime)
	status.ToStation.ScheduledTime = rebase(status.ToStation.ScheduledTime)
	status.ToStation.RealTime = rebase(status.ToStation.RealTime)
	for i := range status.IntermediateStops {
		status.IntermediateStops[i].ScheduledTime = rebase(status.IntermediateStops[i].ScheduledTime)
		status.IntermediateStops[i].RealTime = rebase(status.IntermediateStops[i].RealTime)
	}
	if status.ToStation.ScheduledTime < status.FromStation.ScheduledTime {
		const day = 24 * 60 * 60
		status.ToStation.ScheduledTime += day
		if status.ToStation.RealTime != 0 {
			status.ToStation.RealTime += day
		}
	}
	return status, true
}

// repairRingDirection проверяет номер берлинской кольцевой по геометрии:
// S41 едет по часовой стрелке, S42 против. Если первые точки поездки
// противоречат номеру линии, номер меняется на парный.
func repairRingDirection(status model.Status) (model.Status, bool) {
	if status.Train.Type != "S" {
		return status, false
	}
	var want string
	switch status.Train.Line {
	case "41":
		want = "42"
	case "42":
		want = "41"
	default:
		return status, false
	}
	ref := status.ToStation
	for _, stop := range status.IntermediateStops {
		if stop.Latitude != 0 || stop.Longitude != 0 {
			ref = stop
			break
		}
	}
	v1x := status.FromStation.Longitude - ringCenterLon
	v1y := status.FromStation.Latitude - ringCenterLat
	v2x := ref.Longitude - ringCenterLon
	v2y := ref.Latitude - ringCenterLat
	cross := v1x*v2y - v1y*v2x
	clockwise := cross < 0
	if (status.Train.Line == "41") == clockwise {
		return status, false
	}
	status.Train.Line = want
	return status, true
}
