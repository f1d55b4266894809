package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Friz64/travelhook/internal/hafas"
	"github.com/Friz64/travelhook/internal/metrics"
	"github.com/Friz64/travelhook/internal/model"
	"github.com/bluele/gcache"
)

// DirectionLookup описывает внешний справочник направлений поездов.
type DirectionLookup interface {
	TripDirection(id string) (string, error)
	Journeys(fromUIC, toUIC int64, departure time.Time) ([]hafas.Leg, error)
}

// HeadsignStore описывает операции хранилища, необходимые для кеширования направлений.
type HeadsignStore interface {
	WriteHeadsign(userID int64, journeyID string, headsign string) error
}

type headsignKey struct {
	line, headsign string
}

// Косметические замены: некоторые сети пишут в направлении полный адрес
// конечной, в сообщении он только мешает.
var replaceHeadsign = map[headsignKey]string{
	{"S45", "Wien Handelskai Bahnhst"}:              "Handelskai",
	{"S1", "Wien Meidling Bahnhof"}:                 "Meidling",
	{"S4", "Nordstadt, Hannover"}:                   "Hannover Nordstadt",
	{"S1", "Hochstetten Grenzstraße, Linkenheim-H"}: "Hochstetten",
}

// HeadsignService лениво определяет направление поезда. Пустая строка в
// колонке поездки означает, что направление еще не запрашивалось; навсегда
// неизвестное направление сохраняется как "?" и больше не запрашивается.
type HeadsignService struct {
	store   HeadsignStore
	lookup  DirectionLookup
	cache   gcache.Cache
	metrics *metrics.Collector
}

// NewHeadsignService создает новый сервис направлений.
func NewHeadsignService(store HeadsignStore, lookup DirectionLookup, m *metrics.Collector) *HeadsignService {
	return &HeadsignService{
		store:   store,
		lookup:  lookup,
		cache:   gcache.New(512).LRU().Expiration(24 * time.Hour).Build(),
		metrics: m,
	}
}

// Resolve возвращает направление поезда для отображения. Ошибки прячутся за
// "?": сообщение должно отрисоваться даже без ответа справочника.
func (s *HeadsignService) Resolve(trip *model.Trip) string {
	eff, err := trip.Status()
	if err != nil {
		return "?"
	}
	// пропатченное направление всегда главнее справочника
	if eff.Train.Fakeheadsign != "" {
		return eff.Train.Fakeheadsign
	}
	if trip.Headsign != "" {
		s.metrics.HeadsignLookups.WithLabelValues("cached").Inc()
		return s.replaced(eff, trip.Headsign)
	}
	if v, err := s.cache.Get(trip.JourneyID); err == nil {
		s.metrics.HeadsignLookups.WithLabelValues("cached").Inc()
		return s.replaced(eff, v.(string))
	}
	headsign, transient := s.fetch(eff)
	if transient {
		s.metrics.HeadsignLookups.WithLabelValues("error").Inc()
		return "?"
	}
	if headsign == "?" {
		s.metrics.HeadsignLookups.WithLabelValues("unknown").Inc()
	} else {
		s.metrics.HeadsignLookups.WithLabelValues("fetched").Inc()
	}
	_ = s.cache.Set(trip.JourneyID, headsign)
	if err := s.store.WriteHeadsign(trip.UserID, trip.JourneyID, headsign); err != nil {
		// не страшно: при следующем чтении запросим еще раз
		return s.replaced(eff, headsign)
	}
	return s.replaced(eff, headsign)
}

// fetch запрашивает направление у справочника. Второй результат говорит,
// что сбой временный и сохранять нечего.
func (s *HeadsignService) fetch(eff model.Status) (string, bool) {
	// ручные чекины справочнику неизвестны
	if eff.Synthetic() {
		return "?", false
	}
	id := eff.Train.HafasID
	if id == "" {
		id = eff.Train.ID
	}
	if strings.Contains(id, "|") {
		direction, err := s.lookup.TripDirection(id)
		if err != nil {
			log.Printf("не удалось запросить направление поезда: %v", err)
			return "", true
		}
		if direction == "" {
			return "?", false
		}
		return direction, false
	}
	if eff.FromStation.UIC == 0 || eff.ToStation.UIC == 0 {
		return "?", false
	}
	legs, err := s.lookup.Journeys(eff.FromStation.UIC, eff.ToStation.UIC,
		time.Unix(eff.FromStation.ScheduledTime, 0))
	if err != nil {
		log.Printf("не удалось подобрать рейс по станциям: %v", err)
		return "", true
	}
	want := normalizeLine(eff.Train.Type + eff.Train.LineLabel())
	var timeMatched []hafas.Leg
	for _, leg := range legs {
		if leg.PlannedDeparture.Unix() != eff.FromStation.ScheduledTime ||
			leg.PlannedArrival.Unix() != eff.ToStation.ScheduledTime {
			continue
		}
		if normalizeLine(leg.Line.Name) == want && leg.Direction != "" {
			return leg.Direction, false
		}
		timeMatched = append(timeMatched, leg)
	}
	if len(timeMatched) == 1 && timeMatched[0].Direction != "" {
		return timeMatched[0].Direction, false
	}
	return "?", false
}

// replaced пробует таблицу замен и по номеру линии, и по номеру с типом:
// сети пишут линию то как "S45", то как "45" при типе "S".
func (s *HeadsignService) replaced(eff model.Status, headsign string) string {
	if r, ok := replaceHeadsign[headsignKey{eff.Train.LineLabel(), headsign}]; ok {
		return r
	}
	if r, ok := replaceHeadsign[headsignKey{normalizeLine(eff.Train.Type + eff.Train.LineLabel()), headsign}]; ok {
		return r
	}
	return headsign
}

func normalizeLine(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

// Describe возвращает подпись поезда с направлением, например "S 45 → Handelskai".
func (s *HeadsignService) Describe(trip *model.Trip) string {
	eff, err := trip.Status()
	if err != nil {
		return "?"
	}
	return fmt.Sprintf("%s %s → %s", eff.Train.Type, eff.Train.LineLabel(), s.Resolve(trip))
}
