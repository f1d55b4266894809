package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Friz64/travelhook/internal/hafas"
	"github.com/Friz64/travelhook/internal/metrics"
	"github.com/Friz64/travelhook/internal/model"

	"github.com/jmoiron/sqlx/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeHeadsignStore struct {
	written map[string]string
}

func (f *fakeHeadsignStore) WriteHeadsign(userID int64, journeyID, headsign string) error {
	f.written[journeyID] = headsign
	return nil
}

type fakeLookup struct {
	direction    string
	tripErr      error
	legs         []hafas.Leg
	journeysErr  error
	tripCalls    int
	journeyCalls int
}

func (f *fakeLookup) TripDirection(id string) (string, error) {
	f.tripCalls++
	return f.direction, f.tripErr
}

func (f *fakeLookup) Journeys(fromUIC, toUIC int64, departure time.Time) ([]hafas.Leg, error) {
	f.journeyCalls++
	return f.legs, f.journeysErr
}

func headsignTrip(t *testing.T, status model.Status) *model.Trip {
	t.Helper()
	raw, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &model.Trip{UserID: 1, JourneyID: status.JourneyID(), RawStatus: types.JSONText(raw)}
}

func newHeadsignTestService() (*HeadsignService, *fakeHeadsignStore, *fakeLookup) {
	store := &fakeHeadsignStore{written: map[string]string{}}
	lookup := &fakeLookup{}
	return NewHeadsignService(store, lookup, metrics.NewCollector()), store, lookup
}

func TestResolveFakeheadsignWins(t *testing.T) {
	svc, store, lookup := newHeadsignTestService()
	status := tripStatus("1|100|0|80|14112023", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	status.Train.Fakeheadsign = "Gürtelbahn"
	got := svc.Resolve(headsignTrip(t, status))
	if got != "Gürtelbahn" {
		t.Fatalf("expected manual headsign to win, got %q", got)
	}
	if lookup.tripCalls != 0 || len(store.written) != 0 {
		t.Fatal("expected no lookup and no store writes")
	}
}

func TestResolvePersistedColumn(t *testing.T) {
	svc, _, lookup := newHeadsignTestService()
	status := tripStatus("123456", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	trip := headsignTrip(t, status)
	trip.Headsign = "Koblenz Hbf"
	if got := svc.Resolve(trip); got != "Koblenz Hbf" {
		t.Fatalf("expected persisted headsign, got %q", got)
	}
	if lookup.tripCalls != 0 || lookup.journeyCalls != 0 {
		t.Fatal("expected no lookup for a persisted headsign")
	}
	cached := testutil.ToFloat64(svc.metrics.HeadsignLookups.WithLabelValues("cached"))
	if cached != 1 {
		t.Fatalf("expected cached counter to tick, got %v", cached)
	}
}

func TestResolveByTripID(t *testing.T) {
	svc, store, lookup := newHeadsignTestService()
	lookup.direction = "Koblenz Hbf"
	status := tripStatus("1|100|0|80|14112023", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	trip := headsignTrip(t, status)
	if got := svc.Resolve(trip); got != "Koblenz Hbf" {
		t.Fatalf("expected direction from trip endpoint, got %q", got)
	}
	if store.written[trip.JourneyID] != "Koblenz Hbf" {
		t.Fatalf("expected direction persisted, got %v", store.written)
	}
}

func TestResolveTransientErrorRetries(t *testing.T) {
	svc, store, lookup := newHeadsignTestService()
	lookup.tripErr = errors.New("timeout")
	status := tripStatus("1|100|0|80|14112023", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	trip := headsignTrip(t, status)
	if got := svc.Resolve(trip); got != "?" {
		t.Fatalf("expected placeholder on transient error, got %q", got)
	}
	if len(store.written) != 0 {
		t.Fatal("expected transient failure to not be persisted")
	}
	// сбой не кешируется, следующее чтение запрашивает снова
	svc.Resolve(trip)
	if lookup.tripCalls != 2 {
		t.Fatalf("expected a retry, got %d calls", lookup.tripCalls)
	}
}

func TestResolveUnknownPersisted(t *testing.T) {
	svc, store, lookup := newHeadsignTestService()
	lookup.direction = ""
	status := tripStatus("1|100|0|80|14112023", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	trip := headsignTrip(t, status)
	if got := svc.Resolve(trip); got != "?" {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if store.written[trip.JourneyID] != "?" {
		t.Fatalf("expected unknown direction persisted as placeholder, got %v", store.written)
	}
	// второе чтение обслуживает кеш
	svc.Resolve(trip)
	if lookup.tripCalls != 1 {
		t.Fatalf("expected no retry for a resolved unknown, got %d calls", lookup.tripCalls)
	}
}

func TestResolveByJourneysExactMatch(t *testing.T) {
	svc, _, lookup := newHeadsignTestService()
	status := tripStatus("123456", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)

	match := hafas.Leg{Direction: "Koblenz Hbf",
		PlannedDeparture: time.Unix(baseTime, 0), PlannedArrival: time.Unix(baseTime+1800, 0)}
	match.Line.Name = "RE 5"
	other := hafas.Leg{Direction: "Emmerich",
		PlannedDeparture: time.Unix(baseTime+300, 0), PlannedArrival: time.Unix(baseTime+2100, 0)}
	other.Line.Name = "RE 19"
	lookup.legs = []hafas.Leg{other, match}

	if got := svc.Resolve(headsignTrip(t, status)); got != "Koblenz Hbf" {
		t.Fatalf("expected matching leg direction, got %q", got)
	}
}

func TestResolveByJourneysSingleTimeMatch(t *testing.T) {
	svc, _, lookup := newHeadsignTestService()
	status := tripStatus("123456", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)

	// линия в ответе подписана иначе, но по временам подходит ровно один отрезок
	leg := hafas.Leg{Direction: "Koblenz Hbf",
		PlannedDeparture: time.Unix(baseTime, 0), PlannedArrival: time.Unix(baseTime+1800, 0)}
	leg.Line.Name = "RB 27"
	lookup.legs = []hafas.Leg{leg}

	if got := svc.Resolve(headsignTrip(t, status)); got != "Koblenz Hbf" {
		t.Fatalf("expected single time match to win, got %q", got)
	}
}

func TestResolveByJourneysAmbiguous(t *testing.T) {
	svc, store, lookup := newHeadsignTestService()
	status := tripStatus("123456", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)

	first := hafas.Leg{Direction: "Koblenz Hbf",
		PlannedDeparture: time.Unix(baseTime, 0), PlannedArrival: time.Unix(baseTime+1800, 0)}
	first.Line.Name = "RB 27"
	second := hafas.Leg{Direction: "Trier Hbf",
		PlannedDeparture: time.Unix(baseTime, 0), PlannedArrival: time.Unix(baseTime+1800, 0)}
	second.Line.Name = "RB 48"
	lookup.legs = []hafas.Leg{first, second}

	trip := headsignTrip(t, status)
	if got := svc.Resolve(trip); got != "?" {
		t.Fatalf("expected ambiguity to resolve to placeholder, got %q", got)
	}
	if store.written[trip.JourneyID] != "?" {
		t.Fatal("expected ambiguous result persisted as placeholder")
	}
}

func TestResolveSyntheticTrip(t *testing.T) {
	svc, store, lookup := newHeadsignTestService()
	status := tripStatus(model.SyntheticMarker+"abc", koelnHbf, baseTime, bonnHbf, baseTime+1800, false)
	trip := headsignTrip(t, status)
	if got := svc.Resolve(trip); got != "?" {
		t.Fatalf("expected placeholder for manual trip, got %q", got)
	}
	if lookup.tripCalls != 0 || lookup.journeyCalls != 0 {
		t.Fatal("expected no lookup for manual trips")
	}
	if store.written[trip.JourneyID] != "?" {
		t.Fatal("expected placeholder persisted to stop further lookups")
	}
}

func TestResolveMissingUIC(t *testing.T) {
	svc, _, lookup := newHeadsignTestService()
	status := tripStatus("123456", model.Stop{Name: "Останкино"}, baseTime, bonnHbf, baseTime+1800, true)
	if got := svc.Resolve(headsignTrip(t, status)); got != "?" {
		t.Fatalf("expected placeholder without station ids, got %q", got)
	}
	if lookup.journeyCalls != 0 {
		t.Fatal("expected no journeys call without station ids")
	}
}

func TestResolveAppliesReplacements(t *testing.T) {
	cases := []struct {
		name     string
		trainTyp string
		line     string
		stored   string
		want     string
	}{
		{"type plus number", "S", "45", "Wien Handelskai Bahnhst", "Handelskai"},
		{"full line label", "S", "S45", "Wien Handelskai Bahnhst", "Handelskai"},
		{"no replacement", "S", "46", "Wien Handelskai Bahnhst", "Wien Handelskai Bahnhst"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, _, _ := newHeadsignTestService()
			status := tripStatus("123456", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
			status.Train.Type = c.trainTyp
			status.Train.Line = c.line
			trip := headsignTrip(t, status)
			trip.Headsign = c.stored
			if got := svc.Resolve(trip); got != c.want {
				t.Fatalf("expected %q, got %q", c.want, got)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	svc, _, _ := newHeadsignTestService()
	status := tripStatus("123456", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	trip := headsignTrip(t, status)
	trip.Headsign = "Koblenz Hbf"
	if got := svc.Describe(trip); got != "RE 5 → Koblenz Hbf" {
		t.Fatalf("expected train description, got %q", got)
	}
}
