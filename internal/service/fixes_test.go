package service

import (
	"testing"
	"time"

	"github.com/Friz64/travelhook/internal/model"
)

var (
	gesundbrunnen = model.Stop{UIC: 8011102, Name: "Berlin Gesundbrunnen", Latitude: 52.5487, Longitude: 13.3885}
	ostkreuz      = model.Stop{UIC: 8011162, Name: "Berlin Ostkreuz", Latitude: 52.503, Longitude: 13.469}
)

func ringStatus(line string, from, via model.Stop) model.Status {
	return model.Status{
		FromStation:       from,
		IntermediateStops: []model.Stop{via},
		ToStation:         model.Stop{Name: "Berlin Südkreuz", Latitude: 52.475, Longitude: 13.3655},
		Train:             model.Train{Type: "S", Line: line, No: "41", ID: "987"},
	}
}

func TestRingDirectionKeepsCorrectLabel(t *testing.T) {
	// с севера на восток едут по часовой стрелке, это и есть S41
	status := ringStatus("41", gesundbrunnen, ostkreuz)
	_, changed := repairRingDirection(status)
	if changed {
		t.Fatal("expected correctly labeled S41 to stay untouched")
	}
}

func TestRingDirectionSwapsMislabeled(t *testing.T) {
	status := ringStatus("42", gesundbrunnen, ostkreuz)
	fixed, changed := repairRingDirection(status)
	if !changed || fixed.Train.Line != "41" {
		t.Fatalf("expected clockwise trip to become S41, got %q", fixed.Train.Line)
	}
	// против часовой стрелки в обратную сторону
	status = ringStatus("41", ostkreuz, gesundbrunnen)
	fixed, changed = repairRingDirection(status)
	if !changed || fixed.Train.Line != "42" {
		t.Fatalf("expected counter-clockwise trip to become S42, got %q", fixed.Train.Line)
	}
}

func TestRingDirectionIgnoresOtherLines(t *testing.T) {
	status := ringStatus("8", gesundbrunnen, ostkreuz)
	if _, changed := repairRingDirection(status); changed {
		t.Fatal("expected non-ring line to stay untouched")
	}
	status = ringStatus("41", gesundbrunnen, ostkreuz)
	status.Train.Type = "U"
	if _, changed := repairRingDirection(status); changed {
		t.Fatal("expected non-S train to stay untouched")
	}
}

func TestRingDirectionFallsBackToDestination(t *testing.T) {
	// промежуточные остановки без координат не годятся в опорные точки
	status := ringStatus("42", gesundbrunnen, model.Stop{Name: "Berlin Schönhauser Allee"})
	status.ToStation = ostkreuz
	fixed, changed := repairRingDirection(status)
	if !changed || fixed.Train.Line != "41" {
		t.Fatalf("expected destination to serve as reference point, got %q", fixed.Train.Line)
	}
}

func TestRepairEpochLeavesModernTimes(t *testing.T) {
	status := tripStatus("111", koelnHbf, baseTime, bonnHbf, baseTime+1800, true)
	if _, changed := repairEpoch(status, time.UTC); changed {
		t.Fatal("expected modern timestamps to stay untouched")
	}
}

func TestRepairEpochKeepsZeroTimes(t *testing.T) {
	status := tripStatus("111", koelnHbf, 30600, bonnHbf, 32400, false)
	status.ActionTime = baseTime
	status.ToStation.RealTime = 0
	fixed, changed := repairEpoch(status, time.UTC)
	if !changed {
		t.Fatal("expected epoch times to be rebased")
	}
	if fixed.ToStation.RealTime != 0 {
		t.Fatalf("expected missing real time to stay empty, got %d", fixed.ToStation.RealTime)
	}
	if fixed.FromStation.ScheduledTime != 1699950600 {
		t.Fatalf("expected rebased departure, got %d", fixed.FromStation.ScheduledTime)
	}
}

func TestRepairEpochRebasesIntermediateStops(t *testing.T) {
	status := tripStatus("111", koelnHbf, 30600, bonnHbf, 32400, false)
	status.ActionTime = baseTime
	status.IntermediateStops = []model.Stop{{Name: "Köln Süd", ScheduledTime: 31200, RealTime: 31260}}
	fixed, changed := repairEpoch(status, time.UTC)
	if !changed {
		t.Fatal("expected epoch times to be rebased")
	}
	if fixed.IntermediateStops[0].ScheduledTime != 1699951200 {
		t.Fatalf("expected rebased stopover, got %d", fixed.IntermediateStops[0].ScheduledTime)
	}
}
