package model

import (
	"testing"

	"github.com/jmoiron/sqlx/types"
)

const rawTripStatus = `{
	"checkedIn": true,
	"comment": "",
	"actionTime": 1700000000,
	"fromStation": {"uic": 8000001, "name": "Aachen Hbf", "scheduledTime": 1700000000, "realTime": 1700000060},
	"toStation": {"uic": 8000002, "name": "Berlin Hbf", "scheduledTime": 1700010000, "realTime": 1700010000},
	"train": {"type": "ICE", "line": "", "no": "123", "id": "7654321"}
}`

func TestTripStatusAppliesPatch(t *testing.T) {
	trip := &Trip{
		JourneyID:   "17000000007654321",
		RawStatus:   types.JSONText(rawTripStatus),
		StatusPatch: types.JSONText(`{"checkedIn": false, "toStation": {"realTime": 1700010600}}`),
	}
	eff, err := trip.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eff.CheckedIn {
		t.Fatal("expected patch to flip checkedIn")
	}
	if eff.ToStation.RealTime != 1700010600 {
		t.Fatalf("expected patched arrival, got %d", eff.ToStation.RealTime)
	}
	if eff.ToStation.Name != "Berlin Hbf" {
		t.Fatalf("expected untouched fields to survive, got %q", eff.ToStation.Name)
	}

	raw, err := trip.UnpatchedStatus()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !raw.CheckedIn || raw.ToStation.RealTime != 1700010000 {
		t.Fatal("expected raw status to stay unpatched")
	}
}

func TestTripStatusWithoutPatch(t *testing.T) {
	trip := &Trip{RawStatus: types.JSONText(rawTripStatus)}
	eff, err := trip.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eff.CheckedIn || eff.Train.ID != "7654321" {
		t.Fatalf("expected effective status to equal raw, got %+v", eff)
	}
}

func TestPatchDocument(t *testing.T) {
	trip := &Trip{StatusPatch: types.JSONText(`{"comment": "с ветерком"}`)}
	doc, err := trip.PatchDocument()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["comment"] != "с ветерком" {
		t.Fatalf("expected patch document contents, got %v", doc)
	}

	empty := &Trip{}
	doc, err = empty.PatchDocument()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("expected empty document, got %v", doc)
	}
}
