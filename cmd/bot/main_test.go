package main

import (
	"strings"
	"testing"
	"time"

	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/patch"

	"github.com/pelletier/go-toml/v2"
)

func TestParseManualTrip(t *testing.T) {
	status, err := parseManualTrip("Köln Hbf | 08:30 | Bonn Hbf | 09:10 | RE 5 | Koblenz Hbf", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Synthetic() {
		t.Fatalf("expected synthetic train id, got %q", status.Train.ID)
	}
	if status.CheckedIn {
		t.Fatal("expected manual trip to arrive checked out")
	}
	if status.FromStation.Name != "Köln Hbf" || status.ToStation.Name != "Bonn Hbf" {
		t.Fatalf("unexpected stations %q -> %q", status.FromStation.Name, status.ToStation.Name)
	}
	// станции ручной поездки не существуют в справочниках, коды фиктивные
	if status.FromStation.UIC != 42 || status.ToStation.UIC != 69 {
		t.Fatalf("unexpected uic codes %d, %d", status.FromStation.UIC, status.ToStation.UIC)
	}
	if status.Train.Type != "RE" || status.Train.Line != "5" {
		t.Fatalf("unexpected train %q %q", status.Train.Type, status.Train.Line)
	}
	if status.Train.Fakeheadsign != "Koblenz Hbf" {
		t.Fatalf("expected headsign override, got %q", status.Train.Fakeheadsign)
	}
	dep := time.Unix(status.FromStation.ScheduledTime, 0).UTC().Format("15:04")
	arr := time.Unix(status.ToStation.ScheduledTime, 0).UTC().Format("15:04")
	if dep != "08:30" || arr != "09:10" {
		t.Fatalf("unexpected times %s -> %s", dep, arr)
	}
	if status.FromStation.RealTime != status.FromStation.ScheduledTime {
		t.Fatal("expected manual trip to run on schedule")
	}
}

func TestParseManualTripOvernight(t *testing.T) {
	status, err := parseManualTrip("Köln Hbf | 23:30 | Bonn Hbf | 00:10 | NJ 40490", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// прибытие раньше отправления означает "после полуночи"
	got := status.ToStation.ScheduledTime - status.FromStation.ScheduledTime
	if got != 40*60 {
		t.Fatalf("expected 40 minute overnight leg, got %d seconds", got)
	}
}

func TestParseManualTripWithoutHeadsign(t *testing.T) {
	status, err := parseManualTrip("A | 10:00 | B | 10:30 | Bus 601", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Train.Fakeheadsign != "" {
		t.Fatalf("expected no headsign override, got %q", status.Train.Fakeheadsign)
	}
	if status.Train.Type != "Bus" || status.Train.Line != "601" {
		t.Fatalf("unexpected train %q %q", status.Train.Type, status.Train.Line)
	}
}

func TestParseManualTripRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"too few fields", "Köln Hbf | 08:30 | Bonn Hbf"},
		{"bad departure", "Köln Hbf | пол девятого | Bonn Hbf | 09:10 | RE 5"},
		{"bad arrival", "Köln Hbf | 08:30 | Bonn Hbf | 9h10 | RE 5"},
		{"missing train", "Köln Hbf | 08:30 | Bonn Hbf | 09:10 | "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseManualTrip(tc.text, time.UTC); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestSyntheticStatusMarksTrain(t *testing.T) {
	from := model.Stop{UIC: 8000207, Name: "Köln Hbf"}
	to := model.Stop{UIC: 69, Name: "Späti"}
	status := syntheticStatus(from, to, model.Train{Type: "walk"}, "")
	if !strings.HasPrefix(status.Train.ID, model.SyntheticMarker) {
		t.Fatalf("expected synthetic marker prefix, got %q", status.Train.ID)
	}
	// уникальный суффикс отличает один ручной чекин от другого
	other := syntheticStatus(from, to, model.Train{Type: "walk"}, "")
	if status.Train.ID == other.Train.ID {
		t.Fatal("expected unique synthetic train ids")
	}
	if status.Visibility.Desc != "public" {
		t.Fatalf("expected public visibility, got %q", status.Visibility.Desc)
	}
}

// Редактор /edit принимает TOML, строка "null" удаляет ключ. Проверяем весь
// путь: разбор TOML, замену "null" и слияние с эффективным статусом.
func TestEditPipelineTOML(t *testing.T) {
	input := "```toml\n" +
		"comment = \"задержали на границе\"\n" +
		"[toStation]\n" +
		"name = \"Wien Hbf\"\n" +
		"[train]\n" +
		"fakeheadsign = \"null\"\n" +
		"```"
	var doc map[string]any
	if err := toml.Unmarshal([]byte(stripFences(input)), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nullify(doc)

	base := map[string]any{
		"comment": "",
		"toStation": map[string]any{
			"name": "Wien Meidling",
			"uic":  float64(8101003),
		},
		"train": map[string]any{
			"type":         "RJ",
			"fakeheadsign": "куда-то",
		},
	}
	merged := patch.Merge(base, doc)
	if merged["comment"] != "задержали на границе" {
		t.Fatalf("expected comment replaced, got %v", merged["comment"])
	}
	to := merged["toStation"].(map[string]any)
	if to["name"] != "Wien Hbf" {
		t.Fatalf("expected station renamed, got %v", to["name"])
	}
	if to["uic"] != float64(8101003) {
		t.Fatalf("expected untouched sibling to survive, got %v", to["uic"])
	}
	train := merged["train"].(map[string]any)
	if _, ok := train["fakeheadsign"]; ok {
		t.Fatal("expected fakeheadsign deleted by the null string")
	}
	if train["type"] != "RJ" {
		t.Fatalf("expected train type to survive, got %v", train["type"])
	}
}

func TestNullifyRecurses(t *testing.T) {
	doc := map[string]any{
		"comment": "null",
		"train":   map[string]any{"fakeheadsign": "null", "line": "5"},
	}
	nullify(doc)
	if doc["comment"] != nil {
		t.Fatalf("expected top-level null, got %v", doc["comment"])
	}
	train := doc["train"].(map[string]any)
	if train["fakeheadsign"] != nil {
		t.Fatalf("expected nested null, got %v", train["fakeheadsign"])
	}
	if train["line"] != "5" {
		t.Fatalf("expected other keys untouched, got %v", train["line"])
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```toml\ncomment = \"x\"\n```", "comment = \"x\""},
		{"```\ncomment = \"x\"\n```", "comment = \"x\""},
		{"comment = \"x\"", "comment = \"x\""},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Fatalf("stripFences(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}

func TestBreakModeLabel(t *testing.T) {
	if got := breakModeLabel(model.BreakForce); got != "новое путешествие" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := breakModeLabel(model.BreakGlue); got != "продолжение текущего" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := breakModeLabel(model.BreakNatural); got != "как обычно" {
		t.Fatalf("unexpected label %q", got)
	}
}
