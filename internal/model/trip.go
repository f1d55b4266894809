package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Friz64/travelhook/internal/patch"

	"github.com/jmoiron/sqlx/types"
)

// Trip представляет один сохраненный чекин пользователя. Сырой статус travelynx
// и патч пользовательских правок хранятся отдельными JSON-колонками: патч никогда
// не переписывает сырые данные, эффективный статус вычисляется при каждом чтении.
type Trip struct {
	UserID        int64          `db:"user_id"`
	JourneyID     string         `db:"journey_id"`
	FromTime      int64          `db:"from_time"` // отправление по расписанию, для сортировки
	RawStatus     types.JSONText `db:"travelynx_status"`
	StatusPatch   types.JSONText `db:"status_patch"`
	Headsign      string         `db:"headsign"` // пустая строка: направление еще не определялось
	StartsJourney bool           `db:"starts_journey"`
	CreatedAt     time.Time      `db:"created_at"`
}

// Status возвращает эффективный статус поездки: сырой статус travelynx
// со слитым поверх патчем правок.
func (t *Trip) Status() (Status, error) {
	merged, err := patch.MergeJSON(t.RawStatus, t.StatusPatch)
	if err != nil {
		return Status{}, fmt.Errorf("не удалось применить патч поездки %s: %w", t.JourneyID, err)
	}
	var status Status
	if err := json.Unmarshal(merged, &status); err != nil {
		return Status{}, fmt.Errorf("не удалось разобрать статус поездки %s: %w", t.JourneyID, err)
	}
	return status, nil
}

// UnpatchedStatus возвращает сырой статус travelynx без пользовательских правок.
func (t *Trip) UnpatchedStatus() (Status, error) {
	var status Status
	if err := json.Unmarshal(t.RawStatus, &status); err != nil {
		return Status{}, fmt.Errorf("не удалось разобрать сырой статус поездки %s: %w", t.JourneyID, err)
	}
	return status, nil
}

// PatchDocument возвращает текущий патч поездки в виде дерева значений.
func (t *Trip) PatchDocument() (map[string]any, error) {
	doc := map[string]any{}
	if len(t.StatusPatch) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(t.StatusPatch, &doc); err != nil {
		return nil, fmt.Errorf("не удалось разобрать патч поездки %s: %w", t.JourneyID, err)
	}
	return doc, nil
}
