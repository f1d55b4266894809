// Пакет hafas реализует клиент REST-обертки над HAFAS (transport.rest).
// Используется только для дорасшифровки направлений поездов.
package hafas

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Leg представляет один беспересадочный отрезок из ответа journeys.
type Leg struct {
	TripID    string `json:"tripId"`
	Direction string `json:"direction"`
	Line      struct {
		Name string `json:"name"`
	} `json:"line"`
	PlannedDeparture time.Time `json:"plannedDeparture"`
	PlannedArrival   time.Time `json:"plannedArrival"`
}

// Client выполняет запросы к HAFAS.
type Client struct {
	base string
	http *http.Client
}

// NewClient создает клиент для заданного базового URL.
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// TripDirection возвращает направление поезда по его HAFAS-идентификатору.
func (c *Client) TripDirection(id string) (string, error) {
	u := c.base + "/trips/" + url.PathEscape(id) + "?stopovers=false"
	resp, err := c.http.Get(u)
	if err != nil {
		return "", fmt.Errorf("не удалось запросить trip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HAFAS ответил кодом %d", resp.StatusCode)
	}
	var body struct {
		Trip struct {
			Direction string `json:"direction"`
		} `json:"trip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("не удалось разобрать ответ trip: %w", err)
	}
	return body.Trip.Direction, nil
}

// Journeys ищет беспересадочные маршруты между двумя станциями на заданное
// время отправления и возвращает их первые отрезки.
func (c *Client) Journeys(fromUIC, toUIC int64, departure time.Time) ([]Leg, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(fromUIC, 10))
	q.Set("to", strconv.FormatInt(toUIC, 10))
	q.Set("departure", departure.Format(time.RFC3339))
	q.Set("transfers", "0")
	q.Set("stopovers", "false")
	resp, err := c.http.Get(c.base + "/journeys?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("не удалось запросить journeys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HAFAS ответил кодом %d", resp.StatusCode)
	}
	var body struct {
		Journeys []struct {
			Legs []Leg `json:"legs"`
		} `json:"journeys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("не удалось разобрать ответ journeys: %w", err)
	}
	var legs []Leg
	for _, j := range body.Journeys {
		if len(j.Legs) > 0 {
			legs = append(legs, j.Legs[0])
		}
	}
	return legs, nil
}
