// Пакет travelynx реализует клиент статусного API travelynx. Через него проверяются
// токены при регистрации и запрашивается текущий чекин для команды /zug.
package travelynx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Friz64/travelhook/internal/model"
)

// Client выполняет запросы к travelynx от имени пользователя.
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

// Status запрашивает текущий статус пользователя по его токену чтения.
func (c *Client) Status(token string) (*model.Status, error) {
	resp, err := c.http.Get(c.base + "/api/v1/status/" + url.PathEscape(token))
	if err != nil {
		return nil, fmt.Errorf("не удалось запросить статус travelynx: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("travelynx ответил кодом %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
		model.Status
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("не удалось разобрать ответ travelynx: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("travelynx: %s", body.Error)
	}
	return &body.Status, nil
}

// TokenValid проверяет, принимает ли travelynx данный токен чтения.
func (c *Client) TokenValid(token string) bool {
	_, err := c.Status(token)
	return err == nil
}
