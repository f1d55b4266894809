package model

import (
	"strings"
	"time"
)

type User struct {
	ID           int64     `db:"id"`
	TelegramID   int64     `db:"telegram_id"`
	StatusToken  string    `db:"status_token"`  // токен чтения статуса travelynx
	WebhookToken string    `db:"webhook_token"` // секрет для входящих вебхуков
	BreakMode    BreakMode `db:"break_journey"`
	Suggestions  string    `db:"suggestions"` // подсказки для ручных чекинов, по одной на строку
	CreatedAt    time.Time `db:"created_at"`
}

// SuggestionList возвращает подсказки пользователя без пустых строк.
func (u *User) SuggestionList() []string {
	var out []string
	for _, s := range strings.Split(u.Suggestions, "\n") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
