package model

// Message представляет опубликованное в живой канал сообщение с маршрутом.
// По нему бот понимает, что у цепочки уже есть сообщение, которое надо
// редактировать, а не создавать новое.
type Message struct {
	UserID    int64  `db:"user_id"`
	JourneyID string `db:"journey_id"`
	ChatID    int64  `db:"chat_id"`
	MessageID int64  `db:"message_id"`
}
