package model

// Server представляет групповой чат, в котором работает бот, и его настройки.
type Server struct {
	ChatID        int64  `db:"chat_id"`
	Title         string `db:"title"`
	LiveChannelID int64  `db:"live_channel_id"` // 0 - живой канал не настроен
}
