package model

// Link представляет сокращенную ссылку, выдаваемую ботом вместо длинных URL
// на детали рейса (раздаётся по /s/<short_id>).
type Link struct {
	ShortID string `db:"short_id"`
	LongURL string `db:"long_url"`
}
