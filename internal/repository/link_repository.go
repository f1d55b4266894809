package repository

import (
	"fmt"
	"strings"

	"github.com/Friz64/travelhook/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LinkRepository обеспечивает хранение сокращенных ссылок.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository создает новый репозиторий ссылок.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Shorten сохраняет длинный URL под коротким идентификатором и возвращает его.
// Уже сокращенный URL получает прежний идентификатор.
func (r *LinkRepository) Shorten(longURL string) (string, error) {
	var shortID string
	err := r.db.Get(&shortID, "SELECT short_id FROM links WHERE long_url=$1 LIMIT 1", longURL)
	if err == nil {
		return shortID, nil
	}
	shortID = strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	_, err = r.db.Exec("INSERT INTO links (short_id, long_url) VALUES ($1, $2)", shortID, longURL)
	if err != nil {
		return "", fmt.Errorf("не удалось сохранить короткую ссылку: %w", err)
	}
	return shortID, nil
}

// FindByShort возвращает ссылку по короткому идентификатору.
func (r *LinkRepository) FindByShort(shortID string) (*model.Link, error) {
	var link model.Link
	err := r.db.Get(&link, "SELECT * FROM links WHERE short_id=$1", shortID)
	if err != nil {
		return nil, err
	}
	return &link, nil
}
