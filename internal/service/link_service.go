package service

import (
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"github.com/Friz64/travelhook/internal/model"
	"github.com/Friz64/travelhook/internal/repository"
)

// LinkService выдает короткие ссылки взамен длинных HAFAS-адресов, чтобы
// сообщения не упирались в лимиты длины.
type LinkService struct {
	links *repository.LinkRepository
	base  string // публичный адрес сервиса, пустой отключает ссылки
	hafas string
}

// NewLinkService создает новый сервис коротких ссылок.
func NewLinkService(links *repository.LinkRepository, base, hafas string) *LinkService {
	return &LinkService{links: links, base: strings.TrimSuffix(base, "/"), hafas: hafas}
}

// TripURL возвращает короткую ссылку на страницу поезда, если у поезда
// есть HAFAS-идентификатор. Пустая строка означает "без ссылки".
func (s *LinkService) TripURL(trip *model.Trip) string {
	if s.base == "" {
		return ""
	}
	eff, err := trip.Status()
	if err != nil {
		return ""
	}
	id := eff.Train.HafasID
	if id == "" {
		id = eff.Train.ID
	}
	if !strings.Contains(id, "|") {
		return ""
	}
	short, err := s.links.Shorten(s.hafas + "/trips/" + url.PathEscape(id))
	if err != nil {
		return ""
	}
	return s.base + "/s/" + short
}

// Resolve возвращает длинный URL по короткому идентификатору или nil.
func (s *LinkService) Resolve(shortID string) (*model.Link, error) {
	link, err := s.links.FindByShort(shortID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return link, nil
}
