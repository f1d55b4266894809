// Пакет format собирает текст сообщений о поездках для Telegram
// (разметка Markdown).
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Friz64/travelhook/internal/model"
)

var trainEmoji = map[string]string{
	"ICE": "🚄", "TGV": "🚄", "RJ": "🚄", "RJX": "🚄", "ECE": "🚄",
	"IC": "🚆", "EC": "🚆", "D": "🚆", "FLX": "🚆", "NJ": "🌙", "EN": "🌙",
	"RE": "🚆", "RB": "🚆", "IRE": "🚆", "MEX": "🚆", "TER": "🚆",
	"S": "🚈", "U": "🚇", "STR": "🚊", "STB": "🚊", "Tram": "🚊",
	"Bus": "🚌", "RUF": "🚌", "AST": "🚕",
	"Fähre": "⛴", "Schiff": "⛴",
	"walk": "🚶", "Fußweg": "🚶",
}

// TrainEmoji возвращает пиктограмму для типа поезда.
func TrainEmoji(trainType string) string {
	if e, ok := trainEmoji[trainType]; ok {
		return e
	}
	return "🚃"
}

// TrainLabel возвращает короткую подпись поезда, например "S 45" или "ICE 123".
func TrainLabel(t model.Train) string {
	label := t.LineLabel()
	if label == "" {
		return t.Type
	}
	return t.Type + " " + label
}

// Time печатает время по расписанию жирным и опоздание в минутах, если оно есть.
func Time(sched, real int64, loc *time.Location) string {
	out := "*" + time.Unix(sched, 0).In(loc).Format("15:04") + "*"
	if real > sched {
		out += fmt.Sprintf(" +%d′", (real-sched)/60)
	}
	return out
}

// TripDecor представляет внешние украшения поездки: направление и ссылку на поезд.
type TripDecor struct {
	Headsign string
	TrainURL string
}

// TripLines строит блок из двух строк про одну поездку: поезд с направлением
// и перегон со временами.
func TripLines(status model.Status, decor TripDecor, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(TrainEmoji(status.Train.Type))
	b.WriteString(" ")
	if decor.TrainURL != "" {
		b.WriteString("[" + TrainLabel(status.Train) + "](" + decor.TrainURL + ")")
	} else {
		b.WriteString("*" + TrainLabel(status.Train) + "*")
	}
	if decor.Headsign != "" {
		b.WriteString(" → ")
		b.WriteString(decor.Headsign)
	}
	b.WriteString("\n")
	b.WriteString(status.FromStation.Name)
	b.WriteString(" ")
	b.WriteString(Time(status.FromStation.ScheduledTime, status.FromStation.RealTime, loc))
	b.WriteString(" → ")
	b.WriteString(status.ToStation.Name)
	b.WriteString(" ")
	b.WriteString(Time(status.ToStation.ScheduledTime, status.ToStation.RealTime, loc))
	return b.String()
}

// Journey печатает все поездки путешествия сверху вниз. Украшения каждой
// поездки запрашиваются через decor.
func Journey(trips []model.Trip, decor func(*model.Trip) TripDecor, loc *time.Location) string {
	var blocks []string
	for i := range trips {
		status, err := trips[i].Status()
		if err != nil {
			continue
		}
		blocks = append(blocks, TripLines(status, decor(&trips[i]), loc))
	}
	text := strings.Join(blocks, "\n\n")
	if comment := lastComment(trips); comment != "" {
		text += "\n\n_" + comment + "_"
	}
	return text
}

// JourneySummary сжимает путешествие до одной строки для устаревших сообщений.
func JourneySummary(trips []model.Trip, loc *time.Location) string {
	if len(trips) == 0 {
		return ""
	}
	first, err := trips[0].Status()
	if err != nil {
		return ""
	}
	last, err := trips[len(trips)-1].Status()
	if err != nil {
		return ""
	}
	day := time.Unix(first.FromStation.ScheduledTime, 0).In(loc).Format("02.01")
	return fmt.Sprintf("🧳 %s: %s → %s", day, first.FromStation.Name, last.ToStation.Name)
}

// ContinuedAt дописывает ссылку на сообщение с продолжением путешествия.
func ContinuedAt(text, link string) string {
	return text + "\n\n[продолжение ↓](" + link + ")"
}

// MessageLink строит ссылку вида t.me/c/... на сообщение в канале или супергруппе.
func MessageLink(chatID, messageID int64) string {
	id := strings.TrimPrefix(strconv.FormatInt(chatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

func lastComment(trips []model.Trip) string {
	if len(trips) == 0 {
		return ""
	}
	status, err := trips[len(trips)-1].Status()
	if err != nil {
		return ""
	}
	return status.Comment
}
