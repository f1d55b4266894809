// Пакет metrics отдает счетчики работы бота в формате Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	WebhookEvents *prometheus.CounterVec // метки: reason, outcome

	JourneysStarted prometheus.Counter
	PatchesWritten  prometheus.Counter
	HeadsignLookups *prometheus.CounterVec // метка: result

	LastEventTime prometheus.Gauge

	HandlerDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelhook_webhook_events_total",
			Help: "Входящие события вебхука по причине и исходу обработки.",
		}, []string{"reason", "outcome"}),
		JourneysStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travelhook_journeys_started_total",
			Help: "Сколько раз чекин начинал новую цепочку поездок.",
		}),
		PatchesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travelhook_patches_written_total",
			Help: "Сколько раз пользователи записывали правки поездок.",
		}),
		HeadsignLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelhook_headsign_lookups_total",
			Help: "Запросы направления рейса к справочному API.",
		}, []string{"result"}),
		LastEventTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "travelhook_last_event_timestamp_seconds",
			Help: "Время последнего принятого события вебхука.",
		}),
		HandlerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "travelhook_webhook_duration_seconds",
			Help:    "Длительность обработки события вебхука.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.WebhookEvents,
		c.JourneysStarted, c.PatchesWritten, c.HeadsignLookups,
		c.LastEventTime, c.HandlerDuration,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
