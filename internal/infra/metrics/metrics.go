package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeliveriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_total",
		Help: "Отправленные ежедневные сообщения",
	})
	DeliveryErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_errors_total",
		Help: "Ошибки отправки ежедневных сообщений",
	})
	DeliveryPermissionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_permission_errors_total",
		Help: "Отказы в доставке из-за прав бота в гильдии",
	})
	ContentRefreshErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_refresh_errors_total",
		Help: "Ошибки обновления контента дня",
	})
	ContentRefreshSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "content_refresh_seconds",
		Help:    "Время одного обновления контента дня",
		Buckets: prometheus.DefBuckets,
	})
	RosterSnapshotSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_snapshot_size",
		Help: "Количество гильдий в текущем снимке",
	})
	RosterRefreshErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_refresh_errors_total",
		Help: "Ошибки обновления снимка гильдий",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	DeliveriesByGuild = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deliveries_by_guild_total",
		Help: "Отправленные ежедневные сообщения по гильдиям",
	}, []string{"guild_id"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		DeliveriesTotal,
		DeliveryErrors,
		DeliveryPermissionErrors,
		ContentRefreshErrors,
		ContentRefreshSeconds,
		RosterSnapshotSize,
		RosterRefreshErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
		DeliveriesByGuild,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncDeliveryForGuild увеличивает счётчик отправок для гильдии.
func IncDeliveryForGuild(guildID int64) {
	DeliveriesByGuild.WithLabelValues(strconv.FormatInt(guildID, 10)).Inc()
}
