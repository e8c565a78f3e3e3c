package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/pkg/metrics"
)

// resolutionBuckets границы гистограммы времени разрешения:
// 5m, 15m, 30m, 1h, 2h, 4h, 8h, 24h
var resolutionBuckets = []float64{300, 900, 1800, 3600, 7200, 14400, 28800, 86400}

// IncidentMetrics содержит метрики жизненного цикла инцидентов
type IncidentMetrics struct {
	// Базовые метрики из pkg
	base *metrics.Metrics

	createdTotal       *prometheus.CounterVec
	resolvedTotal      *prometheus.CounterVec
	webhooksTotal      *prometheus.CounterVec
	openTotal          *prometheus.GaugeVec
	resolutionDuration *prometheus.HistogramVec
}

// NewIncidentMetrics создает новый экземпляр метрик инцидентов.
// При reg == nil используется prometheus.DefaultRegisterer.
func NewIncidentMetrics(serviceName string, reg prometheus.Registerer) *IncidentMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	base := metrics.NewMetrics(serviceName, reg)

	createdTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_created_total",
			Help: "Total number of incidents created",
		},
		[]string{"severity", "source"},
	)

	resolvedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_resolved_total",
			Help: "Total number of incidents resolved",
		},
		[]string{"severity"},
	)

	webhooksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertmanager_webhooks_total",
			Help: "Total number of Alertmanager webhooks received",
		},
		[]string{"status"},
	)

	openTotal := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "incidents_open_total",
			Help: "Number of currently open incidents",
		},
		[]string{"severity"},
	)

	resolutionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "incident_resolution_duration_seconds",
			Help:    "Time from incident creation to resolution in seconds",
			Buckets: resolutionBuckets,
		},
		[]string{"severity"},
	)

	metrics.Register(reg, createdTotal)
	metrics.Register(reg, resolvedTotal)
	metrics.Register(reg, webhooksTotal)
	metrics.Register(reg, openTotal)
	metrics.Register(reg, resolutionDuration)

	return &IncidentMetrics{
		base:               base,
		createdTotal:       createdTotal,
		resolvedTotal:      resolvedTotal,
		webhooksTotal:      webhooksTotal,
		openTotal:          openTotal,
		resolutionDuration: resolutionDuration,
	}
}

// RecordIncidentCreated записывает создание инцидента
func (im *IncidentMetrics) RecordIncidentCreated(severity domain.IncidentSeverity, source string) {
	im.createdTotal.WithLabelValues(string(severity), source).Inc()
	im.openTotal.WithLabelValues(string(severity)).Inc()
}

// RecordIncidentResolved записывает разрешение инцидента
func (im *IncidentMetrics) RecordIncidentResolved(severity domain.IncidentSeverity, resolutionDuration time.Duration) {
	im.resolvedTotal.WithLabelValues(string(severity)).Inc()
	im.openTotal.WithLabelValues(string(severity)).Dec()
	im.resolutionDuration.WithLabelValues(string(severity)).Observe(resolutionDuration.Seconds())
}

// RecordWebhookReceived записывает получение webhook от Alertmanager
func (im *IncidentMetrics) RecordWebhookReceived(status string) {
	im.webhooksTotal.WithLabelValues(status).Inc()
}

// GetBaseMetrics возвращает базовые метрики из pkg
func (im *IncidentMetrics) GetBaseMetrics() *metrics.Metrics {
	return im.base
}
