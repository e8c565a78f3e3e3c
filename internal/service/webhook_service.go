package service

import (
	"context"

	"PulseOpsPlatform/internal/api"
	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/internal/metrics"
	"PulseOpsPlatform/pkg/logger"
)

const (
	alertStatusFiring = "firing"
	unknownAlertTitle = "Unknown Alert"
)

// WebhookService обрабатывает webhook от Alertmanager
type WebhookService struct {
	incidents *IncidentService
	metrics   *metrics.IncidentMetrics
	logger    logger.Logger
}

// NewWebhookService создает новый экземпляр WebhookService
func NewWebhookService(incidents *IncidentService, m *metrics.IncidentMetrics, log logger.Logger) *WebhookService {
	return &WebhookService{
		incidents: incidents,
		metrics:   m,
		logger:    log,
	}
}

// ProcessWebhook обрабатывает payload webhook от Alertmanager.
// Для каждого алерта со статусом firing создается один инцидент,
// алерты с другими статусами пропускаются.
func (s *WebhookService) ProcessWebhook(ctx context.Context, webhook *api.AlertmanagerWebhook) (*api.WebhookResponse, error) {
	s.metrics.RecordWebhookReceived(webhook.Status)

	s.logger.Info("Alertmanager webhook received",
		logger.String("receiver", webhook.Receiver),
		logger.String("status", webhook.Status),
		logger.Int("alerts", len(webhook.Alerts)))

	response := &api.WebhookResponse{
		Status:      "ok",
		IncidentIDs: []int64{},
	}

	for _, alert := range webhook.Alerts {
		if alert.Status != alertStatusFiring {
			continue
		}

		incident, err := s.createIncidentFromAlert(ctx, &alert)
		if err != nil {
			s.logger.Warn("Failed to create incident from alert",
				logger.String("alertname", alert.Labels["alertname"]),
				logger.Error(err))
			continue
		}

		response.CreatedCount++
		response.IncidentIDs = append(response.IncidentIDs, incident.ID)
	}

	return response, nil
}

// createIncidentFromAlert создает один инцидент из одного алерта
func (s *WebhookService) createIncidentFromAlert(ctx context.Context, alert *api.AlertmanagerAlert) (*domain.Incident, error) {
	title := alertTitle(alert)
	severity, recognized := domain.ParseSeverity(alert.Labels["severity"])
	if !recognized && alert.Labels["severity"] != "" {
		s.logger.Debug("Unknown alert severity, defaulting",
			logger.String("severity", alert.Labels["severity"]),
			logger.String("alertname", alert.Labels["alertname"]))
	}
	description := alert.Annotations["description"]
	alertName := alert.Labels["alertname"]

	return s.incidents.Create(ctx, title, description, severity, domain.SourceAlertmanager, alertName)
}

// alertTitle выбирает заголовок инцидента: annotation summary,
// затем label alertname, затем значение по умолчанию
func alertTitle(alert *api.AlertmanagerAlert) string {
	if summary := alert.Annotations["summary"]; summary != "" {
		return summary
	}
	if alertname := alert.Labels["alertname"]; alertname != "" {
		return alertname
	}
	return unknownAlertTitle
}
