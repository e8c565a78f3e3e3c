package api

import (
	"time"

	"PulseOpsPlatform/internal/domain"
)

// CreateIncidentRequest представляет запрос на создание инцидента
type CreateIncidentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // low, medium, high, critical
	Source      string `json:"source"`
	AlertName   string `json:"alert_name"`
}

// UpdateIncidentRequest представляет запрос на частичное обновление инцидента
type UpdateIncidentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Severity    *string `json:"severity,omitempty"`
	Status      *string `json:"status,omitempty"` // open, investigating
}

// ResolveIncidentRequest представляет запрос на разрешение инцидента
type ResolveIncidentRequest struct {
	ResolutionNote string `json:"resolution_note"`
}

// IncidentResponse представляет инцидент в ответе API
type IncidentResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	AlertName   string     `json:"alert_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// ListIncidentsResponse представляет ответ со списком инцидентов
type ListIncidentsResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
	Total     int                `json:"total"`
}

// AlertmanagerAlert представляет один алерт из webhook Alertmanager
type AlertmanagerAlert struct {
	Status      string            `json:"status"` // firing, resolved
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
}

// AlertmanagerWebhook представляет payload webhook от Alertmanager
type AlertmanagerWebhook struct {
	Receiver string              `json:"receiver"`
	Status   string              `json:"status"`
	Alerts   []AlertmanagerAlert `json:"alerts"`
}

// WebhookResponse представляет результат обработки webhook
type WebhookResponse struct {
	Status       string  `json:"status"`
	CreatedCount int     `json:"created_count"`
	IncidentIDs  []int64 `json:"incident_ids"`
}

// ToIncidentResponse преобразует доменную модель в API ответ
func ToIncidentResponse(incident *domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:          incident.ID,
		Title:       incident.Title,
		Description: incident.Description,
		Severity:    string(incident.Severity),
		Status:      string(incident.Status),
		Source:      incident.Source,
		AlertName:   incident.AlertName,
		CreatedAt:   incident.CreatedAt,
		UpdatedAt:   incident.UpdatedAt,
		ResolvedAt:  incident.ResolvedAt,
	}
}

// ToIncidentUpdate преобразует запрос обновления в доменную модель
func (r *UpdateIncidentRequest) ToIncidentUpdate() domain.IncidentUpdate {
	update := domain.IncidentUpdate{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Severity != nil {
		severity := domain.IncidentSeverity(*r.Severity)
		update.Severity = &severity
	}
	if r.Status != nil {
		status := domain.IncidentStatus(*r.Status)
		update.Status = &status
	}
	return update
}
