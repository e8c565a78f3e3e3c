package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"PulseOpsPlatform/internal/api"
	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/internal/service"
	"PulseOpsPlatform/pkg/errors"
	"PulseOpsPlatform/pkg/logger"
)

// HTTPHandler обрабатывает HTTP запросы сервиса инцидентов
type HTTPHandler struct {
	logger          logger.Logger
	incidentService *service.IncidentService
	webhookService  *service.WebhookService
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(log logger.Logger, incidents *service.IncidentService, webhooks *service.WebhookService) *HTTPHandler {
	return &HTTPHandler{
		logger:          log,
		incidentService: incidents,
		webhookService:  webhooks,
	}
}

// RegisterRoutes регистрирует HTTP маршруты
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/incidents", h.handleIncidents)
	mux.HandleFunc("/api/v1/incidents/", h.handleIncidentByID)
	mux.HandleFunc("/api/v1/webhooks/alertmanager", h.handleAlertmanagerWebhook)
}

// handleIncidents обрабатывает запросы к /api/v1/incidents
func (h *HTTPHandler) handleIncidents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listIncidents(w, r)
	case http.MethodPost:
		h.createIncident(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleIncidentByID обрабатывает запросы к /api/v1/incidents/{id}
func (h *HTTPHandler) handleIncidentByID(w http.ResponseWriter, r *http.Request) {
	id, ok := extractIncidentID(r.URL.Path)
	if !ok {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid incident ID"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getIncident(w, r, id)
	case http.MethodPut:
		h.updateIncident(w, r, id)
	case http.MethodDelete:
		h.deleteIncident(w, r, id)
	case http.MethodPost:
		if r.URL.Query().Get("action") == "resolve" {
			h.resolveIncident(w, r, id)
		} else {
			errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid action, use ?action=resolve"))
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// createIncident создает новый инцидент
func (h *HTTPHandler) createIncident(w http.ResponseWriter, r *http.Request) {
	var req api.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	incident, err := h.incidentService.Create(r.Context(),
		req.Title,
		req.Description,
		domain.IncidentSeverity(req.Severity),
		req.Source,
		req.AlertName)
	if err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	writeJSON(w, http.StatusCreated, api.ToIncidentResponse(incident))
}

// listIncidents возвращает список инцидентов
func (h *HTTPHandler) listIncidents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := &domain.IncidentFilter{}
	if status := query.Get("status"); status != "" {
		s := domain.IncidentStatus(status)
		filter.Status = &s
	}
	if severity := query.Get("severity"); severity != "" {
		s := domain.IncidentSeverity(severity)
		filter.Severity = &s
	}
	if source := query.Get("source"); source != "" {
		filter.Source = &source
	}

	incidents, err := h.incidentService.List(r.Context(), filter)
	if err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	response := api.ListIncidentsResponse{
		Incidents: make([]api.IncidentResponse, len(incidents)),
		Total:     len(incidents),
	}
	for i, incident := range incidents {
		response.Incidents[i] = api.ToIncidentResponse(incident)
	}

	writeJSON(w, http.StatusOK, response)
}

// getIncident возвращает инцидент по ID
func (h *HTTPHandler) getIncident(w http.ResponseWriter, r *http.Request, id int64) {
	incident, err := h.incidentService.Get(r.Context(), id)
	if err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	writeJSON(w, http.StatusOK, api.ToIncidentResponse(incident))
}

// updateIncident применяет частичное обновление инцидента
func (h *HTTPHandler) updateIncident(w http.ResponseWriter, r *http.Request, id int64) {
	var req api.UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	incident, err := h.incidentService.Update(r.Context(), id, req.ToIncidentUpdate())
	if err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	writeJSON(w, http.StatusOK, api.ToIncidentResponse(incident))
}

// resolveIncident разрешает инцидент
func (h *HTTPHandler) resolveIncident(w http.ResponseWriter, r *http.Request, id int64) {
	var req api.ResolveIncidentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
			return
		}
	}

	incident, err := h.incidentService.Resolve(r.Context(), id, req.ResolutionNote)
	if err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	writeJSON(w, http.StatusOK, api.ToIncidentResponse(incident))
}

// deleteIncident удаляет инцидент
func (h *HTTPHandler) deleteIncident(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.incidentService.Delete(r.Context(), id); err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAlertmanagerWebhook обрабатывает webhook от Alertmanager
func (h *HTTPHandler) handleAlertmanagerWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var webhook api.AlertmanagerWebhook
	if err := json.NewDecoder(r.Body).Decode(&webhook); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	response, err := h.webhookService.ProcessWebhook(r.Context(), &webhook)
	if err != nil {
		errors.WriteHTTP(w, errors.AsError(err))
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// writeJSON сериализует ответ в JSON
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// extractIncidentID извлекает ID инцидента из URL вида /api/v1/incidents/{id}
func extractIncidentID(path string) (int64, bool) {
	raw := strings.TrimPrefix(path, "/api/v1/incidents/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
