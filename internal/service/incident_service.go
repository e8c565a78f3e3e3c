package service

import (
	"context"

	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/internal/metrics"
	"PulseOpsPlatform/internal/producer/rabbitmq"
	"PulseOpsPlatform/internal/repository"
	"PulseOpsPlatform/pkg/errors"
	"PulseOpsPlatform/pkg/logger"
)

// IncidentService реализует бизнес-логику работы с инцидентами
type IncidentService struct {
	repo     repository.IncidentRepository
	metrics  *metrics.IncidentMetrics
	producer rabbitmq.EventProducer
	logger   logger.Logger
}

// NewIncidentService создает новый экземпляр IncidentService.
// producer может быть nil, публикация событий в этом случае отключена.
func NewIncidentService(
	repo repository.IncidentRepository,
	m *metrics.IncidentMetrics,
	producer rabbitmq.EventProducer,
	log logger.Logger,
) *IncidentService {
	return &IncidentService{
		repo:     repo,
		metrics:  m,
		producer: producer,
		logger:   log,
	}
}

// Create создает новый инцидент
func (s *IncidentService) Create(ctx context.Context, title, description string, severity domain.IncidentSeverity, source, alertName string) (*domain.Incident, error) {
	incident, err := domain.NewIncident(title, description, severity, source, alertName)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		s.logger.Error("Failed to create incident",
			logger.String("title", title),
			logger.Error(err))
		return nil, err
	}

	s.metrics.RecordIncidentCreated(incident.Severity, incident.Source)
	s.publishEvent(ctx, rabbitmq.EventIncidentCreated, incident)

	s.logger.Info("Incident created",
		logger.Int64("incident_id", incident.ID),
		logger.String("severity", string(incident.Severity)),
		logger.String("source", incident.Source))

	return incident, nil
}

// Get возвращает инцидент по ID
func (s *IncidentService) Get(ctx context.Context, id int64) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// List возвращает инциденты, подходящие под фильтр
func (s *IncidentService) List(ctx context.Context, filter *domain.IncidentFilter) ([]*domain.Incident, error) {
	if filter == nil {
		filter = &domain.IncidentFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// Update применяет частичное обновление к инциденту.
// Перевод в статус resolved через Update запрещен, для этого есть Resolve.
func (s *IncidentService) Update(ctx context.Context, id int64, update domain.IncidentUpdate) (*domain.Incident, error) {
	if update.IsEmpty() {
		return nil, errors.New(errors.ErrValidation, "update contains no fields")
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := update.Apply(incident); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, incident); err != nil {
		s.logger.Error("Failed to update incident",
			logger.Int64("incident_id", id),
			logger.Error(err))
		return nil, err
	}

	s.logger.Info("Incident updated", logger.Int64("incident_id", id))

	return incident, nil
}

// Resolve переводит инцидент в статус resolved.
// Повторное разрешение возвращает ErrConflict.
func (s *IncidentService) Resolve(ctx context.Context, id int64, resolutionNote string) (*domain.Incident, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := incident.Resolve(resolutionNote); err != nil {
		return nil, err
	}

	// Условное обновление в репозитории защищает от конкурентного разрешения
	if err := s.repo.Resolve(ctx, incident); err != nil {
		s.logger.Error("Failed to resolve incident",
			logger.Int64("incident_id", id),
			logger.Error(err))
		return nil, err
	}

	s.metrics.RecordIncidentResolved(incident.Severity, incident.ResolutionDuration())
	s.publishEvent(ctx, rabbitmq.EventIncidentResolved, incident)

	s.logger.Info("Incident resolved",
		logger.Int64("incident_id", id),
		logger.String("severity", string(incident.Severity)),
		logger.Duration("resolution_duration", incident.ResolutionDuration()))

	return incident, nil
}

// Delete удаляет инцидент. Метрики при удалении не изменяются.
func (s *IncidentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Incident deleted", logger.Int64("incident_id", id))
	return nil
}

// publishEvent публикует событие инцидента, ошибки публикации не прерывают операцию
func (s *IncidentService) publishEvent(ctx context.Context, eventType string, incident *domain.Incident) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishIncidentEvent(ctx, eventType, incident); err != nil {
		s.logger.Warn("Failed to publish incident event",
			logger.String("event_type", eventType),
			logger.Int64("incident_id", incident.ID),
			logger.Error(err))
	}
}
