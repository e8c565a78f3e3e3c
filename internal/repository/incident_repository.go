package repository

import (
	"context"

	"PulseOpsPlatform/internal/domain"
)

// IncidentRepository определяет интерфейс хранилища инцидентов
type IncidentRepository interface {
	// Create сохраняет новый инцидент и присваивает ему ID
	Create(ctx context.Context, incident *domain.Incident) error
	// GetByID возвращает инцидент по ID
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	// List возвращает инциденты, подходящие под фильтр
	List(ctx context.Context, filter *domain.IncidentFilter) ([]*domain.Incident, error)
	// Update сохраняет измененный инцидент
	Update(ctx context.Context, incident *domain.Incident) error
	// Resolve атомарно переводит инцидент в статус resolved.
	// Возвращает ErrConflict, если инцидент уже разрешен.
	Resolve(ctx context.Context, incident *domain.Incident) error
	// Delete удаляет инцидент
	Delete(ctx context.Context, id int64) error
	// InitSchema создает таблицы, если они не существуют
	InitSchema(ctx context.Context) error
}
