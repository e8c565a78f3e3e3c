package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"PulseOpsPlatform/pkg/errors"
)

// IncidentStatus представляет статус инцидента
type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// IncidentSeverity представляет уровень серьезности инцидента
type IncidentSeverity string

const (
	IncidentSeverityLow      IncidentSeverity = "low"
	IncidentSeverityMedium   IncidentSeverity = "medium"
	IncidentSeverityHigh     IncidentSeverity = "high"
	IncidentSeverityCritical IncidentSeverity = "critical"
)

// DefaultSeverity используется когда уровень серьезности не указан или не распознан
const DefaultSeverity = IncidentSeverityMedium

const (
	// SourceManual источник для инцидентов, созданных через API
	SourceManual = "manual"
	// SourceAlertmanager источник для инцидентов, созданных через webhook
	SourceAlertmanager = "alertmanager"
)

const (
	titleMinLength = 3
	titleMaxLength = 255
)

// Incident представляет сущность инцидента
type Incident struct {
	ID          int64            `json:"id" db:"id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Severity    IncidentSeverity `json:"severity" db:"severity"`
	Status      IncidentStatus   `json:"status" db:"status"`
	Source      string           `json:"source" db:"source"`
	AlertName   string           `json:"alert_name,omitempty" db:"alert_name"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty" db:"updated_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
}

// NewIncident создает новый инцидент со статусом open
func NewIncident(title, description string, severity IncidentSeverity, source, alertName string) (*Incident, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if severity == "" {
		severity = DefaultSeverity
	}
	if !IsValidSeverity(severity) {
		return nil, errors.New(errors.ErrValidation, fmt.Sprintf("invalid severity: %s", severity))
	}
	if source == "" {
		source = SourceManual
	}

	return &Incident{
		Title:       title,
		Description: description,
		Severity:    severity,
		Status:      IncidentStatusOpen,
		Source:      source,
		AlertName:   alertName,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// IsResolved проверяет, является ли инцидент разрешенным
func (i *Incident) IsResolved() bool {
	return i.Status == IncidentStatusResolved
}

// Resolve переводит инцидент в статус resolved.
// Повторное разрешение возвращает ErrConflict.
func (i *Incident) Resolve(note string) error {
	if i.IsResolved() {
		return errors.New(errors.ErrConflict, fmt.Sprintf("incident %d is already resolved", i.ID))
	}
	now := time.Now().UTC()
	i.Status = IncidentStatusResolved
	i.ResolvedAt = &now
	i.UpdatedAt = &now
	if note != "" {
		i.Description = i.Description + "\n\nResolution: " + note
	}
	return nil
}

// ResolutionDuration возвращает время от создания до разрешения инцидента.
// Для неразрешенных инцидентов возвращает 0.
func (i *Incident) ResolutionDuration() time.Duration {
	if i.ResolvedAt == nil {
		return 0
	}
	return i.ResolvedAt.Sub(i.CreatedAt)
}

// IncidentUpdate представляет частичное обновление инцидента.
// Nil-поля не изменяются.
type IncidentUpdate struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Severity    *IncidentSeverity `json:"severity,omitempty"`
	Status      *IncidentStatus   `json:"status,omitempty"`
}

// IsEmpty проверяет, что обновление не содержит изменений
func (u *IncidentUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Severity == nil && u.Status == nil
}

// Validate проверяет корректность полей обновления
func (u *IncidentUpdate) Validate() error {
	if u.Title != nil {
		if err := ValidateTitle(*u.Title); err != nil {
			return err
		}
	}
	if u.Severity != nil && !IsValidSeverity(*u.Severity) {
		return errors.New(errors.ErrValidation, fmt.Sprintf("invalid severity: %s", *u.Severity))
	}
	if u.Status != nil {
		if !IsValidStatus(*u.Status) {
			return errors.New(errors.ErrValidation, fmt.Sprintf("invalid status: %s", *u.Status))
		}
		if *u.Status == IncidentStatusResolved {
			return errors.New(errors.ErrValidation, "use the resolve operation to close an incident")
		}
	}
	return nil
}

// Apply применяет обновление к инциденту.
// Изменение статуса разрешенного инцидента возвращает ErrConflict.
func (u *IncidentUpdate) Apply(incident *Incident) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Status != nil && incident.IsResolved() && *u.Status != incident.Status {
		return errors.New(errors.ErrConflict, fmt.Sprintf("incident %d is resolved, status can not be changed", incident.ID))
	}

	if u.Title != nil {
		incident.Title = *u.Title
	}
	if u.Description != nil {
		incident.Description = *u.Description
	}
	if u.Severity != nil {
		incident.Severity = *u.Severity
	}
	if u.Status != nil {
		incident.Status = *u.Status
	}

	now := time.Now().UTC()
	incident.UpdatedAt = &now
	return nil
}

// ValidateTitle проверяет длину заголовка инцидента в символах
func ValidateTitle(title string) error {
	length := utf8.RuneCountInString(title)
	if length < titleMinLength || length > titleMaxLength {
		return errors.New(errors.ErrValidation,
			fmt.Sprintf("title must be between %d and %d characters", titleMinLength, titleMaxLength))
	}
	return nil
}

// IsValidSeverity проверяет валидность уровня серьезности
func IsValidSeverity(severity IncidentSeverity) bool {
	switch severity {
	case IncidentSeverityLow, IncidentSeverityMedium, IncidentSeverityHigh, IncidentSeverityCritical:
		return true
	default:
		return false
	}
}

// IsValidStatus проверяет валидность статуса
func IsValidStatus(status IncidentStatus) bool {
	switch status {
	case IncidentStatusOpen, IncidentStatusInvestigating, IncidentStatusResolved:
		return true
	default:
		return false
	}
}

// ParseSeverity преобразует строку в уровень серьезности.
// Второе значение сообщает, был ли уровень распознан;
// для нераспознанных значений возвращается DefaultSeverity.
func ParseSeverity(raw string) (IncidentSeverity, bool) {
	severity := IncidentSeverity(strings.ToLower(strings.TrimSpace(raw)))
	if !IsValidSeverity(severity) {
		return DefaultSeverity, false
	}
	return severity, true
}

// IncidentFilter представляет фильтры для поиска инцидентов
type IncidentFilter struct {
	Status   *IncidentStatus   `json:"status,omitempty"`
	Severity *IncidentSeverity `json:"severity,omitempty"`
	Source   *string           `json:"source,omitempty"`
}

// Validate проверяет корректность фильтров
func (f *IncidentFilter) Validate() error {
	if f.Status != nil && !IsValidStatus(*f.Status) {
		return errors.New(errors.ErrValidation, fmt.Sprintf("invalid status filter: %s", *f.Status))
	}
	if f.Severity != nil && !IsValidSeverity(*f.Severity) {
		return errors.New(errors.ErrValidation, fmt.Sprintf("invalid severity filter: %s", *f.Severity))
	}
	return nil
}
