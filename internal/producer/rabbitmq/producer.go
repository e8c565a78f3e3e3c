package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/pkg/logger"
	"PulseOpsPlatform/pkg/rabbitmq"
)

// Типы событий жизненного цикла инцидента
const (
	EventIncidentCreated  = "created"
	EventIncidentResolved = "resolved"
)

// EventProducer определяет интерфейс для publisher событий инцидентов
type EventProducer interface {
	// PublishIncidentEvent публикует событие инцидента
	PublishIncidentEvent(ctx context.Context, eventType string, incident *domain.Incident) error

	// Close закрывает producer
	Close() error
}

// IncidentEvent представляет событие инцидента
type IncidentEvent struct {
	EventType  string                  `json:"event_type"` // incident.created, incident.resolved
	Timestamp  time.Time               `json:"timestamp"`
	Service    string                  `json:"service"` // incident-logger
	IncidentID int64                   `json:"incident_id"`
	Title      string                  `json:"title"`
	Status     domain.IncidentStatus   `json:"status"`
	Severity   domain.IncidentSeverity `json:"severity"`
	Source     string                  `json:"source"`
	AlertName  string                  `json:"alert_name,omitempty"`
	Duration   int64                   `json:"duration_ms,omitempty"` // Время до разрешения в миллисекундах
}

// IncidentProducer публикует события инцидентов в RabbitMQ
type IncidentProducer struct {
	conn     *rabbitmq.Connection
	producer *rabbitmq.Producer
	exchange string
	logger   logger.Logger
}

// NewIncidentProducer создает новый producer для событий инцидентов
func NewIncidentProducer(conn *rabbitmq.Connection, exchange string, log logger.Logger) (*IncidentProducer, error) {
	channel := conn.Channel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is not initialized")
	}

	// Topic exchange позволяет потребителям подписываться
	// на отдельные типы событий и уровни серьезности
	err := channel.ExchangeDeclare(
		exchange, // имя exchange
		"topic",  // тип exchange
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	producerConfig := rabbitmq.NewConfig()
	producerConfig.Exchange = exchange

	return &IncidentProducer{
		conn:     conn,
		producer: rabbitmq.NewProducer(conn, producerConfig),
		exchange: exchange,
		logger:   log,
	}, nil
}

// PublishIncidentEvent публикует событие инцидента.
// Routing key имеет формат incident.<event>.<severity>.
func (p *IncidentProducer) PublishIncidentEvent(ctx context.Context, eventType string, incident *domain.Incident) error {
	if incident == nil {
		return fmt.Errorf("incident cannot be nil")
	}

	event := &IncidentEvent{
		EventType:  fmt.Sprintf("incident.%s", eventType),
		Timestamp:  time.Now().UTC(),
		Service:    "incident-logger",
		IncidentID: incident.ID,
		Title:      incident.Title,
		Status:     incident.Status,
		Severity:   incident.Severity,
		Source:     incident.Source,
		AlertName:  incident.AlertName,
	}

	if eventType == EventIncidentResolved {
		event.Duration = incident.ResolutionDuration().Milliseconds()
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal incident event",
			logger.String("event_type", eventType),
			logger.Int64("incident_id", incident.ID),
			logger.Error(err))
		return fmt.Errorf("failed to marshal incident event: %w", err)
	}

	routingKey := fmt.Sprintf("incident.%s.%s", eventType, incident.Severity)

	err = p.producer.Publish(ctx, eventData,
		rabbitmq.WithExchange(p.exchange),
		rabbitmq.WithRoutingKey(routingKey),
		rabbitmq.WithHeaders(amqp.Table{
			"event_type":  event.EventType,
			"incident_id": incident.ID,
			"severity":    string(incident.Severity),
			"status":      string(incident.Status),
			"service":     "incident-logger",
		}),
	)
	if err != nil {
		p.logger.Error("Failed to publish incident event",
			logger.String("event_type", eventType),
			logger.Int64("incident_id", incident.ID),
			logger.String("routing_key", routingKey),
			logger.Error(err))
		return fmt.Errorf("failed to publish incident event: %w", err)
	}

	p.logger.Info("Incident event published",
		logger.String("event_type", eventType),
		logger.Int64("incident_id", incident.ID),
		logger.String("routing_key", routingKey))

	return nil
}

// Close закрывает producer
func (p *IncidentProducer) Close() error {
	if channel := p.conn.Channel(); channel != nil {
		return channel.Close()
	}
	return nil
}
