package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseOpsPlatform/internal/api"
	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/internal/metrics"
	"PulseOpsPlatform/pkg/logger"
)

func newTestWebhookService(t *testing.T) (*WebhookService, *IncidentService) {
	t.Helper()

	repo := NewMockIncidentRepository()
	m := metrics.NewIncidentMetrics("incident-logger-test", prometheus.NewRegistry())
	incidents := NewIncidentService(repo, m, nil, logger.NewNop())

	return NewWebhookService(incidents, m, logger.NewNop()), incidents
}

func TestWebhookService_ProcessWebhook(t *testing.T) {
	tests := []struct {
		name        string
		webhook     api.AlertmanagerWebhook
		wantCreated int
	}{
		{
			name: "firing alerts create incidents",
			webhook: api.AlertmanagerWebhook{
				Receiver: "incident-logger",
				Status:   "firing",
				Alerts: []api.AlertmanagerAlert{
					{
						Status:      "firing",
						Labels:      map[string]string{"alertname": "HighCPU", "severity": "critical"},
						Annotations: map[string]string{"summary": "CPU usage above 90%"},
					},
					{
						Status: "firing",
						Labels: map[string]string{"alertname": "DiskFull", "severity": "high"},
					},
				},
			},
			wantCreated: 2,
		},
		{
			name: "resolved alerts are skipped",
			webhook: api.AlertmanagerWebhook{
				Receiver: "incident-logger",
				Status:   "resolved",
				Alerts: []api.AlertmanagerAlert{
					{
						Status: "resolved",
						Labels: map[string]string{"alertname": "HighCPU"},
					},
				},
			},
			wantCreated: 0,
		},
		{
			name: "mixed statuses create only firing",
			webhook: api.AlertmanagerWebhook{
				Receiver: "incident-logger",
				Status:   "firing",
				Alerts: []api.AlertmanagerAlert{
					{
						Status: "firing",
						Labels: map[string]string{"alertname": "HighCPU", "severity": "high"},
					},
					{
						Status: "resolved",
						Labels: map[string]string{"alertname": "DiskFull"},
					},
				},
			},
			wantCreated: 1,
		},
		{
			name: "empty alerts",
			webhook: api.AlertmanagerWebhook{
				Receiver: "incident-logger",
				Status:   "firing",
			},
			wantCreated: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestWebhookService(t)

			response, err := svc.ProcessWebhook(context.Background(), &tt.webhook)
			require.NoError(t, err)

			assert.Equal(t, "ok", response.Status)
			assert.Equal(t, tt.wantCreated, response.CreatedCount)
			assert.Len(t, response.IncidentIDs, tt.wantCreated)
		})
	}
}

func TestWebhookService_IncidentFields(t *testing.T) {
	svc, incidents := newTestWebhookService(t)

	webhook := api.AlertmanagerWebhook{
		Receiver: "incident-logger",
		Status:   "firing",
		Alerts: []api.AlertmanagerAlert{
			{
				Status:      "firing",
				Labels:      map[string]string{"alertname": "HighCPU", "severity": "critical", "instance": "node-1"},
				Annotations: map[string]string{"summary": "CPU usage above 90%", "description": "node-1 CPU at 95%"},
			},
		},
	}

	response, err := svc.ProcessWebhook(context.Background(), &webhook)
	require.NoError(t, err)
	require.Equal(t, 1, response.CreatedCount)

	incident, err := incidents.Get(context.Background(), response.IncidentIDs[0])
	require.NoError(t, err)

	assert.Equal(t, "CPU usage above 90%", incident.Title)
	assert.Equal(t, domain.IncidentSeverityCritical, incident.Severity)
	assert.Equal(t, domain.SourceAlertmanager, incident.Source)
	assert.Equal(t, "HighCPU", incident.AlertName)
	assert.Equal(t, "node-1 CPU at 95%", incident.Description)
}

func TestWebhookService_TitleFallback(t *testing.T) {
	tests := []struct {
		name      string
		alert     api.AlertmanagerAlert
		wantTitle string
	}{
		{
			name: "summary preferred",
			alert: api.AlertmanagerAlert{
				Status:      "firing",
				Labels:      map[string]string{"alertname": "HighCPU"},
				Annotations: map[string]string{"summary": "CPU usage above 90%"},
			},
			wantTitle: "CPU usage above 90%",
		},
		{
			name: "alertname fallback",
			alert: api.AlertmanagerAlert{
				Status: "firing",
				Labels: map[string]string{"alertname": "HighCPU"},
			},
			wantTitle: "HighCPU",
		},
		{
			name: "default title",
			alert: api.AlertmanagerAlert{
				Status: "firing",
				Labels: map[string]string{"severity": "low"},
			},
			wantTitle: "Unknown Alert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, incidents := newTestWebhookService(t)

			response, err := svc.ProcessWebhook(context.Background(), &api.AlertmanagerWebhook{
				Status: "firing",
				Alerts: []api.AlertmanagerAlert{tt.alert},
			})
			require.NoError(t, err)
			require.Equal(t, 1, response.CreatedCount)

			incident, err := incidents.Get(context.Background(), response.IncidentIDs[0])
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, incident.Title)
		})
	}
}

func TestWebhookService_UnknownSeverityDefaultsToMedium(t *testing.T) {
	svc, incidents := newTestWebhookService(t)

	response, err := svc.ProcessWebhook(context.Background(), &api.AlertmanagerWebhook{
		Status: "firing",
		Alerts: []api.AlertmanagerAlert{
			{
				Status: "firing",
				Labels: map[string]string{"alertname": "Flaky", "severity": "warning"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, response.CreatedCount)

	incident, err := incidents.Get(context.Background(), response.IncidentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentSeverityMedium, incident.Severity)
}
