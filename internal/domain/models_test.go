package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseOpsPlatform/pkg/errors"
)

func TestNewIncident(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		severity     IncidentSeverity
		source       string
		wantErr      bool
		wantCode     errors.ErrorCode
		wantSeverity IncidentSeverity
		wantSource   string
	}{
		{
			name:         "valid incident",
			title:        "Database is down",
			severity:     IncidentSeverityHigh,
			source:       SourceManual,
			wantSeverity: IncidentSeverityHigh,
			wantSource:   SourceManual,
		},
		{
			name:         "empty severity defaults to medium",
			title:        "Slow responses",
			severity:     "",
			source:       "",
			wantSeverity: IncidentSeverityMedium,
			wantSource:   SourceManual,
		},
		{
			name:     "title too short",
			title:    "ab",
			severity: IncidentSeverityLow,
			wantErr:  true,
			wantCode: errors.ErrValidation,
		},
		{
			name:     "title too long",
			title:    strings.Repeat("a", 256),
			severity: IncidentSeverityLow,
			wantErr:  true,
			wantCode: errors.ErrValidation,
		},
		{
			name:         "multibyte title counted in runes",
			title:        strings.Repeat("ж", 130),
			severity:     IncidentSeverityLow,
			wantSeverity: IncidentSeverityLow,
			wantSource:   SourceManual,
		},
		{
			name:     "multibyte title too long",
			title:    strings.Repeat("ж", 256),
			severity: IncidentSeverityLow,
			wantErr:  true,
			wantCode: errors.ErrValidation,
		},
		{
			name:     "unknown severity",
			title:    "Disk almost full",
			severity: "severe",
			wantErr:  true,
			wantCode: errors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incident, err := NewIncident(tt.title, "details", tt.severity, tt.source, "")

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.AsError(err).Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.title, incident.Title)
			assert.Equal(t, tt.wantSeverity, incident.Severity)
			assert.Equal(t, tt.wantSource, incident.Source)
			assert.Equal(t, IncidentStatusOpen, incident.Status)
			assert.False(t, incident.CreatedAt.IsZero())
			assert.Nil(t, incident.ResolvedAt)
		})
	}
}

func TestIncident_Resolve(t *testing.T) {
	t.Run("resolve open incident", func(t *testing.T) {
		incident, err := NewIncident("Database is down", "primary unreachable", IncidentSeverityHigh, SourceManual, "")
		require.NoError(t, err)

		err = incident.Resolve("failover completed")
		require.NoError(t, err)

		assert.Equal(t, IncidentStatusResolved, incident.Status)
		require.NotNil(t, incident.ResolvedAt)
		assert.Contains(t, incident.Description, "\n\nResolution: failover completed")
	})

	t.Run("resolve without note keeps description", func(t *testing.T) {
		incident, err := NewIncident("Database is down", "primary unreachable", IncidentSeverityHigh, SourceManual, "")
		require.NoError(t, err)

		err = incident.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "primary unreachable", incident.Description)
	})

	t.Run("double resolution returns conflict", func(t *testing.T) {
		incident, err := NewIncident("Database is down", "", IncidentSeverityHigh, SourceManual, "")
		require.NoError(t, err)

		require.NoError(t, incident.Resolve("fixed"))

		err = incident.Resolve("fixed again")
		require.Error(t, err)
		assert.Equal(t, errors.ErrConflict, errors.AsError(err).Code)
	})
}

func TestIncident_ResolutionDuration(t *testing.T) {
	createdAt := time.Now().UTC().Add(-30 * time.Minute)
	resolvedAt := createdAt.Add(20 * time.Minute)

	incident := &Incident{
		CreatedAt:  createdAt,
		ResolvedAt: &resolvedAt,
	}
	assert.Equal(t, 20*time.Minute, incident.ResolutionDuration())

	open := &Incident{CreatedAt: createdAt}
	assert.Equal(t, time.Duration(0), open.ResolutionDuration())
}

func TestIncidentUpdate_Apply(t *testing.T) {
	newTitle := "Database still down"
	newSeverity := IncidentSeverityCritical
	investigating := IncidentStatusInvestigating
	resolved := IncidentStatusResolved
	badStatus := IncidentStatus("closed")

	tests := []struct {
		name     string
		prepare  func(t *testing.T) *Incident
		update   IncidentUpdate
		wantErr  bool
		wantCode errors.ErrorCode
		check    func(t *testing.T, incident *Incident)
	}{
		{
			name: "update title and severity",
			prepare: func(t *testing.T) *Incident {
				incident, err := NewIncident("Database is down", "", IncidentSeverityHigh, SourceManual, "")
				require.NoError(t, err)
				return incident
			},
			update: IncidentUpdate{Title: &newTitle, Severity: &newSeverity},
			check: func(t *testing.T, incident *Incident) {
				assert.Equal(t, newTitle, incident.Title)
				assert.Equal(t, IncidentSeverityCritical, incident.Severity)
				assert.NotNil(t, incident.UpdatedAt)
			},
		},
		{
			name: "move to investigating",
			prepare: func(t *testing.T) *Incident {
				incident, err := NewIncident("Database is down", "", IncidentSeverityHigh, SourceManual, "")
				require.NoError(t, err)
				return incident
			},
			update: IncidentUpdate{Status: &investigating},
			check: func(t *testing.T, incident *Incident) {
				assert.Equal(t, IncidentStatusInvestigating, incident.Status)
			},
		},
		{
			name: "resolved status rejected",
			prepare: func(t *testing.T) *Incident {
				incident, err := NewIncident("Database is down", "", IncidentSeverityHigh, SourceManual, "")
				require.NoError(t, err)
				return incident
			},
			update:   IncidentUpdate{Status: &resolved},
			wantErr:  true,
			wantCode: errors.ErrValidation,
		},
		{
			name: "unknown status rejected",
			prepare: func(t *testing.T) *Incident {
				incident, err := NewIncident("Database is down", "", IncidentSeverityHigh, SourceManual, "")
				require.NoError(t, err)
				return incident
			},
			update:   IncidentUpdate{Status: &badStatus},
			wantErr:  true,
			wantCode: errors.ErrValidation,
		},
		{
			name: "status change on resolved incident is conflict",
			prepare: func(t *testing.T) *Incident {
				incident, err := NewIncident("Database is down", "", IncidentSeverityHigh, SourceManual, "")
				require.NoError(t, err)
				require.NoError(t, incident.Resolve("fixed"))
				return incident
			},
			update:   IncidentUpdate{Status: &investigating},
			wantErr:  true,
			wantCode: errors.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incident := tt.prepare(t)
			err := tt.update.Apply(incident)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.AsError(err).Code)
				return
			}

			require.NoError(t, err)
			tt.check(t, incident)
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		want           IncidentSeverity
		wantRecognized bool
	}{
		{name: "known severity", raw: "critical", want: IncidentSeverityCritical, wantRecognized: true},
		{name: "mixed case", raw: "High", want: IncidentSeverityHigh, wantRecognized: true},
		{name: "with spaces", raw: "  low ", want: IncidentSeverityLow, wantRecognized: true},
		{name: "unknown falls back to medium", raw: "warning", want: IncidentSeverityMedium},
		{name: "empty falls back to medium", raw: "", want: IncidentSeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			severity, recognized := ParseSeverity(tt.raw)
			assert.Equal(t, tt.want, severity)
			assert.Equal(t, tt.wantRecognized, recognized)
		})
	}
}

func TestIncidentFilter_Validate(t *testing.T) {
	open := IncidentStatusOpen
	badStatus := IncidentStatus("pending")
	badSeverity := IncidentSeverity("normal")

	tests := []struct {
		name    string
		filter  IncidentFilter
		wantErr bool
	}{
		{name: "empty filter", filter: IncidentFilter{}},
		{name: "valid status filter", filter: IncidentFilter{Status: &open}},
		{name: "invalid status", filter: IncidentFilter{Status: &badStatus}, wantErr: true},
		{name: "invalid severity", filter: IncidentFilter{Severity: &badSeverity}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
