package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"maestro/contexts/internal-ops/incident-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetIncident(ctx context.Context, fingerprint string) (ports.Incident, bool, error) {
	var row incidentModel
	err := r.db.WithContext(ctx).
		Where("fingerprint = ?", strings.TrimSpace(fingerprint)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Incident{}, false, nil
		}
		return ports.Incident{}, false, err
	}
	return row.toPort(), true, nil
}

func (r *Repository) UpsertIncident(ctx context.Context, incident ports.Incident) error {
	row := incidentModelFromPort(incident)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fingerprint"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"level", "window_count", "last_seen_at", "reset_applied",
				"last_error_type", "last_message", "last_stage", "last_event",
				"last_trace_id", "report_path", "updated_at",
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) ListIncidents(ctx context.Context) ([]ports.Incident, error) {
	var rows []incidentModel
	if err := r.db.WithContext(ctx).
		Order("last_seen_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.Incident, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) AppendIncidentEvent(ctx context.Context, event ports.IncidentEvent) error {
	row := incidentEventModelFromPort(event)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) CountEventsSince(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&incidentEventModel{}).
		Where("fingerprint = ? AND occurred_at >= ?", strings.TrimSpace(fingerprint), since.UTC()).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) ListRecentEvents(ctx context.Context, filter ports.EventFilter) ([]ports.IncidentEvent, error) {
	query := r.db.WithContext(ctx).Order("occurred_at DESC")
	if filter.Fingerprint != "" {
		query = query.Where("fingerprint = ?", filter.Fingerprint)
	}
	if filter.MinLevel > 0 {
		query = query.Where("level >= ?", filter.MinLevel)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []incidentEventModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]ports.IncidentEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

type incidentModel struct {
	Fingerprint   string    `gorm:"column:fingerprint;primaryKey"`
	Level         int       `gorm:"column:level"`
	WindowCount   int       `gorm:"column:window_count"`
	FirstSeenAt   time.Time `gorm:"column:first_seen_at"`
	LastSeenAt    time.Time `gorm:"column:last_seen_at"`
	ResetApplied  bool      `gorm:"column:reset_applied"`
	LastErrorType string    `gorm:"column:last_error_type"`
	LastMessage   string    `gorm:"column:last_message"`
	LastStage     string    `gorm:"column:last_stage"`
	LastEvent     string    `gorm:"column:last_event"`
	LastTraceID   string    `gorm:"column:last_trace_id"`
	ReportPath    string    `gorm:"column:report_path"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (incidentModel) TableName() string {
	return "incident_states"
}

func incidentModelFromPort(item ports.Incident) incidentModel {
	return incidentModel{
		Fingerprint:   strings.TrimSpace(item.Fingerprint),
		Level:         item.Level,
		WindowCount:   item.WindowCount,
		FirstSeenAt:   item.FirstSeenAt.UTC(),
		LastSeenAt:    item.LastSeenAt.UTC(),
		ResetApplied:  item.ResetApplied,
		LastErrorType: item.LastErrorType,
		LastMessage:   item.LastMessage,
		LastStage:     item.LastStage,
		LastEvent:     item.LastEvent,
		LastTraceID:   item.LastTraceID,
		ReportPath:    item.ReportPath,
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m incidentModel) toPort() ports.Incident {
	return ports.Incident{
		Fingerprint:   m.Fingerprint,
		Level:         m.Level,
		WindowCount:   m.WindowCount,
		FirstSeenAt:   m.FirstSeenAt.UTC(),
		LastSeenAt:    m.LastSeenAt.UTC(),
		ResetApplied:  m.ResetApplied,
		LastErrorType: m.LastErrorType,
		LastMessage:   m.LastMessage,
		LastStage:     m.LastStage,
		LastEvent:     m.LastEvent,
		LastTraceID:   m.LastTraceID,
		ReportPath:    m.ReportPath,
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type incidentEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	Fingerprint string    `gorm:"column:fingerprint"`
	Level       int       `gorm:"column:level"`
	WindowCount int       `gorm:"column:window_count"`
	ErrorType   string    `gorm:"column:error_type"`
	Message     string    `gorm:"column:message"`
	Stack       string    `gorm:"column:stack"`
	ContextJSON string    `gorm:"column:context_json;type:jsonb"`
	Stage       string    `gorm:"column:stage"`
	Event       string    `gorm:"column:event"`
	TraceID     string    `gorm:"column:trace_id"`
	RequestID   string    `gorm:"column:request_id"`
	RunID       string    `gorm:"column:run_id"`
	OccurredAt  time.Time `gorm:"column:occurred_at"`
}

func (incidentEventModel) TableName() string {
	return "incident_events"
}

func incidentEventModelFromPort(item ports.IncidentEvent) incidentEventModel {
	return incidentEventModel{
		EventID:     strings.TrimSpace(item.EventID),
		Fingerprint: strings.TrimSpace(item.Fingerprint),
		Level:       item.Level,
		WindowCount: item.WindowCount,
		ErrorType:   item.ErrorType,
		Message:     item.Message,
		Stack:       item.Stack,
		ContextJSON: item.ContextJSON,
		Stage:       item.Stage,
		Event:       item.Event,
		TraceID:     item.TraceID,
		RequestID:   item.RequestID,
		RunID:       item.RunID,
		OccurredAt:  item.OccurredAt.UTC(),
	}
}

func (m incidentEventModel) toPort() ports.IncidentEvent {
	return ports.IncidentEvent{
		EventID:     m.EventID,
		Fingerprint: m.Fingerprint,
		Level:       m.Level,
		WindowCount: m.WindowCount,
		ErrorType:   m.ErrorType,
		Message:     m.Message,
		Stack:       m.Stack,
		ContextJSON: m.ContextJSON,
		Stage:       m.Stage,
		Event:       m.Event,
		TraceID:     m.TraceID,
		RequestID:   m.RequestID,
		RunID:       m.RunID,
		OccurredAt:  m.OccurredAt.UTC(),
	}
}
