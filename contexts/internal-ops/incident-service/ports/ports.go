package ports

import (
	"context"
	"time"
)

// Incident is the aggregated state of one recurring failure signature. The
// window count and level move with every registered event; a long quiet gap
// resets the streak.
type Incident struct {
	Fingerprint   string
	Level         int
	WindowCount   int
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
	ResetApplied  bool
	LastErrorType string
	LastMessage   string
	LastStage     string
	LastEvent     string
	LastTraceID   string
	ReportPath    string
	UpdatedAt     time.Time
}

// IncidentEvent is one registered occurrence, append-only.
type IncidentEvent struct {
	EventID     string
	Fingerprint string
	Level       int
	WindowCount int
	ErrorType   string
	Message     string
	Stack       string
	ContextJSON string
	Stage       string
	Event       string
	TraceID     string
	RequestID   string
	RunID       string
	OccurredAt  time.Time
}

// EventFilter narrows the tail query; zero values mean no constraint.
type EventFilter struct {
	Fingerprint string
	MinLevel    int
	Limit       int
}

type Repository interface {
	GetIncident(ctx context.Context, fingerprint string) (Incident, bool, error)
	UpsertIncident(ctx context.Context, incident Incident) error
	ListIncidents(ctx context.Context) ([]Incident, error)
	AppendIncidentEvent(ctx context.Context, event IncidentEvent) error
	CountEventsSince(ctx context.Context, fingerprint string, since time.Time) (int, error)
	ListRecentEvents(ctx context.Context, filter EventFilter) ([]IncidentEvent, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
