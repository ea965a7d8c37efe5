package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	domainerrors "maestro/contexts/internal-ops/incident-service/domain/errors"
	"maestro/contexts/internal-ops/incident-service/ports"
)

const (
	// windowMinutes is the sliding window the escalation level is computed
	// over; resetMinutes is the quiet gap after which a recurring signature
	// starts a fresh streak.
	windowMinutes = 15
	resetMinutes  = 30

	levelOneCount   = 3
	levelTwoCount   = 5
	levelThreeCount = 8

	maxErrorTypeLen = 120
	maxMessageLen   = 3000
	maxStackLen     = 60000
)

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type RegisterInput struct {
	ErrorType string
	Message   string
	Stack     string
	Context   map[string]any
	Stage     string
	Event     string
	TraceID   string
	RequestID string
	RunID     string
}

type RegisterResult struct {
	Fingerprint  string
	Level        int
	WindowCount  int
	Escalated    bool
	ResetApplied bool
}

// Register folds one failure occurrence into its incident. The fingerprint
// groups occurrences of the same signature; the level derives from the count
// inside the sliding window, never from the lifetime total.
func (s Service) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return RegisterResult{}, domainerrors.ErrInvalidRequest
	}

	errorType := clipText(strings.TrimSpace(input.ErrorType), maxErrorTypeLen)
	if errorType == "" {
		errorType = InferErrorType(message)
	}
	message = clipText(message, maxMessageLen)
	stack := clipText(input.Stack, maxStackLen)
	fingerprint := Fingerprint(errorType, message, stack, input.Context)

	now := s.Clock.Now().UTC()
	previous, found, err := s.Repo.GetIncident(ctx, fingerprint)
	if err != nil {
		return RegisterResult{}, err
	}
	resetApplied := found && now.Sub(previous.LastSeenAt) >= resetMinutes*time.Minute

	windowStart := now.Add(-windowMinutes * time.Minute)
	priorInWindow, err := s.Repo.CountEventsSince(ctx, fingerprint, windowStart)
	if err != nil {
		return RegisterResult{}, err
	}
	windowCount := priorInWindow + 1
	level := levelFromCount(windowCount)
	previousLevel := 0
	if found && !resetApplied {
		previousLevel = previous.Level
	}

	contextJSON := "{}"
	if len(input.Context) > 0 {
		if raw, err := json.Marshal(input.Context); err == nil {
			contextJSON = string(raw)
		}
	}

	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return RegisterResult{}, err
	}
	if err := s.Repo.AppendIncidentEvent(ctx, ports.IncidentEvent{
		EventID:     eventID,
		Fingerprint: fingerprint,
		Level:       level,
		WindowCount: windowCount,
		ErrorType:   errorType,
		Message:     message,
		Stack:       stack,
		ContextJSON: contextJSON,
		Stage:       clipText(strings.TrimSpace(input.Stage), maxErrorTypeLen),
		Event:       clipText(strings.TrimSpace(input.Event), 160),
		TraceID:     clipText(strings.TrimSpace(input.TraceID), 160),
		RequestID:   clipText(strings.TrimSpace(input.RequestID), 160),
		RunID:       clipText(strings.TrimSpace(input.RunID), 160),
		OccurredAt:  now,
	}); err != nil {
		return RegisterResult{}, err
	}

	firstSeen := now
	reportPath := ""
	if found {
		firstSeen = previous.FirstSeenAt
		reportPath = previous.ReportPath
	}
	if level >= 2 && (previousLevel < 2 || (previousLevel < 3 && level >= 3) || reportPath == "") {
		reportPath = fmt.Sprintf("incidents/incident-%s-%s.md", fingerprint, now.Format("20060102T150405Z"))
	}
	incident := ports.Incident{
		Fingerprint:   fingerprint,
		Level:         level,
		WindowCount:   windowCount,
		FirstSeenAt:   firstSeen,
		LastSeenAt:    now,
		ResetApplied:  resetApplied,
		LastErrorType: errorType,
		LastMessage:   clipText(message, 1200),
		LastStage:     clipText(strings.TrimSpace(input.Stage), maxErrorTypeLen),
		LastEvent:     clipText(strings.TrimSpace(input.Event), 160),
		LastTraceID:   clipText(strings.TrimSpace(input.TraceID), 160),
		ReportPath:    reportPath,
		UpdatedAt:     now,
	}
	if err := s.Repo.UpsertIncident(ctx, incident); err != nil {
		return RegisterResult{}, err
	}

	escalated := level > previousLevel
	if escalated && level >= 2 {
		logger.Warn("incident escalated",
			"event", "incident_escalated",
			"module", "internal-ops/incident-service",
			"layer", "application",
			"fingerprint", fingerprint,
			"level", level,
			"window_count", windowCount,
		)
	}
	return RegisterResult{
		Fingerprint:  fingerprint,
		Level:        level,
		WindowCount:  windowCount,
		Escalated:    escalated,
		ResetApplied: resetApplied,
	}, nil
}

func (s Service) GetIncident(ctx context.Context, fingerprint string) (ports.Incident, error) {
	incident, found, err := s.Repo.GetIncident(ctx, strings.TrimSpace(fingerprint))
	if err != nil {
		return ports.Incident{}, err
	}
	if !found {
		return ports.Incident{}, domainerrors.ErrIncidentNotFound
	}
	return incident, nil
}

func (s Service) ListIncidents(ctx context.Context) ([]ports.Incident, error) {
	return s.Repo.ListIncidents(ctx)
}

type TailQuery struct {
	Fingerprint string
	MinLevel    int
	Limit       int
}

// Tail returns the most recent occurrences, newest first, for operator
// triage; optionally narrowed to one fingerprint or a minimum level.
func (s Service) Tail(ctx context.Context, query TailQuery) ([]ports.IncidentEvent, error) {
	if query.Limit <= 0 || query.Limit > 200 {
		query.Limit = 50
	}
	return s.Repo.ListRecentEvents(ctx, ports.EventFilter{
		Fingerprint: strings.TrimSpace(query.Fingerprint),
		MinLevel:    query.MinLevel,
		Limit:       query.Limit,
	})
}

func levelFromCount(windowCount int) int {
	switch {
	case windowCount >= levelThreeCount:
		return 3
	case windowCount >= levelTwoCount:
		return 2
	case windowCount >= levelOneCount:
		return 1
	default:
		return 0
	}
}

// primaryContextKeys is the ordered set of context keys that participate in
// the fingerprint; volatile keys like timestamps stay out so repeats group.
var primaryContextKeys = []string{
	"stage", "event", "path", "route", "platform", "source",
	"reason", "code", "error_code", "request_id", "run_id", "order_id",
}

// Fingerprint derives the stable grouping key for one failure signature:
// truncated sha256 over the error type, message, stack and the primary
// context entries in sorted-key order.
func Fingerprint(errorType string, message string, stack string, context map[string]any) string {
	primary := map[string]any{}
	for _, key := range primaryContextKeys {
		if value, ok := context[key]; ok && value != nil && value != "" {
			primary[key] = value
		}
	}
	if len(primary) == 0 && len(context) > 0 {
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		if len(keys) > 8 {
			keys = keys[:8]
		}
		for _, key := range keys {
			if value := context[key]; value != nil && value != "" {
				primary[key] = value
			}
		}
	}
	contextRaw, _ := json.Marshal(primary)
	raw := fmt.Sprintf("%s|%s|%s|%s",
		clipText(errorType, maxErrorTypeLen),
		clipText(message, 1600),
		clipText(stack, 6000),
		string(contextRaw),
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:24]
}

// InferErrorType extracts a coarse type token from a free-form message when
// the reporter did not classify the failure.
func InferErrorType(message string) string {
	for _, token := range strings.Fields(message) {
		trimmed := strings.Trim(token, ".,:;()[]")
		if strings.HasSuffix(trimmed, "Error") || strings.HasSuffix(trimmed, "Exception") {
			return clipText(trimmed, 80)
		}
	}
	return "ClientEventError"
}

func clipText(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
