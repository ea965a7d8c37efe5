package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterIncidentRequest struct {
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message" validate:"required"`
	Stack     string         `json:"stack"`
	Context   map[string]any `json:"context"`
	Stage     string         `json:"stage"`
	Event     string         `json:"event"`
	TraceID   string         `json:"trace_id"`
	RequestID string         `json:"request_id"`
	RunID     string         `json:"run_id"`
}

type RegisterIncidentResponse struct {
	Fingerprint  string `json:"fingerprint"`
	Level        int    `json:"level"`
	WindowCount  int    `json:"window_count"`
	Escalated    bool   `json:"escalated"`
	ResetApplied bool   `json:"reset_applied"`
}

type IncidentDTO struct {
	Fingerprint   string `json:"fingerprint"`
	Level         int    `json:"level"`
	WindowCount   int    `json:"window_count"`
	FirstSeenAt   string `json:"first_seen_at"`
	LastSeenAt    string `json:"last_seen_at"`
	ResetApplied  bool   `json:"reset_applied"`
	LastErrorType string `json:"last_error_type"`
	LastMessage   string `json:"last_message"`
	LastStage     string `json:"last_stage,omitempty"`
	LastEvent     string `json:"last_event,omitempty"`
	LastTraceID   string `json:"last_trace_id,omitempty"`
	ReportPath    string `json:"report_path,omitempty"`
}

type IncidentEventDTO struct {
	EventID     string `json:"event_id"`
	Fingerprint string `json:"fingerprint"`
	Level       int    `json:"level"`
	WindowCount int    `json:"window_count"`
	ErrorType   string `json:"error_type"`
	Message     string `json:"message"`
	Stage       string `json:"stage,omitempty"`
	Event       string `json:"event,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

type IncidentResponse struct {
	Incident IncidentDTO `json:"incident"`
}

type ListIncidentsResponse struct {
	Incidents []IncidentDTO `json:"incidents"`
}

type TailResponse struct {
	Events []IncidentEventDTO `json:"events"`
}
