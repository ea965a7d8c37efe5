package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"maestro/contexts/internal-ops/incident-service/application"
	"maestro/contexts/internal-ops/incident-service/ports"
	httptransport "maestro/contexts/internal-ops/incident-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterIncidentHandler(
	ctx context.Context,
	req httptransport.RegisterIncidentRequest,
) (httptransport.RegisterIncidentResponse, error) {
	result, err := h.Service.Register(ctx, application.RegisterInput{
		ErrorType: req.ErrorType,
		Message:   req.Message,
		Stack:     req.Stack,
		Context:   req.Context,
		Stage:     req.Stage,
		Event:     req.Event,
		TraceID:   req.TraceID,
		RequestID: req.RequestID,
		RunID:     req.RunID,
	})
	if err != nil {
		return httptransport.RegisterIncidentResponse{}, err
	}
	return httptransport.RegisterIncidentResponse{
		Fingerprint:  result.Fingerprint,
		Level:        result.Level,
		WindowCount:  result.WindowCount,
		Escalated:    result.Escalated,
		ResetApplied: result.ResetApplied,
	}, nil
}

func (h Handler) GetIncidentHandler(ctx context.Context, fingerprint string) (httptransport.IncidentResponse, error) {
	incident, err := h.Service.GetIncident(ctx, fingerprint)
	if err != nil {
		return httptransport.IncidentResponse{}, err
	}
	return httptransport.IncidentResponse{Incident: mapIncident(incident)}, nil
}

func (h Handler) ListIncidentsHandler(ctx context.Context) (httptransport.ListIncidentsResponse, error) {
	items, err := h.Service.ListIncidents(ctx)
	if err != nil {
		return httptransport.ListIncidentsResponse{}, err
	}
	incidents := make([]httptransport.IncidentDTO, 0, len(items))
	for _, item := range items {
		incidents = append(incidents, mapIncident(item))
	}
	return httptransport.ListIncidentsResponse{Incidents: incidents}, nil
}

func (h Handler) TailHandler(
	ctx context.Context,
	fingerprint string,
	minLevel int,
	limit int,
) (httptransport.TailResponse, error) {
	items, err := h.Service.Tail(ctx, application.TailQuery{
		Fingerprint: fingerprint,
		MinLevel:    minLevel,
		Limit:       limit,
	})
	if err != nil {
		return httptransport.TailResponse{}, err
	}
	events := make([]httptransport.IncidentEventDTO, 0, len(items))
	for _, item := range items {
		events = append(events, httptransport.IncidentEventDTO{
			EventID:     item.EventID,
			Fingerprint: item.Fingerprint,
			Level:       item.Level,
			WindowCount: item.WindowCount,
			ErrorType:   item.ErrorType,
			Message:     item.Message,
			Stage:       item.Stage,
			Event:       item.Event,
			TraceID:     item.TraceID,
			OccurredAt:  item.OccurredAt.Format(time.RFC3339),
		})
	}
	return httptransport.TailResponse{Events: events}, nil
}

func mapIncident(item ports.Incident) httptransport.IncidentDTO {
	return httptransport.IncidentDTO{
		Fingerprint:   item.Fingerprint,
		Level:         item.Level,
		WindowCount:   item.WindowCount,
		FirstSeenAt:   item.FirstSeenAt.Format(time.RFC3339),
		LastSeenAt:    item.LastSeenAt.Format(time.RFC3339),
		ResetApplied:  item.ResetApplied,
		LastErrorType: item.LastErrorType,
		LastMessage:   item.LastMessage,
		LastStage:     item.LastStage,
		LastEvent:     item.LastEvent,
		LastTraceID:   item.LastTraceID,
		ReportPath:    item.ReportPath,
	}
}
