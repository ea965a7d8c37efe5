package unit

import (
	"context"
	"errors"
	"testing"

	incidentservice "maestro/contexts/internal-ops/incident-service"
	domainerrors "maestro/contexts/internal-ops/incident-service/domain/errors"
	httptransport "maestro/contexts/internal-ops/incident-service/transport/http"
)

func registerClientEvent(t *testing.T, module incidentservice.Module, message string) httptransport.RegisterIncidentResponse {
	t.Helper()
	response, err := module.Handler.RegisterIncidentHandler(context.Background(), httptransport.RegisterIncidentRequest{
		ErrorType: "TypeError",
		Message:   message,
		Context:   map[string]any{"stage": "checkout"},
	})
	if err != nil {
		t.Fatalf("register incident: %v", err)
	}
	return response
}

func TestClientEventsEscalateByRepetition(t *testing.T) {
	module := incidentservice.NewInMemoryModule(nil)

	first := registerClientEvent(t, module, "cannot read property of undefined")
	if first.Level != 0 || first.Escalated {
		t.Fatalf("single occurrence must stay level 0, got %+v", first)
	}

	registerClientEvent(t, module, "cannot read property of undefined")
	third := registerClientEvent(t, module, "cannot read property of undefined")
	if third.Level != 1 || !third.Escalated {
		t.Fatalf("third occurrence should escalate to level 1, got %+v", third)
	}
	if third.Fingerprint != first.Fingerprint {
		t.Fatalf("repeated errors must share a fingerprint")
	}

	incident, err := module.Handler.GetIncidentHandler(context.Background(), third.Fingerprint)
	if err != nil {
		t.Fatalf("get incident: %v", err)
	}
	if incident.Incident.WindowCount != 3 {
		t.Fatalf("window count = %d, want 3", incident.Incident.WindowCount)
	}
	if incident.Incident.LastErrorType != "TypeError" {
		t.Fatalf("last error type = %s", incident.Incident.LastErrorType)
	}
}

func TestGetIncidentUnknownFingerprint(t *testing.T) {
	module := incidentservice.NewInMemoryModule(nil)

	_, err := module.Handler.GetIncidentHandler(context.Background(), "deadbeef")
	if !errors.Is(err, domainerrors.ErrIncidentNotFound) {
		t.Fatalf("expected ErrIncidentNotFound, got %v", err)
	}
}

func TestIncidentListAndTail(t *testing.T) {
	module := incidentservice.NewInMemoryModule(nil)

	checkout := registerClientEvent(t, module, "cannot read property of undefined")
	registerClientEvent(t, module, "cannot read property of undefined")
	other, err := module.Handler.RegisterIncidentHandler(context.Background(), httptransport.RegisterIncidentRequest{
		ErrorType: "TimeoutError",
		Message:   "upstream timed out",
		Context:   map[string]any{"stage": "publish"},
	})
	if err != nil {
		t.Fatalf("register incident: %v", err)
	}

	list, err := module.Handler.ListIncidentsHandler(context.Background())
	if err != nil {
		t.Fatalf("list incidents: %v", err)
	}
	if len(list.Incidents) != 2 {
		t.Fatalf("expected two incidents, got %d", len(list.Incidents))
	}

	tail, err := module.Handler.TailHandler(context.Background(), "", 0, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail.Events) != 2 {
		t.Fatalf("limit 2 returned %d events", len(tail.Events))
	}
	if tail.Events[0].Fingerprint != other.Fingerprint {
		t.Fatalf("tail must be newest first, got %s", tail.Events[0].Fingerprint)
	}

	scoped, err := module.Handler.TailHandler(context.Background(), checkout.Fingerprint, 0, 0)
	if err != nil {
		t.Fatalf("scoped tail: %v", err)
	}
	if len(scoped.Events) != 2 {
		t.Fatalf("fingerprint filter returned %d events, want 2", len(scoped.Events))
	}
	for _, event := range scoped.Events {
		if event.Fingerprint != checkout.Fingerprint {
			t.Fatalf("fingerprint filter leaked %s", event.Fingerprint)
		}
	}
}
