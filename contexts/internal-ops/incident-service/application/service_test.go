package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"maestro/contexts/internal-ops/incident-service/adapters/memory"
	domainerrors "maestro/contexts/internal-ops/incident-service/domain/errors"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time {
	return c.now
}

func newTestService() (Service, *stubClock) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return Service{
		Repo:  store,
		Clock: clock,
		IDGen: store,
	}, clock
}

func registerTimes(t *testing.T, service Service, clock *stubClock, count int, gap time.Duration) RegisterResult {
	t.Helper()
	var last RegisterResult
	for i := 0; i < count; i++ {
		result, err := service.Register(context.Background(), RegisterInput{
			ErrorType: "TimeoutError",
			Message:   "upstream timed out",
			Context:   map[string]any{"stage": "publish"},
		})
		if err != nil {
			t.Fatalf("register %d: %v", i+1, err)
		}
		last = result
		clock.now = clock.now.Add(gap)
	}
	return last
}

func TestRegisterRequiresMessage(t *testing.T) {
	service, _ := newTestService()
	_, err := service.Register(context.Background(), RegisterInput{Message: "   "})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestEscalationLevels(t *testing.T) {
	service, clock := newTestService()

	result := registerTimes(t, service, clock, 2, time.Minute)
	if result.Level != 0 {
		t.Fatalf("two occurrences should stay level 0, got %d", result.Level)
	}

	result = registerTimes(t, service, clock, 1, time.Minute)
	if result.Level != 1 || !result.Escalated {
		t.Fatalf("third occurrence should escalate to level 1, got %+v", result)
	}

	result = registerTimes(t, service, clock, 2, time.Minute)
	if result.Level != 2 || !result.Escalated {
		t.Fatalf("fifth occurrence should escalate to level 2, got %+v", result)
	}

	result = registerTimes(t, service, clock, 3, time.Minute)
	if result.Level != 3 {
		t.Fatalf("eighth occurrence should reach level 3, got %+v", result)
	}

	incident, err := service.GetIncident(context.Background(), result.Fingerprint)
	if err != nil {
		t.Fatalf("get incident: %v", err)
	}
	if incident.ReportPath == "" {
		t.Fatalf("level 2 crossing must record a report path")
	}
}

func TestWindowCountIsSliding(t *testing.T) {
	service, clock := newTestService()

	// Spread occurrences 10 minutes apart: only the previous one is ever
	// inside the 15-minute window, so the count never reaches level 1.
	result := registerTimes(t, service, clock, 6, 10*time.Minute)
	if result.WindowCount != 2 {
		t.Fatalf("window count = %d, want 2", result.WindowCount)
	}
	if result.Level != 0 {
		t.Fatalf("slow drip must not escalate, got level %d", result.Level)
	}
}

func TestQuietGapResetsStreak(t *testing.T) {
	service, clock := newTestService()

	registerTimes(t, service, clock, 3, time.Minute)

	clock.now = clock.now.Add(31 * time.Minute)
	result, err := service.Register(context.Background(), RegisterInput{
		ErrorType: "TimeoutError",
		Message:   "upstream timed out",
		Context:   map[string]any{"stage": "publish"},
	})
	if err != nil {
		t.Fatalf("register after gap: %v", err)
	}
	if !result.ResetApplied {
		t.Fatalf("a 30 minute quiet gap must reset the streak")
	}
	if result.Level != 0 {
		t.Fatalf("fresh streak should restart at level 0, got %d", result.Level)
	}
}

func TestFingerprintGroupsBySignature(t *testing.T) {
	service, _ := newTestService()

	first, err := service.Register(context.Background(), RegisterInput{
		ErrorType: "TimeoutError",
		Message:   "upstream timed out",
		Context:   map[string]any{"stage": "publish", "at": "2026-03-01T12:00:00Z"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := service.Register(context.Background(), RegisterInput{
		ErrorType: "TimeoutError",
		Message:   "upstream timed out",
		Context:   map[string]any{"stage": "publish", "at": "2026-03-01T12:05:00Z"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("volatile context keys must not split the fingerprint")
	}

	other, err := service.Register(context.Background(), RegisterInput{
		ErrorType: "TimeoutError",
		Message:   "upstream timed out",
		Context:   map[string]any{"stage": "autobuild"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if other.Fingerprint == first.Fingerprint {
		t.Fatalf("a different stage must produce a different fingerprint")
	}
}

func TestInferErrorType(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"TypeError: cannot read property", "TypeError"},
		{"caught DatabaseException while saving", "DatabaseException"},
		{"something went wrong", "ClientEventError"},
	}
	for _, tc := range cases {
		if got := InferErrorType(tc.message); got != tc.want {
			t.Fatalf("InferErrorType(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestTailFilters(t *testing.T) {
	service, clock := newTestService()
	registerTimes(t, service, clock, 8, time.Minute)

	if _, err := service.Register(context.Background(), RegisterInput{
		ErrorType: "ValueError",
		Message:   "bad input",
		Context:   map[string]any{"stage": "intake"},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	events, err := service.Tail(context.Background(), TailQuery{MinLevel: 3})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected level 3 events in the tail")
	}
	for _, event := range events {
		if event.Level < 3 {
			t.Fatalf("min level filter leaked level %d", event.Level)
		}
	}

	events, err = service.Tail(context.Background(), TailQuery{Limit: 2})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("limit 2 returned %d events", len(events))
	}
	if events[0].OccurredAt.Before(events[1].OccurredAt) {
		t.Fatalf("tail must be newest first")
	}
}
