package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"maestro/contexts/internal-ops/incident-service/ports"
)

type Store struct {
	mu sync.Mutex

	incidents map[string]ports.Incident
	events    []ports.IncidentEvent
	sequence  uint64
}

func NewStore() *Store {
	return &Store{
		incidents: make(map[string]ports.Incident),
	}
}

func (s *Store) GetIncident(ctx context.Context, fingerprint string) (ports.Incident, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incident, ok := s.incidents[fingerprint]
	return incident, ok, nil
}

func (s *Store) UpsertIncident(ctx context.Context, incident ports.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents[incident.Fingerprint] = incident
	return nil
}

func (s *Store) ListIncidents(ctx context.Context) ([]ports.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.Incident, 0, len(s.incidents))
	for _, incident := range s.incidents {
		out = append(out, incident)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out, nil
}

func (s *Store) AppendIncidentEvent(ctx context.Context, event ports.IncidentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) CountEventsSince(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, event := range s.events {
		if event.Fingerprint == fingerprint && !event.OccurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListRecentEvents(ctx context.Context, filter ports.EventFilter) ([]ports.IncidentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.IncidentEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.Fingerprint != "" && event.Fingerprint != filter.Fingerprint {
			continue
		}
		if filter.MinLevel > 0 && event.Level < filter.MinLevel {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	n := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("inc_%d", n), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
