package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// Store is the in-memory implementation of every engine repository. It backs
// the unit scenarios and local runs; the claim path mirrors the postgres
// adapter's semantics (expire stale leases, one live claim per order).
type Store struct {
	mu sync.Mutex

	ordersByID       map[string]entities.Order
	eventsByOrder    map[string][]entities.OrderEvent
	claimsByOrder    map[string][]entities.WorkerClaim
	deliverablesByID map[string]entities.Deliverable
	approvalsByID    map[string]entities.Approval
	adsByOrder       map[string]entities.AdsPublication
	sitesByOrder     map[string]entities.SitePublication
	assetsByID       map[string]entities.OrderAsset
	heartbeats       map[string]entities.WorkerHeartbeat

	sequence uint64
}

func NewStore() *Store {
	return &Store{
		ordersByID:       make(map[string]entities.Order),
		eventsByOrder:    make(map[string][]entities.OrderEvent),
		claimsByOrder:    make(map[string][]entities.WorkerClaim),
		deliverablesByID: make(map[string]entities.Deliverable),
		approvalsByID:    make(map[string]entities.Approval),
		adsByOrder:       make(map[string]entities.AdsPublication),
		sitesByOrder:     make(map[string]entities.SitePublication),
		assetsByID:       make(map[string]entities.OrderAsset),
		heartbeats:       make(map[string]entities.WorkerHeartbeat),
	}
}

func (s *Store) CreateOrder(ctx context.Context, order entities.Order, event entities.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.OrderID]; exists {
		return domainerrors.ErrInvalidOrderInput
	}
	s.ordersByID[order.OrderID] = order
	s.eventsByOrder[order.OrderID] = append(s.eventsByOrder[order.OrderID], event)
	return nil
}

func (s *Store) UpdateOrder(ctx context.Context, order entities.Order, event entities.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.OrderID]; !exists {
		return domainerrors.ErrOrderNotFound
	}
	s.ordersByID[order.OrderID] = order
	s.eventsByOrder[order.OrderID] = append(s.eventsByOrder[order.OrderID], event)
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrderLocked(orderID)
}

func (s *Store) getOrderLocked(orderID string) (entities.Order, error) {
	order, ok := s.ordersByID[orderID]
	if !ok {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *Store) GetOrderDetail(ctx context.Context, orderID string) (ports.OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.getOrderLocked(orderID)
	if err != nil {
		return ports.OrderDetail{}, err
	}
	detail := ports.OrderDetail{
		Order:     order,
		Events:    append([]entities.OrderEvent(nil), s.eventsByOrder[orderID]...),
		Approvals: make(map[string]entities.Approval),
	}
	for _, item := range s.deliverablesByID {
		if item.OrderID != orderID {
			continue
		}
		detail.Deliverables = append(detail.Deliverables, item)
		if approval, ok := s.approvalsByID[item.DeliverableID]; ok {
			detail.Approvals[item.DeliverableID] = approval
		}
	}
	sort.Slice(detail.Deliverables, func(i, j int) bool {
		return detail.Deliverables[i].CreatedAt.Before(detail.Deliverables[j].CreatedAt)
	})
	for _, asset := range s.assetsByID {
		if asset.OrderID == orderID {
			detail.Assets = append(detail.Assets, asset)
		}
	}
	sort.Slice(detail.Assets, func(i, j int) bool {
		return detail.Assets[i].CreatedAt.Before(detail.Assets[j].CreatedAt)
	})
	if record, ok := s.adsByOrder[orderID]; ok {
		copied := record
		detail.AdsPublication = &copied
	}
	if record, ok := s.sitesByOrder[orderID]; ok {
		copied := record
		detail.SitePublication = &copied
	}
	return detail, nil
}

func (s *Store) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		if filter.OwnerID != "" && order.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Type != "" && order.Type != filter.Type {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func (s *Store) AppendEvent(ctx context.Context, event entities.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ordersByID[event.OrderID]; !ok {
		return domainerrors.ErrOrderNotFound
	}
	s.eventsByOrder[event.OrderID] = append(s.eventsByOrder[event.OrderID], event)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, orderID string) ([]entities.OrderEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.OrderEvent(nil), s.eventsByOrder[orderID]...), nil
}

func (s *Store) ClaimNextOrder(ctx context.Context, workerID string, lease time.Duration, now time.Time) (ports.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC()
	s.expireLeasesLocked(now)

	candidate, ok := s.pickEligibleLocked(now)
	if !ok {
		return ports.ClaimResult{}, nil
	}

	claim := entities.WorkerClaim{
		ClaimID:    s.nextID("clm"),
		OrderID:    candidate.OrderID,
		WorkerID:   workerID,
		Attempt:    len(s.claimsByOrder[candidate.OrderID]) + 1,
		LeaseUntil: now.Add(lease),
		ClaimedAt:  now,
	}
	s.claimsByOrder[candidate.OrderID] = append(s.claimsByOrder[candidate.OrderID], claim)

	candidate.Status = entities.OrderStatusInProgress
	candidate.UpdatedAt = now
	s.ordersByID[candidate.OrderID] = candidate
	status := candidate.Status
	s.eventsByOrder[candidate.OrderID] = append(s.eventsByOrder[candidate.OrderID], entities.OrderEvent{
		EventID:        s.nextID("evt"),
		OrderID:        candidate.OrderID,
		Actor:          entities.ActorEngine,
		Message:        fmt.Sprintf("Pedido assumido pelo worker %s.", workerID),
		StatusSnapshot: &status,
		CreatedAt:      now,
	})

	return ports.ClaimResult{Claimed: true, Order: candidate, Claim: claim}, nil
}

// pickEligibleLocked selects one claimable order: queued, or in_progress
// with no live claim (an approval gate re-entry the claim expirer has not
// touched). Priority first, then oldest.
func (s *Store) pickEligibleLocked(now time.Time) (entities.Order, bool) {
	candidates := make([]entities.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		switch order.Status {
		case entities.OrderStatusQueued:
			candidates = append(candidates, order)
		case entities.OrderStatusInProgress:
			if !s.hasLiveClaimLocked(order.OrderID, now) {
				candidates = append(candidates, order)
			}
		}
	}
	if len(candidates) == 0 {
		return entities.Order{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].OrderID < candidates[j].OrderID
	})
	return candidates[0], true
}

func (s *Store) hasLiveClaimLocked(orderID string, now time.Time) bool {
	for _, claim := range s.claimsByOrder[orderID] {
		if claim.Live(now) {
			return true
		}
	}
	return false
}

func (s *Store) ReleaseLiveClaim(ctx context.Context, orderID string, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC()
	claims := s.claimsByOrder[orderID]
	for index := range claims {
		if claims[index].Live(now) {
			released := now
			claims[index].ReleasedAt = &released
			claims[index].ReleaseReason = reason
		}
	}
	s.claimsByOrder[orderID] = claims
	return nil
}

func (s *Store) ExpireLeases(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLeasesLocked(now.UTC()), nil
}

// expireLeasesLocked releases stale claims and requeues their orders so the
// next claim cycle can hand them to another worker.
func (s *Store) expireLeasesLocked(now time.Time) int {
	expired := 0
	for orderID, claims := range s.claimsByOrder {
		for index := range claims {
			claim := claims[index]
			if claim.ReleasedAt != nil || claim.LeaseUntil.After(now) {
				continue
			}
			released := now
			claims[index].ReleasedAt = &released
			claims[index].ReleaseReason = entities.ReleaseReasonLeaseExpired
			expired++

			order, ok := s.ordersByID[orderID]
			if !ok || order.Status != entities.OrderStatusInProgress {
				continue
			}
			order.Status = entities.OrderStatusQueued
			order.UpdatedAt = now
			s.ordersByID[orderID] = order
			status := order.Status
			s.eventsByOrder[orderID] = append(s.eventsByOrder[orderID], entities.OrderEvent{
				EventID:        s.nextID("evt"),
				OrderID:        orderID,
				Actor:          entities.ActorEngine,
				Message:        "Prazo do worker expirou; pedido devolvido à fila.",
				StatusSnapshot: &status,
				CreatedAt:      now,
			})
		}
		s.claimsByOrder[orderID] = claims
	}
	return expired
}

func (s *Store) GetLiveClaim(ctx context.Context, orderID string, now time.Time) (entities.WorkerClaim, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, claim := range s.claimsByOrder[orderID] {
		if claim.Live(now.UTC()) {
			return claim, true, nil
		}
	}
	return entities.WorkerClaim{}, false, nil
}

func (s *Store) UpsertDeliverable(ctx context.Context, item entities.Deliverable) (entities.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.deliverablesByID {
		if existing.OrderID != item.OrderID || existing.Type != item.Type {
			continue
		}
		existing.Status = item.Status
		existing.Content = item.Content
		existing.AssetURLs = append([]string(nil), item.AssetURLs...)
		existing.UpdatedAt = item.UpdatedAt
		s.deliverablesByID[id] = existing
		return existing, nil
	}
	s.deliverablesByID[item.DeliverableID] = item
	return item, nil
}

func (s *Store) GetDeliverable(ctx context.Context, deliverableID string) (entities.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.deliverablesByID[deliverableID]
	if !ok {
		return entities.Deliverable{}, domainerrors.ErrDeliverableNotFound
	}
	return item, nil
}

func (s *Store) ListDeliverables(ctx context.Context, orderID string) ([]entities.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Deliverable, 0)
	for _, item := range s.deliverablesByID {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].DeliverableID < out[j].DeliverableID
	})
	return out, nil
}

func (s *Store) UpsertApproval(ctx context.Context, approval entities.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvalsByID[approval.DeliverableID] = approval
	return nil
}

func (s *Store) ListApprovals(ctx context.Context, orderID string) (map[string]entities.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]entities.Approval)
	for _, item := range s.deliverablesByID {
		if item.OrderID != orderID {
			continue
		}
		if approval, ok := s.approvalsByID[item.DeliverableID]; ok {
			out[item.DeliverableID] = approval
		}
	}
	return out, nil
}

func (s *Store) UpsertAdsPublication(ctx context.Context, record entities.AdsPublication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adsByOrder[record.OrderID] = record
	return nil
}

func (s *Store) GetAdsPublication(ctx context.Context, orderID string) (entities.AdsPublication, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.adsByOrder[orderID]
	return record, ok, nil
}

func (s *Store) UpsertSitePublication(ctx context.Context, record entities.SitePublication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sitesByOrder[record.OrderID] = record
	return nil
}

func (s *Store) GetSitePublication(ctx context.Context, orderID string) (entities.SitePublication, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sitesByOrder[orderID]
	return record, ok, nil
}

func (s *Store) AddAsset(ctx context.Context, asset entities.OrderAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assetsByID[asset.AssetID]; exists {
		return domainerrors.ErrInvalidOrderInput
	}
	s.assetsByID[asset.AssetID] = asset
	return nil
}

func (s *Store) GetAsset(ctx context.Context, assetID string) (entities.OrderAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assetsByID[assetID]
	if !ok {
		return entities.OrderAsset{}, domainerrors.ErrAssetNotFound
	}
	return asset, nil
}

func (s *Store) ListAssets(ctx context.Context, orderID string) ([]entities.OrderAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.OrderAsset, 0)
	for _, asset := range s.assetsByID {
		if asset.OrderID == orderID {
			out = append(out, asset)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].AssetID < out[j].AssetID
	})
	return out, nil
}

func (s *Store) UpsertHeartbeat(ctx context.Context, heartbeat entities.WorkerHeartbeat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats[heartbeat.WorkerID] = heartbeat
	return nil
}

func (s *Store) ListHeartbeats(ctx context.Context) ([]entities.WorkerHeartbeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.WorkerHeartbeat, 0, len(s.heartbeats))
	for _, heartbeat := range s.heartbeats {
		out = append(out, heartbeat)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WorkerID < out[j].WorkerID
	})
	return out, nil
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return s.nextID("ord"), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) nextID(prefix string) string {
	n := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("%s_%d", prefix, n)
}

// StoragePath keeps the deterministic blob layout used by the real storage
// adapter so memory runs produce the same paths.
func (s *Store) StoragePath(ctx context.Context, orderID string, fileName string) (string, error) {
	return fmt.Sprintf("orders/%s/%s", orderID, strings.TrimSpace(fileName)), nil
}

var _ ports.OrderRepository = (*Store)(nil)
var _ ports.EventRepository = (*Store)(nil)
var _ ports.ClaimRepository = (*Store)(nil)
var _ ports.DeliverableRepository = (*Store)(nil)
var _ ports.ApprovalRepository = (*Store)(nil)
var _ ports.PublicationRepository = (*Store)(nil)
var _ ports.AssetRepository = (*Store)(nil)
var _ ports.HeartbeatRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.BlobStorage = (*Store)(nil)
