package memory

import (
	"context"
	"testing"
	"time"

	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
)

func seedOrder(t *testing.T, store *Store, orderID string, status entities.OrderStatus, priority int, createdAt time.Time) {
	t.Helper()
	err := store.CreateOrder(context.Background(), entities.Order{
		OrderID:   orderID,
		OwnerID:   "user-1",
		Type:      entities.OrderTypeAds,
		Status:    status,
		Title:     "Pedido " + orderID,
		Priority:  priority,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, entities.OrderEvent{
		EventID: "evt-seed-" + orderID,
		OrderID: orderID,
		Actor:   entities.ActorClient,
		Message: "Pedido criado.",
	})
	if err != nil {
		t.Fatalf("seed order %s: %v", orderID, err)
	}
}

func TestClaimNextOrderExclusive(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, store, "ord-a", entities.OrderStatusQueued, 0, now.Add(-time.Hour))

	first, err := store.ClaimNextOrder(context.Background(), "worker-1", 5*time.Minute, now)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !first.Claimed || first.Order.OrderID != "ord-a" {
		t.Fatalf("expected ord-a claimed, got %+v", first)
	}
	if first.Order.Status != entities.OrderStatusInProgress {
		t.Fatalf("claimed order must move to in_progress, got %s", first.Order.Status)
	}
	if first.Claim.Attempt != 1 {
		t.Fatalf("first claim attempt = %d, want 1", first.Claim.Attempt)
	}

	second, err := store.ClaimNextOrder(context.Background(), "worker-2", 5*time.Minute, now.Add(time.Second))
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if second.Claimed {
		t.Fatalf("a live lease must block a second claim, got %+v", second)
	}
}

func TestClaimNextOrderPriorityThenAge(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, store, "ord-old", entities.OrderStatusQueued, 0, now.Add(-2*time.Hour))
	seedOrder(t, store, "ord-new", entities.OrderStatusQueued, 0, now.Add(-time.Hour))
	seedOrder(t, store, "ord-rush", entities.OrderStatusQueued, 5, now.Add(-time.Minute))

	result, err := store.ClaimNextOrder(context.Background(), "worker-1", 5*time.Minute, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Order.OrderID != "ord-rush" {
		t.Fatalf("highest priority first, got %s", result.Order.OrderID)
	}

	result, err = store.ClaimNextOrder(context.Background(), "worker-1", 5*time.Minute, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Order.OrderID != "ord-old" {
		t.Fatalf("oldest within a priority next, got %s", result.Order.OrderID)
	}
}

func TestExpiredLeaseIsReclaimedWithAttemptIncrement(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, store, "ord-a", entities.OrderStatusQueued, 0, now.Add(-time.Hour))

	first, err := store.ClaimNextOrder(context.Background(), "worker-1", 5*time.Minute, now)
	if err != nil || !first.Claimed {
		t.Fatalf("first claim: %+v %v", first, err)
	}

	afterLease := now.Add(6 * time.Minute)
	second, err := store.ClaimNextOrder(context.Background(), "worker-2", 5*time.Minute, afterLease)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !second.Claimed || second.Order.OrderID != "ord-a" {
		t.Fatalf("expired lease must be reclaimable, got %+v", second)
	}
	if second.Claim.Attempt != 2 {
		t.Fatalf("reclaim attempt = %d, want 2", second.Claim.Attempt)
	}
	if second.Claim.WorkerID != "worker-2" {
		t.Fatalf("reclaim worker = %s, want worker-2", second.Claim.WorkerID)
	}

	events, err := store.ListEvents(context.Background(), "ord-a")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	foundExpiry := false
	for _, event := range events {
		if event.Message == "Prazo do worker expirou; pedido devolvido à fila." {
			foundExpiry = true
		}
	}
	if !foundExpiry {
		t.Fatalf("expected a lease expiry event on the timeline")
	}
}

func TestClaimInProgressWithoutLiveClaim(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Approval gate re-entry: the order is in_progress but nobody holds it.
	seedOrder(t, store, "ord-a", entities.OrderStatusInProgress, 0, now.Add(-time.Hour))

	result, err := store.ClaimNextOrder(context.Background(), "worker-1", 5*time.Minute, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !result.Claimed || result.Order.OrderID != "ord-a" {
		t.Fatalf("in_progress without a live claim must be eligible, got %+v", result)
	}
}

func TestExpireLeasesRequeuesInProgress(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, store, "ord-a", entities.OrderStatusQueued, 0, now.Add(-time.Hour))

	if _, err := store.ClaimNextOrder(context.Background(), "worker-1", 5*time.Minute, now); err != nil {
		t.Fatalf("claim: %v", err)
	}

	count, err := store.ExpireLeases(context.Background(), now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired count = %d, want 1", count)
	}

	order, err := store.GetOrder(context.Background(), "ord-a")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != entities.OrderStatusQueued {
		t.Fatalf("expired order must return to queued, got %s", order.Status)
	}
}

func TestUpsertDeliverableKeepsIdentity(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, store, "ord-a", entities.OrderStatusInProgress, 0, now.Add(-time.Hour))

	first, err := store.UpsertDeliverable(context.Background(), entities.Deliverable{
		DeliverableID: "dlv-1",
		OrderID:       "ord-a",
		Type:          entities.DeliverableTypeCopy,
		Status:        entities.DeliverableStatusSubmitted,
		Content:       "Primeira versão.",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := store.UpsertDeliverable(context.Background(), entities.Deliverable{
		DeliverableID: "dlv-2",
		OrderID:       "ord-a",
		Type:          entities.DeliverableTypeCopy,
		Status:        entities.DeliverableStatusSubmitted,
		Content:       "Versão revisada.",
		CreatedAt:     now.Add(time.Minute),
		UpdatedAt:     now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.DeliverableID != first.DeliverableID {
		t.Fatalf("upsert by (order, type) must keep the id, got %s and %s", first.DeliverableID, second.DeliverableID)
	}
	if second.Content != "Versão revisada." {
		t.Fatalf("content must be replaced, got %q", second.Content)
	}

	items, err := store.ListDeliverables(context.Background(), "ord-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("one live deliverable per (order, type), got %d", len(items))
	}
}
