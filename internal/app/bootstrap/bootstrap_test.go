package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	orderengine "maestro/contexts/order-fulfillment/order-engine"
	ordermemory "maestro/contexts/order-fulfillment/order-engine/adapters/memory"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type countingReaper struct {
	calls atomic.Int32
}

func (r *countingReaper) ExpireLeases(ctx context.Context, now time.Time) (int, error) {
	r.calls.Add(1)
	return 0, errors.New("store offline")
}

type failingClaims struct {
	ports.ClaimRepository
}

func (failingClaims) ClaimNextOrder(ctx context.Context, workerID string, lease time.Duration, now time.Time) (ports.ClaimResult, error) {
	return ports.ClaimResult{}, errors.New("store offline")
}

func newFailingWorkerModule() orderengine.Module {
	store := ordermemory.NewStore()
	return orderengine.NewModule(orderengine.Dependencies{
		Orders:       store,
		Events:       store,
		Claims:       failingClaims{store},
		Deliverables: store,
		Approvals:    store,
		Publications: store,
		Assets:       store,
		Heartbeats:   store,
		Blobs:        store,
		Plans:        ordermemory.NewStubBillingPlans(),
		AdsPlatform:  ordermemory.NewStubAdsPlatform(),
		SiteBuilder:  ordermemory.NewStubSiteBuilder(),
		VideoEditor:  ordermemory.NewStubVideoEditor(),
		Clock:        store,
		IDGenerator:  store,
		RetryDelay:   time.Millisecond,
	})
}

func TestWorkerRunSurvivesPollErrors(t *testing.T) {
	reaper := &countingReaper{}
	app := &WorkerApp{
		worker:       newFailingWorkerModule(),
		claims:       reaper,
		reapLeases:   true,
		pollInterval: time.Millisecond,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		t.Fatalf("cancellation must end the loop cleanly, got %v", err)
	}
	if got := reaper.calls.Load(); got < 2 {
		t.Fatalf("poll errors must not stop the loop, only %d polls ran", got)
	}
}
