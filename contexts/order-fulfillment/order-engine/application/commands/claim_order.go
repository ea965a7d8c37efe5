package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

const defaultLeaseSeconds = 300

type ClaimOrderCommand struct {
	WorkerID     string
	LeaseSeconds int
}

type ClaimOrderUseCase struct {
	Claims ports.ClaimRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute runs one claim cycle: expired leases are reclaimed, then one
// eligible order is locked to this worker. Claimed=false is the normal idle
// answer when the pool is empty.
func (uc ClaimOrderUseCase) Execute(ctx context.Context, cmd ClaimOrderCommand) (ports.ClaimResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	workerID := strings.TrimSpace(cmd.WorkerID)
	if workerID == "" {
		return ports.ClaimResult{}, domainerrors.ErrWorkerIDRequired
	}
	leaseSeconds := cmd.LeaseSeconds
	if leaseSeconds <= 0 {
		leaseSeconds = defaultLeaseSeconds
	}

	now := uc.Clock.Now().UTC()
	result, err := uc.Claims.ClaimNextOrder(ctx, workerID, time.Duration(leaseSeconds)*time.Second, now)
	if err != nil {
		return ports.ClaimResult{}, err
	}
	if result.Claimed {
		logger.Info("order claimed",
			"event", "order_claimed",
			"module", "order-fulfillment/order-engine",
			"layer", "application",
			"order_id", result.Order.OrderID,
			"worker_id", workerID,
			"attempt", result.Claim.Attempt,
			"lease_until", result.Claim.LeaseUntil.Format(time.RFC3339),
		)
	}
	return result, nil
}
