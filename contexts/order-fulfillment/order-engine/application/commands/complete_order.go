package commands

import (
	"context"
	"log/slog"
	"strings"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type CompleteOrderCommand struct {
	OrderID string
	Status  entities.OrderStatus
	Message string
}

// CompleteOrderUseCase is the only way the engine advances an order past
// in_progress. It always appends an event carrying the new status snapshot
// and releases the live claim for this processing attempt.
type CompleteOrderUseCase struct {
	Orders ports.OrderRepository
	Claims ports.ClaimRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc CompleteOrderUseCase) Execute(ctx context.Context, cmd CompleteOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !entities.IsCompleteTarget(cmd.Status) {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if !entities.CanTransition(order.Status, cmd.Status) {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	now := uc.Clock.Now().UTC()
	from := order.Status
	order.Status = cmd.Status
	order.UpdatedAt = now
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	status := order.Status
	event := entities.OrderEvent{
		EventID:        eventID,
		OrderID:        order.OrderID,
		Actor:          entities.ActorEngine,
		Message:        strings.TrimSpace(cmd.Message),
		StatusSnapshot: &status,
		CreatedAt:      now,
	}
	if err := uc.Orders.UpdateOrder(ctx, order, event); err != nil {
		return entities.Order{}, err
	}
	// A completion that keeps the order in_progress is a progress note; the
	// worker still owns the lease. Every other target ends the attempt.
	if order.Status != entities.OrderStatusInProgress {
		if err := uc.Claims.ReleaseLiveClaim(ctx, order.OrderID, entities.ReleaseReasonCompleted, now); err != nil {
			return entities.Order{}, err
		}
	}

	logger.Info("order completed",
		"event", "order_completed",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"from_status", string(from),
		"to_status", string(order.Status),
	)
	return order, nil
}
