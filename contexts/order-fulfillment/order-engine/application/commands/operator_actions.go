package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type OperatorActionCommand struct {
	OrderID string
	Reason  string
}

// OperatorActionsUseCase holds the two manual recovery levers: block (any
// non-terminal state) and force-requeue (including out of done/failed).
type OperatorActionsUseCase struct {
	Orders ports.OrderRepository
	Claims ports.ClaimRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc OperatorActionsUseCase) Block(ctx context.Context, cmd OperatorActionCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if !entities.CanTransition(order.Status, entities.OrderStatusBlocked) {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	now := uc.Clock.Now().UTC()
	order.Status = entities.OrderStatusBlocked
	order.UpdatedAt = now
	if err := uc.applyWithEvent(ctx, order, cmd.Reason, "Pedido bloqueado pelo operador.", now); err != nil {
		return entities.Order{}, err
	}
	logger.Info("order blocked",
		"event", "order_blocked",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
	)
	return order, nil
}

// Requeue is the recovery override: unlike the normal state machine it may
// pull an order out of done/failed, so it bypasses CanTransition on purpose.
func (uc OperatorActionsUseCase) Requeue(ctx context.Context, cmd OperatorActionCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if order.Status == entities.OrderStatusQueued {
		return order, nil
	}

	now := uc.Clock.Now().UTC()
	if err := uc.Claims.ReleaseLiveClaim(ctx, order.OrderID, entities.ReleaseReasonCompleted, now); err != nil {
		return entities.Order{}, err
	}
	order.Status = entities.OrderStatusQueued
	order.UpdatedAt = now
	if err := uc.applyWithEvent(ctx, order, cmd.Reason, "Pedido reenfileirado pelo operador.", now); err != nil {
		return entities.Order{}, err
	}
	logger.Info("order requeued",
		"event", "order_requeued",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
	)
	return order, nil
}

func (uc OperatorActionsUseCase) applyWithEvent(
	ctx context.Context,
	order entities.Order,
	reason string,
	fallback string,
	now time.Time,
) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	message := strings.TrimSpace(reason)
	if message == "" {
		message = fallback
	}
	status := order.Status
	return uc.Orders.UpdateOrder(ctx, order, entities.OrderEvent{
		EventID:        eventID,
		OrderID:        order.OrderID,
		Actor:          entities.ActorOperator,
		Message:        message,
		StatusSnapshot: &status,
		CreatedAt:      now,
	})
}
