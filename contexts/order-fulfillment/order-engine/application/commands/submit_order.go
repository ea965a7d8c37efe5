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

type SubmitOrderCommand struct {
	OrderID string
	ActorID string
}

type SubmitOrderUseCase struct {
	Orders ports.OrderRepository
	Plans  ports.BillingPlans
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute moves draft/needs_info into the pending pool. Owners without an
// active funded plan land in waiting_payment and resume to queued once
// funding clears.
func (uc SubmitOrderUseCase) Execute(ctx context.Context, cmd SubmitOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if order.OwnerID != strings.TrimSpace(cmd.ActorID) {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	if order.Status != entities.OrderStatusDraft && order.Status != entities.OrderStatusNeedsInfo {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	funded, err := uc.Plans.PlanActiveAndFunded(ctx, order.OwnerID)
	if err != nil {
		return entities.Order{}, err
	}
	target := entities.OrderStatusQueued
	message := "Pedido enviado para a fila."
	if !funded {
		target = entities.OrderStatusWaitingPayment
		message = "Pedido aguardando confirmação de pagamento."
	}
	if !entities.CanTransition(order.Status, target) {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	now := uc.Clock.Now().UTC()
	order.Status = target
	order.UpdatedAt = now
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	status := order.Status
	event := entities.OrderEvent{
		EventID:        eventID,
		OrderID:        order.OrderID,
		Actor:          entities.ActorClient,
		Message:        message,
		StatusSnapshot: &status,
		CreatedAt:      now,
	}
	if err := uc.Orders.UpdateOrder(ctx, order, event); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order submitted",
		"event", "order_submitted",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"to_status", string(target),
	)
	return order, nil
}
