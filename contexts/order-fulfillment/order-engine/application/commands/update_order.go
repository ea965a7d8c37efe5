package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type UpdateOrderCommand struct {
	OrderID      string
	ActorID      string
	Title        string
	Summary      string
	PayloadPatch json.RawMessage
	Priority     *int
}

type UpdateOrderUseCase struct {
	Orders ports.OrderRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute patches an order the owner is still allowed to edit: draft and
// needs_info only, anything else is a conflict.
func (uc UpdateOrderUseCase) Execute(ctx context.Context, cmd UpdateOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if order.OwnerID != strings.TrimSpace(cmd.ActorID) {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	if !order.CanEdit() {
		return entities.Order{}, domainerrors.ErrOrderNotEditable
	}

	if title := strings.TrimSpace(cmd.Title); title != "" {
		order.Title = title
	}
	if summary := strings.TrimSpace(cmd.Summary); summary != "" {
		order.Summary = summary
	}
	if cmd.Priority != nil {
		order.Priority = *cmd.Priority
	}
	if len(cmd.PayloadPatch) > 0 {
		merged, err := entities.MergePayload(order.Type, order.Payload, cmd.PayloadPatch)
		if err != nil {
			return entities.Order{}, domainerrors.ErrInvalidOrderInput
		}
		order.Payload = merged
	}

	now := uc.Clock.Now().UTC()
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
		Message:        "Pedido atualizado pelo cliente.",
		StatusSnapshot: &status,
		CreatedAt:      now,
	}
	if err := uc.Orders.UpdateOrder(ctx, order, event); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order updated",
		"event", "order_updated",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
	)
	return order, nil
}
