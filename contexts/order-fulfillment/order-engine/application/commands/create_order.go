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

type CreateOrderCommand struct {
	OwnerID  string
	Type     entities.OrderType
	Title    string
	Summary  string
	Payload  json.RawMessage
	Priority int
}

type CreateOrderUseCase struct {
	Orders ports.OrderRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	owner := strings.TrimSpace(cmd.OwnerID)
	title := strings.TrimSpace(cmd.Title)
	if owner == "" || title == "" || !entities.IsSupportedOrderType(cmd.Type) {
		return entities.Order{}, domainerrors.ErrInvalidOrderInput
	}
	if _, err := entities.ParsePayload(cmd.Type, cmd.Payload); err != nil {
		return entities.Order{}, domainerrors.ErrInvalidOrderInput
	}

	now := uc.Clock.Now().UTC()
	orderID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}

	payload := cmd.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	order := entities.Order{
		OrderID:   orderID,
		OwnerID:   owner,
		Type:      cmd.Type,
		Status:    entities.OrderStatusDraft,
		Title:     title,
		Summary:   strings.TrimSpace(cmd.Summary),
		Payload:   payload,
		Priority:  cmd.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	status := order.Status
	event := entities.OrderEvent{
		EventID:        eventID,
		OrderID:        orderID,
		Actor:          entities.ActorClient,
		Message:        "Pedido criado.",
		StatusSnapshot: &status,
		CreatedAt:      now,
	}
	if err := uc.Orders.CreateOrder(ctx, order, event); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order created",
		"event", "order_created",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"order_type", string(order.Type),
	)
	return order, nil
}
