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

type PostOrderInfoCommand struct {
	OrderID      string
	ActorID      string
	PayloadPatch json.RawMessage
	Note         string
}

type PostOrderInfoUseCase struct {
	Orders ports.OrderRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute answers a needs_info interview: merges the client's payload patch
// and puts the order back in the pending pool.
func (uc PostOrderInfoUseCase) Execute(ctx context.Context, cmd PostOrderInfoCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if order.OwnerID != strings.TrimSpace(cmd.ActorID) {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	if order.Status != entities.OrderStatusNeedsInfo {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	if len(cmd.PayloadPatch) > 0 {
		merged, err := entities.MergePayload(order.Type, order.Payload, cmd.PayloadPatch)
		if err != nil {
			return entities.Order{}, domainerrors.ErrInvalidOrderInput
		}
		order.Payload = merged
	}

	now := uc.Clock.Now().UTC()
	order.Status = entities.OrderStatusQueued
	order.UpdatedAt = now
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	message := "Informações adicionais recebidas."
	if note := strings.TrimSpace(cmd.Note); note != "" {
		message = note
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

	logger.Info("order info posted",
		"event", "order_info_posted",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
	)
	return order, nil
}
