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

type AppendEventCommand struct {
	OrderID        string
	Actor          entities.Actor
	Message        string
	StatusSnapshot *entities.OrderStatus
}

// AppendEventUseCase writes an append-only timeline note with no state
// change; workers use it for retry progress, operators for annotations.
type AppendEventUseCase struct {
	Orders ports.OrderRepository
	Events ports.EventRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc AppendEventUseCase) Execute(ctx context.Context, cmd AppendEventCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	message := strings.TrimSpace(cmd.Message)
	if message == "" || !entities.IsSupportedActor(cmd.Actor) {
		return domainerrors.ErrInvalidOrderInput
	}
	if cmd.StatusSnapshot != nil && !entities.IsSupportedStatus(*cmd.StatusSnapshot) {
		return domainerrors.ErrInvalidOrderInput
	}
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.Events.AppendEvent(ctx, entities.OrderEvent{
		EventID:        eventID,
		OrderID:        order.OrderID,
		Actor:          cmd.Actor,
		Message:        message,
		StatusSnapshot: cmd.StatusSnapshot,
		CreatedAt:      uc.Clock.Now().UTC(),
	}); err != nil {
		return err
	}

	logger.Debug("order event appended",
		"event", "order_event_appended",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"actor", string(cmd.Actor),
	)
	return nil
}
