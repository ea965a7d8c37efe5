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

type ConfirmFundingCommand struct {
	OrderID string
}

type ConfirmFundingUseCase struct {
	Orders ports.OrderRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute resumes a waiting_payment order to queued once the billing
// collaborator reports funding cleared.
func (uc ConfirmFundingUseCase) Execute(ctx context.Context, cmd ConfirmFundingCommand) (entities.Order, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.Order{}, err
	}
	if order.Status != entities.OrderStatusWaitingPayment {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	now := uc.Clock.Now().UTC()
	order.Status = entities.OrderStatusQueued
	order.UpdatedAt = now
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	status := order.Status
	event := entities.OrderEvent{
		EventID:        eventID,
		OrderID:        order.OrderID,
		Actor:          entities.ActorOperator,
		Message:        "Pagamento confirmado; pedido liberado para a fila.",
		StatusSnapshot: &status,
		CreatedAt:      now,
	}
	if err := uc.Orders.UpdateOrder(ctx, order, event); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order funding confirmed",
		"event", "order_funding_confirmed",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
	)
	return order, nil
}
