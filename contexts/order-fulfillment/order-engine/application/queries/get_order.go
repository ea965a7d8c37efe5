package queries

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type GetOrderUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

// Execute returns the denormalized order detail. Owners see their own
// orders; operators pass an empty actor id and see everything.
func (uc GetOrderUseCase) Execute(ctx context.Context, actorID string, orderID string) (ports.OrderDetail, error) {
	detail, err := uc.Orders.GetOrderDetail(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return ports.OrderDetail{}, err
	}
	actor := strings.TrimSpace(actorID)
	if actor != "" && detail.Order.OwnerID != actor {
		return ports.OrderDetail{}, domainerrors.ErrOrderNotFound
	}
	return detail, nil
}
