package queries

import (
	"context"
	"log/slog"

	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type ListOrdersUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (uc ListOrdersUseCase) Execute(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	return uc.Orders.ListOrders(ctx, filter)
}

type ListWorkersUseCase struct {
	Heartbeats ports.HeartbeatRepository
	Logger     *slog.Logger
}

// Execute lists worker heartbeats for operator liveness tooling.
func (uc ListWorkersUseCase) Execute(ctx context.Context) ([]entities.WorkerHeartbeat, error) {
	return uc.Heartbeats.ListHeartbeats(ctx)
}
