package workers

import (
	"context"
	"log/slog"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
)

// Processor handles one claimed order of a single order type. Pipelines
// report outcomes through CompleteOrder; a returned error means infrastructure
// failed mid-attempt and the lease is left to expire for another worker.
type Processor interface {
	Process(ctx context.Context, order entities.Order, claim entities.WorkerClaim) error
}

// OrderWorker is the polling engine loop: claim one order, dispatch to the
// pipeline for its type, heartbeat the result. One claim per RunOnce so the
// bootstrap ticker paces throughput.
type OrderWorker struct {
	WorkerID     string
	LeaseSeconds int
	Claim        commands.ClaimOrderUseCase
	Heartbeat    commands.HeartbeatUseCase
	Complete     commands.CompleteOrderUseCase
	Pipelines    map[entities.OrderType]Processor
	Logger       *slog.Logger
}

func (w OrderWorker) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)

	result, err := w.Claim.Execute(ctx, commands.ClaimOrderCommand{
		WorkerID:     w.WorkerID,
		LeaseSeconds: w.LeaseSeconds,
	})
	if err != nil {
		w.beat(ctx, false, err)
		return err
	}
	if !result.Claimed {
		w.beat(ctx, false, nil)
		return nil
	}

	pipeline, ok := w.Pipelines[result.Order.Type]
	if !ok {
		// No pipeline registered for the type; fail the order instead of
		// letting it ping-pong between queued and in_progress forever.
		_, cerr := w.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: result.Order.OrderID,
			Status:  entities.OrderStatusFailed,
			Message: "Tipo de pedido sem processador disponível.",
		})
		w.beat(ctx, true, cerr)
		return cerr
	}

	processErr := pipeline.Process(ctx, result.Order, result.Claim)
	if processErr != nil {
		logger.Error("order processing failed",
			"event", "order_processing_failed",
			"module", "order-fulfillment/order-engine",
			"layer", "worker",
			"order_id", result.Order.OrderID,
			"worker_id", w.WorkerID,
			"error", processErr.Error(),
		)
	}
	w.beat(ctx, true, processErr)
	return processErr
}

func (w OrderWorker) beat(ctx context.Context, claimed bool, lastErr error) {
	message := ""
	if lastErr != nil {
		message = entities.ClipError(lastErr.Error())
	}
	_ = w.Heartbeat.Execute(ctx, commands.HeartbeatCommand{
		WorkerID:  w.WorkerID,
		Claimed:   claimed,
		LastError: message,
	})
}
