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

type HeartbeatCommand struct {
	WorkerID  string
	Claimed   bool
	LastError string
}

type HeartbeatUseCase struct {
	Heartbeats ports.HeartbeatRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc HeartbeatUseCase) Execute(ctx context.Context, cmd HeartbeatCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	workerID := strings.TrimSpace(cmd.WorkerID)
	if workerID == "" {
		return domainerrors.ErrWorkerIDRequired
	}
	if err := uc.Heartbeats.UpsertHeartbeat(ctx, entities.WorkerHeartbeat{
		WorkerID:   workerID,
		Claimed:    cmd.Claimed,
		LastError:  strings.TrimSpace(cmd.LastError),
		LastSeenAt: uc.Clock.Now().UTC(),
	}); err != nil {
		return err
	}
	logger.Debug("worker heartbeat",
		"event", "worker_heartbeat",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"worker_id", workerID,
		"claimed", cmd.Claimed,
	)
	return nil
}
