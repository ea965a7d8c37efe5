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

type SetApprovalCommand struct {
	DeliverableID string
	ActorID       string
	Status        entities.ApprovalStatus
	Feedback      string
}

// SetApprovalUseCase records a client decision on an approval-required
// deliverable and recomputes the owning order's next status from the child
// rows. The gate outcome is derived fresh on every call; there is no cached
// "all approved" flag to drift.
type SetApprovalUseCase struct {
	Orders       ports.OrderRepository
	Deliverables ports.DeliverableRepository
	Approvals    ports.ApprovalRepository
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

func (uc SetApprovalUseCase) Execute(ctx context.Context, cmd SetApprovalCommand) (entities.GateOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Status != entities.ApprovalStatusApproved && cmd.Status != entities.ApprovalStatusChangesRequested {
		return "", domainerrors.ErrInvalidApprovalStatus
	}
	deliverable, err := uc.Deliverables.GetDeliverable(ctx, strings.TrimSpace(cmd.DeliverableID))
	if err != nil {
		return "", err
	}
	if !entities.RequiresApproval(deliverable.Type) {
		return "", domainerrors.ErrApprovalNotRequired
	}
	order, err := uc.Orders.GetOrder(ctx, deliverable.OrderID)
	if err != nil {
		return "", err
	}
	if order.OwnerID != strings.TrimSpace(cmd.ActorID) {
		return "", domainerrors.ErrOrderNotFound
	}

	now := uc.Clock.Now().UTC()
	if err := uc.Approvals.UpsertApproval(ctx, entities.Approval{
		DeliverableID: deliverable.DeliverableID,
		Status:        cmd.Status,
		Feedback:      strings.TrimSpace(cmd.Feedback),
		UpdatedAt:     now,
	}); err != nil {
		return "", err
	}
	deliverable.Status = entities.DeliverableStatus(cmd.Status)
	deliverable.UpdatedAt = now
	if _, err := uc.Deliverables.UpsertDeliverable(ctx, deliverable); err != nil {
		return "", err
	}

	deliverables, err := uc.Deliverables.ListDeliverables(ctx, order.OrderID)
	if err != nil {
		return "", err
	}
	approvals, err := uc.Approvals.ListApprovals(ctx, order.OrderID)
	if err != nil {
		return "", err
	}
	outcome := entities.ResolveApprovalGate(deliverables, approvals)

	if order.Status == entities.OrderStatusNeedsApproval &&
		(outcome == entities.GateFinalize || outcome == entities.GateIterate) {
		order.Status = entities.OrderStatusInProgress
		order.UpdatedAt = now
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return "", err
		}
		message := "Todas as aprovações concluídas; finalizando o pedido."
		if outcome == entities.GateIterate {
			message = "Ajustes solicitados; retomando a produção dos entregáveis."
		}
		status := order.Status
		if err := uc.Orders.UpdateOrder(ctx, order, entities.OrderEvent{
			EventID:        eventID,
			OrderID:        order.OrderID,
			Actor:          entities.ActorClient,
			Message:        message,
			StatusSnapshot: &status,
			CreatedAt:      now,
		}); err != nil {
			return "", err
		}
	}

	logger.Info("approval recorded",
		"event", "order_approval_recorded",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"deliverable_id", deliverable.DeliverableID,
		"approval_status", string(cmd.Status),
		"gate_outcome", string(outcome),
	)
	return outcome, nil
}
