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

type DeliverableInput struct {
	Type      entities.DeliverableType
	Status    entities.DeliverableStatus
	Content   string
	AssetURLs []string
}

type RecordDeliverablesCommand struct {
	OrderID string
	Items   []DeliverableInput
}

// RecordDeliverablesUseCase upserts deliverables by (order, type) and
// auto-creates a pending Approval row for approval-required types. Calling
// it twice with the same payload yields one row per type, not two.
type RecordDeliverablesUseCase struct {
	Orders       ports.OrderRepository
	Deliverables ports.DeliverableRepository
	Approvals    ports.ApprovalRepository
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

func (uc RecordDeliverablesUseCase) Execute(ctx context.Context, cmd RecordDeliverablesCommand) ([]entities.Deliverable, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return nil, err
	}
	if len(cmd.Items) == 0 {
		return nil, domainerrors.ErrInvalidOrderInput
	}
	for _, item := range cmd.Items {
		if !entities.IsSupportedDeliverableType(item.Type) || !entities.IsSupportedDeliverableStatus(item.Status) {
			return nil, domainerrors.ErrInvalidOrderInput
		}
	}

	now := uc.Clock.Now().UTC()
	stored := make([]entities.Deliverable, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		deliverableID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		row, err := uc.Deliverables.UpsertDeliverable(ctx, entities.Deliverable{
			DeliverableID: deliverableID,
			OrderID:       order.OrderID,
			Type:          item.Type,
			Status:        item.Status,
			Content:       item.Content,
			AssetURLs:     append([]string(nil), item.AssetURLs...),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return nil, err
		}
		// Fresh or regenerated content re-enters the approval gate; recording
		// an approved/published deliverable must not reset a client decision.
		needsPending := row.Status == entities.DeliverableStatusDraft || row.Status == entities.DeliverableStatusSubmitted
		if entities.RequiresApproval(row.Type) && needsPending {
			if err := uc.Approvals.UpsertApproval(ctx, entities.Approval{
				DeliverableID: row.DeliverableID,
				Status:        entities.ApprovalStatusPending,
				UpdatedAt:     now,
			}); err != nil {
				return nil, err
			}
		}
		stored = append(stored, row)
	}

	logger.Info("deliverables recorded",
		"event", "order_deliverables_recorded",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"count", len(stored),
	)
	return stored, nil
}
