package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// ContentPipeline produces a monthly calendar, post drafts and the copy for
// a content order. Copy passes through the client approval gate; finalize
// marks it published and closes the order, there is no external publish leg.
type ContentPipeline struct {
	Deliverables ports.DeliverableRepository
	Approvals    ports.ApprovalRepository
	Record       commands.RecordDeliverablesUseCase
	Complete     commands.CompleteOrderUseCase
	Logger       *slog.Logger
}

func (p ContentPipeline) Process(ctx context.Context, order entities.Order, claim entities.WorkerClaim) error {
	payload, err := entities.ParsePayload(order.Type, order.Payload)
	if err != nil {
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusFailed,
			Message: "Não foi possível interpretar os dados do pedido.",
		})
		return cerr
	}
	if question, missing := entities.MissingFieldQuestion(order.Type, payload); missing {
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsInfo,
			Message: question,
		})
		return cerr
	}
	content := payload.Content

	deliverables, err := p.Deliverables.ListDeliverables(ctx, order.OrderID)
	if err != nil {
		return err
	}
	approvals, err := p.Approvals.ListApprovals(ctx, order.OrderID)
	if err != nil {
		return err
	}

	switch entities.ResolveApprovalGate(deliverables, approvals) {
	case entities.GateNone:
		postCount := content.PostCount
		if postCount <= 0 {
			postCount = 12
		}
		platforms := strings.Join(content.Platforms, ", ")
		if _, err := p.Record.Execute(ctx, commands.RecordDeliverablesCommand{
			OrderID: order.OrderID,
			Items: []commands.DeliverableInput{
				{
					Type:    entities.DeliverableTypeCalendar,
					Status:  entities.DeliverableStatusSubmitted,
					Content: fmt.Sprintf("Calendário com %d publicações sobre %s em %s.", postCount, content.Topic, platforms),
				},
				{
					Type:    entities.DeliverableTypePosts,
					Status:  entities.DeliverableStatusSubmitted,
					Content: fmt.Sprintf("Rascunhos de %d publicações sobre %s.", postCount, content.Topic),
				},
				{
					Type:    entities.DeliverableTypeCopy,
					Status:  entities.DeliverableStatusSubmitted,
					Content: fmt.Sprintf("Legendas e chamadas sobre %s no tom %s.", content.Topic, fallbackTone(content.Tone)),
				},
			},
		}); err != nil {
			return err
		}
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsApproval,
			Message: "Conteúdo pronto para aprovação do cliente.",
		})
		return cerr
	case entities.GateWait:
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsApproval,
			Message: "Aguardando aprovações do cliente.",
		})
		return cerr
	case entities.GateIterate:
		items := make([]commands.DeliverableInput, 0, 1)
		for _, item := range deliverables {
			if !entities.RequiresApproval(item.Type) {
				continue
			}
			approval, ok := approvals[item.DeliverableID]
			if !ok || approval.Status != entities.ApprovalStatusChangesRequested {
				continue
			}
			items = append(items, commands.DeliverableInput{
				Type:    item.Type,
				Status:  entities.DeliverableStatusSubmitted,
				Content: fmt.Sprintf("%s (revisado: %s)", item.Content, approval.Feedback),
			})
		}
		if len(items) > 0 {
			if _, err := p.Record.Execute(ctx, commands.RecordDeliverablesCommand{OrderID: order.OrderID, Items: items}); err != nil {
				return err
			}
		}
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsApproval,
			Message: "Ajustes aplicados; nova rodada de aprovação.",
		})
		return cerr
	}

	// Finalize: flip the approved copy to published and close the order.
	for _, item := range deliverables {
		if item.Type != entities.DeliverableTypeCopy {
			continue
		}
		item.Status = entities.DeliverableStatusPublished
		if _, err := p.Deliverables.UpsertDeliverable(ctx, item); err != nil {
			return err
		}
	}
	_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: order.OrderID,
		Status:  entities.OrderStatusDone,
		Message: "Pacote de conteúdo aprovado e entregue.",
	})
	return cerr
}

func fallbackTone(tone string) string {
	if strings.TrimSpace(tone) == "" {
		return "neutro"
	}
	return tone
}
