package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// AdsPipeline drives an ads order from missing-input interview through the
// approval loop into the external campaign publish: campaign → ad-set →
// media → creative → ad, each step checkpointed in the publication record so
// a re-claimed order resumes instead of double-creating objects.
type AdsPipeline struct {
	Orders       ports.OrderRepository
	Deliverables ports.DeliverableRepository
	Approvals    ports.ApprovalRepository
	Publications ports.PublicationRepository
	Assets       ports.AssetRepository
	Ads          ports.AdsPlatform
	Record       commands.RecordDeliverablesUseCase
	Complete     commands.CompleteOrderUseCase
	Progress     commands.AppendEventUseCase
	Retry        RetryPolicy
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (p AdsPipeline) Process(ctx context.Context, order entities.Order, claim entities.WorkerClaim) error {
	logger := application.ResolveLogger(p.Logger)
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
		if err := p.generateDeliverables(ctx, order, payload); err != nil {
			return err
		}
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsApproval,
			Message: "Entregáveis prontos para aprovação do cliente.",
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
		if err := p.regenerateRejected(ctx, order, payload, deliverables, approvals); err != nil {
			return err
		}
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsApproval,
			Message: "Ajustes aplicados; nova rodada de aprovação.",
		})
		return cerr
	}

	logger.Info("ads publish starting",
		"event", "ads_publish_starting",
		"module", "order-fulfillment/order-engine",
		"layer", "worker",
		"order_id", order.OrderID,
		"attempt", claim.Attempt,
	)
	return p.publish(ctx, order, payload, deliverables)
}

func (p AdsPipeline) generateDeliverables(ctx context.Context, order entities.Order, payload entities.Payload) error {
	ads := payload.Ads
	_, err := p.Record.Execute(ctx, commands.RecordDeliverablesCommand{
		OrderID: order.OrderID,
		Items: []commands.DeliverableInput{
			{
				Type:    entities.DeliverableTypeCreative,
				Status:  entities.DeliverableStatusSubmitted,
				Content: fmt.Sprintf("Criativo %s para %s.", ads.MediaKind, ads.Objective),
			},
			{
				Type:    entities.DeliverableTypeCopy,
				Status:  entities.DeliverableStatusSubmitted,
				Content: fmt.Sprintf("Texto do anúncio focado em: %s.", ads.Objective),
			},
			{
				Type:    entities.DeliverableTypeAudienceSummary,
				Status:  entities.DeliverableStatusSubmitted,
				Content: fmt.Sprintf("Público para destino %s. %s", ads.Destination, ads.RegionNote),
			},
		},
	})
	return err
}

func (p AdsPipeline) regenerateRejected(
	ctx context.Context,
	order entities.Order,
	payload entities.Payload,
	deliverables []entities.Deliverable,
	approvals map[string]entities.Approval,
) error {
	items := make([]commands.DeliverableInput, 0, 2)
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
	if len(items) == 0 {
		return nil
	}
	_, err := p.Record.Execute(ctx, commands.RecordDeliverablesCommand{OrderID: order.OrderID, Items: items})
	return err
}

func (p AdsPipeline) publish(
	ctx context.Context,
	order entities.Order,
	payload entities.Payload,
	deliverables []entities.Deliverable,
) error {
	ads := payload.Ads
	now := p.Clock.Now().UTC()
	record, found, err := p.Publications.GetAdsPublication(ctx, order.OrderID)
	if err != nil {
		return err
	}
	if !found {
		record = entities.AdsPublication{
			OrderID:   order.OrderID,
			Status:    entities.PublicationStatusPending,
			CreatedAt: now,
		}
	}
	if record.Status == entities.PublicationStatusPublished {
		// Re-claimed after the final step already landed; nothing to redo.
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusDone,
			Message: "Campanha já publicada.",
		})
		return cerr
	}

	template, err := p.resolveTemplate(ctx, order, &record, ads)
	if err != nil {
		return p.fail(ctx, order, &record, err)
	}

	if record.CampaignID == "" {
		id, err := p.step(ctx, order, &record, "campaign", func() (string, error) {
			return p.Ads.CreateCampaign(ctx, ports.CampaignInput{
				TemplateID:       template.TemplateID,
				Name:             p.objectName(order, ads, "campaign"),
				Objective:        ads.Objective,
				DailyBudgetCents: ads.DailyBudgetCents,
			})
		})
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.CampaignID = id
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
	}

	if record.AdsetID == "" {
		id, err := p.step(ctx, order, &record, "adset", func() (string, error) {
			return p.Ads.CreateAdSet(ctx, ports.AdSetInput{
				CampaignID: record.CampaignID,
				TemplateID: template.TemplateID,
				Name:       p.objectName(order, ads, "adset"),
			})
		})
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.AdsetID = id
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
	}

	if record.MediaHash == "" {
		storagePath := ""
		if strings.TrimSpace(ads.MediaAssetID) != "" {
			asset, err := p.Assets.GetAsset(ctx, ads.MediaAssetID)
			if err != nil {
				return p.fail(ctx, order, &record, &ports.PublishError{
					Code:    "missing_media_asset",
					Message: fmt.Sprintf("asset %s não encontrado", ads.MediaAssetID),
				})
			}
			storagePath = asset.StoragePath
		}
		hash, err := p.step(ctx, order, &record, "media", func() (string, error) {
			return p.Ads.UploadMedia(ctx, ports.MediaInput{
				OrderID:     order.OrderID,
				AssetID:     ads.MediaAssetID,
				MediaKind:   ads.MediaKind,
				StoragePath: storagePath,
			})
		})
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.MediaHash = hash
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
	}

	if record.CreativeID == "" {
		id, err := p.step(ctx, order, &record, "creative", func() (string, error) {
			return p.Ads.CreateCreative(ctx, ports.CreativeInput{
				TemplateID:  template.TemplateID,
				Name:        p.objectName(order, ads, "creative"),
				MediaHash:   record.MediaHash,
				PrimaryText: approvedCopy(deliverables),
			})
		})
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.CreativeID = id
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
	}

	if record.AdID == "" {
		id, err := p.step(ctx, order, &record, "ad", func() (string, error) {
			return p.Ads.CreateAd(ctx, ports.AdInput{
				AdsetID:    record.AdsetID,
				CreativeID: record.CreativeID,
				Name:       p.objectName(order, ads, "ad"),
			})
		})
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.AdID = id
	}

	record.Status = entities.PublicationStatusPublished
	record.LastError = ""
	if err := p.checkpoint(ctx, &record); err != nil {
		return err
	}
	_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: order.OrderID,
		Status:  entities.OrderStatusDone,
		Message: "Campanha publicada com sucesso.",
	})
	return cerr
}

// resolveTemplate clones object settings from an existing compatible live
// campaign. A fallback_media template means no template matched the required
// media kind; publishing mismatched media is a hard failure, not a silent
// downgrade.
func (p AdsPipeline) resolveTemplate(
	ctx context.Context,
	order entities.Order,
	record *entities.AdsPublication,
	ads *entities.AdsPayload,
) (ports.AdsTemplate, error) {
	var template ports.AdsTemplate
	err := p.Retry.Run(ctx, func() error {
		found, err := p.Ads.ResolveTemplate(ctx, ads.Destination, ads.MediaKind)
		if err != nil {
			return err
		}
		template = found
		return nil
	}, p.onRetry(ctx, order, record, "template"))
	if err != nil {
		return ports.AdsTemplate{}, err
	}
	if template.FallbackMedia {
		return ports.AdsTemplate{}, &ports.PublishError{
			Code:    "fallback_media_template",
			Message: fmt.Sprintf("nenhum template com mídia %s compatível", ads.MediaKind),
		}
	}
	return template, nil
}

func (p AdsPipeline) step(
	ctx context.Context,
	order entities.Order,
	record *entities.AdsPublication,
	stage string,
	call func() (string, error),
) (string, error) {
	var id string
	err := p.Retry.Run(ctx, func() error {
		created, err := call()
		if err != nil {
			return err
		}
		id = created
		return nil
	}, p.onRetry(ctx, order, record, stage))
	return id, err
}

func (p AdsPipeline) onRetry(
	ctx context.Context,
	order entities.Order,
	record *entities.AdsPublication,
	stage string,
) func(attempt int, err error) {
	return func(attempt int, err error) {
		record.Retries++
		record.LastError = entities.ClipError(err.Error())
		if cerr := p.checkpoint(ctx, record); cerr != nil {
			return
		}
		_ = p.Progress.Execute(ctx, commands.AppendEventCommand{
			OrderID: order.OrderID,
			Actor:   entities.ActorEngine,
			Message: fmt.Sprintf("Falha temporária ao publicar (%s, tentativa %d); tentando novamente.", stage, attempt),
		})
	}
}

func (p AdsPipeline) checkpoint(ctx context.Context, record *entities.AdsPublication) error {
	record.UpdatedAt = p.Clock.Now().UTC()
	return p.Publications.UpsertAdsPublication(ctx, *record)
}

func (p AdsPipeline) fail(ctx context.Context, order entities.Order, record *entities.AdsPublication, err error) error {
	record.Status = entities.PublicationStatusFailed
	record.LastError = entities.ClipError(err.Error())
	if cerr := p.checkpoint(ctx, record); cerr != nil {
		return cerr
	}
	_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: order.OrderID,
		Status:  entities.OrderStatusFailed,
		Message: fmt.Sprintf("Publicação da campanha falhou: %s", err.Error()),
	})
	return cerr
}

// objectName derives the deterministic external object name operators use to
// trace a campaign back to its order.
func (p AdsPipeline) objectName(order entities.Order, ads *entities.AdsPayload, kind string) string {
	customer := strings.TrimSpace(ads.CustomerName)
	if customer == "" {
		customer = order.OwnerID
	}
	return fmt.Sprintf("%s | %s | %s-%s", customer, ads.Objective, kind, shortID(order.OrderID))
}

func approvedCopy(deliverables []entities.Deliverable) string {
	for _, item := range deliverables {
		if item.Type == entities.DeliverableTypeCopy {
			return item.Content
		}
	}
	return ""
}

func shortID(value string) string {
	if len(value) <= 8 {
		return value
	}
	return value[:8]
}
