package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gosimple/slug"

	application "maestro/contexts/order-fulfillment/order-engine/application"
	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// SitePipeline drives a site order through three checkpointed stages:
// autobuild the site spec, publish a preview, then publish the final site.
// Each stage persists before its external call so a re-claimed order resumes
// from the last completed checkpoint.
type SitePipeline struct {
	Publications ports.PublicationRepository
	Builder      ports.SiteBuilder
	Record       commands.RecordDeliverablesUseCase
	Complete     commands.CompleteOrderUseCase
	Progress     commands.AppendEventUseCase
	Retry        RetryPolicy
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (p SitePipeline) Process(ctx context.Context, order entities.Order, claim entities.WorkerClaim) error {
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
	site := payload.Site

	record, found, err := p.Publications.GetSitePublication(ctx, order.OrderID)
	if err != nil {
		return err
	}
	now := p.Clock.Now().UTC()
	if !found {
		record = entities.SitePublication{
			OrderID:   order.OrderID,
			Stage:     entities.SiteStagePending,
			Slug:      slug.Make(site.BusinessName),
			CreatedAt: now,
		}
	}
	if record.Slug == "" {
		record.Slug = slug.Make(site.BusinessName)
	}

	logger.Info("site pipeline resuming",
		"event", "site_pipeline_resuming",
		"module", "order-fulfillment/order-engine",
		"layer", "worker",
		"order_id", order.OrderID,
		"stage", string(record.Stage),
		"attempt", claim.Attempt,
	)

	if record.Metadata == "" {
		record.Stage = entities.SiteStageBuilding
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
		var spec string
		err := p.Retry.Run(ctx, func() error {
			built, err := p.Builder.Autobuild(ctx, site.Prompt)
			if err != nil {
				return err
			}
			spec = built
			return nil
		}, p.onRetry(ctx, order, &record, "autobuild"))
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.Metadata = spec
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
	}

	if record.PreviewURL == "" {
		var previewURL string
		err := p.Retry.Run(ctx, func() error {
			url, err := p.Builder.PublishPreview(ctx, record.Slug, record.Metadata)
			if err != nil {
				return err
			}
			previewURL = url
			return nil
		}, p.onRetry(ctx, order, &record, "preview"))
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.Stage = entities.SiteStagePreviewPublished
		record.PreviewURL = previewURL
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
		if _, err := p.Record.Execute(ctx, commands.RecordDeliverablesCommand{
			OrderID: order.OrderID,
			Items: []commands.DeliverableInput{{
				Type:      entities.DeliverableTypeURLPreview,
				Status:    entities.DeliverableStatusPublished,
				Content:   fmt.Sprintf("Prévia do site disponível em %s", previewURL),
				AssetURLs: []string{previewURL},
			}},
		}); err != nil {
			return err
		}
	}

	if record.Stage != entities.SiteStagePublished {
		record.Stage = entities.SiteStagePublishing
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
		var publicURL string
		err := p.Retry.Run(ctx, func() error {
			url, err := p.Builder.PublishFinal(ctx, record.Slug)
			if err != nil {
				return err
			}
			publicURL = url
			return nil
		}, p.onRetry(ctx, order, &record, "publish"))
		if err != nil {
			return p.fail(ctx, order, &record, err)
		}
		record.Stage = entities.SiteStagePublished
		record.PublicURL = publicURL
		record.LastError = ""
		if err := p.checkpoint(ctx, &record); err != nil {
			return err
		}
	}

	_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: order.OrderID,
		Status:  entities.OrderStatusDone,
		Message: fmt.Sprintf("Site publicado em %s", record.PublicURL),
	})
	return cerr
}

func (p SitePipeline) onRetry(
	ctx context.Context,
	order entities.Order,
	record *entities.SitePublication,
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
			Message: fmt.Sprintf("Falha temporária na etapa %s (tentativa %d); tentando novamente.", stage, attempt),
		})
	}
}

func (p SitePipeline) checkpoint(ctx context.Context, record *entities.SitePublication) error {
	record.UpdatedAt = p.Clock.Now().UTC()
	return p.Publications.UpsertSitePublication(ctx, *record)
}

func (p SitePipeline) fail(ctx context.Context, order entities.Order, record *entities.SitePublication, err error) error {
	record.Stage = entities.SiteStageFailed
	record.LastError = entities.ClipError(err.Error())
	if cerr := p.checkpoint(ctx, record); cerr != nil {
		return cerr
	}
	_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: order.OrderID,
		Status:  entities.OrderStatusFailed,
		Message: fmt.Sprintf("Publicação do site falhou: %s", err.Error()),
	})
	return cerr
}
