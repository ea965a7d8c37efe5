package workers

import (
	"context"
	"fmt"
	"log/slog"

	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// VideoEditPipeline submits the raw upload to the external editor and records
// the edited result as a url_preview deliverable. Single external leg, so the
// retry budget covers the whole submission.
type VideoEditPipeline struct {
	Assets   ports.AssetRepository
	Editor   ports.VideoEditor
	Record   commands.RecordDeliverablesUseCase
	Complete commands.CompleteOrderUseCase
	Progress commands.AppendEventUseCase
	Retry    RetryPolicy
	Logger   *slog.Logger
}

func (p VideoEditPipeline) Process(ctx context.Context, order entities.Order, claim entities.WorkerClaim) error {
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
	edit := payload.VideoEdit

	asset, err := p.Assets.GetAsset(ctx, edit.SourceAssetID)
	if err != nil {
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusNeedsInfo,
			Message: "Não encontramos o vídeo enviado; envie o arquivo novamente.",
		})
		return cerr
	}

	var resultURL string
	err = p.Retry.Run(ctx, func() error {
		url, err := p.Editor.SubmitEdit(ctx, ports.VideoEditInput{
			OrderID:          order.OrderID,
			SourceAssetPath:  asset.StoragePath,
			StylePrompt:      edit.StylePrompt,
			Language:         edit.Language,
			IncludeSubtitles: edit.IncludeSubtitles,
		})
		if err != nil {
			return err
		}
		resultURL = url
		return nil
	}, func(attempt int, err error) {
		_ = p.Progress.Execute(ctx, commands.AppendEventCommand{
			OrderID: order.OrderID,
			Actor:   entities.ActorEngine,
			Message: fmt.Sprintf("Falha temporária na edição do vídeo (tentativa %d); tentando novamente.", attempt),
		})
	})
	if err != nil {
		_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
			OrderID: order.OrderID,
			Status:  entities.OrderStatusFailed,
			Message: fmt.Sprintf("Edição do vídeo falhou: %s", err.Error()),
		})
		return cerr
	}

	if _, err := p.Record.Execute(ctx, commands.RecordDeliverablesCommand{
		OrderID: order.OrderID,
		Items: []commands.DeliverableInput{{
			Type:      entities.DeliverableTypeURLPreview,
			Status:    entities.DeliverableStatusPublished,
			Content:   fmt.Sprintf("Vídeo editado disponível em %s", resultURL),
			AssetURLs: []string{resultURL},
		}},
	}); err != nil {
		return err
	}

	_, cerr := p.Complete.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: order.OrderID,
		Status:  entities.OrderStatusDone,
		Message: "Vídeo editado e entregue.",
	})
	return cerr
}
