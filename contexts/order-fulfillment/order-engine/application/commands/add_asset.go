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

type AddAssetCommand struct {
	OrderID     string
	ActorID     string
	Kind        entities.AssetKind
	FileName    string
	ContentType string
	SizeBytes   int64
}

// AddAssetUseCase registers uploaded binary metadata and a blob-storage
// pointer. Assets are immutable once created.
type AddAssetUseCase struct {
	Orders ports.OrderRepository
	Assets ports.AssetRepository
	Blobs  ports.BlobStorage
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc AddAssetUseCase) Execute(ctx context.Context, cmd AddAssetCommand) (entities.OrderAsset, error) {
	logger := application.ResolveLogger(uc.Logger)
	fileName := strings.TrimSpace(cmd.FileName)
	if fileName == "" || !entities.IsSupportedAssetKind(cmd.Kind) || cmd.SizeBytes <= 0 {
		return entities.OrderAsset{}, domainerrors.ErrInvalidOrderInput
	}
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.OrderAsset{}, err
	}
	if order.OwnerID != strings.TrimSpace(cmd.ActorID) {
		return entities.OrderAsset{}, domainerrors.ErrOrderNotFound
	}

	storagePath, err := uc.Blobs.StoragePath(ctx, order.OrderID, fileName)
	if err != nil {
		return entities.OrderAsset{}, err
	}
	assetID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.OrderAsset{}, err
	}
	asset := entities.OrderAsset{
		AssetID:     assetID,
		OrderID:     order.OrderID,
		Kind:        cmd.Kind,
		FileName:    fileName,
		ContentType: strings.TrimSpace(cmd.ContentType),
		SizeBytes:   cmd.SizeBytes,
		StoragePath: storagePath,
		CreatedAt:   uc.Clock.Now().UTC(),
	}
	if err := uc.Assets.AddAsset(ctx, asset); err != nil {
		return entities.OrderAsset{}, err
	}

	logger.Info("order asset registered",
		"event", "order_asset_registered",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"asset_id", asset.AssetID,
	)
	return asset, nil
}
