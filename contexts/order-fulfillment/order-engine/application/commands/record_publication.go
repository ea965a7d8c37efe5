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

type RecordAdsPublicationCommand struct {
	OrderID     string
	CampaignID  string
	AdsetID     string
	AdID        string
	CreativeID  string
	Status      entities.PublicationStatus
	RawResponse string
	Retries     int
	LastError   string
}

type RecordSitePublicationCommand struct {
	OrderID    string
	Stage      entities.SiteStage
	Slug       string
	PreviewURL string
	PublicURL  string
	Retries    int
	LastError  string
	Metadata   string
}

// RecordPublicationUseCase upserts the durable pipeline checkpoints: one
// record per order, monotonically forward-moving per stage unless explicitly
// retried.
type RecordPublicationUseCase struct {
	Orders       ports.OrderRepository
	Publications ports.PublicationRepository
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc RecordPublicationUseCase) ExecuteAds(ctx context.Context, cmd RecordAdsPublicationCommand) (entities.AdsPublication, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.AdsPublication{}, err
	}
	if order.Type != entities.OrderTypeAds {
		return entities.AdsPublication{}, domainerrors.ErrInvalidOrderInput
	}

	now := uc.Clock.Now().UTC()
	record, found, err := uc.Publications.GetAdsPublication(ctx, order.OrderID)
	if err != nil {
		return entities.AdsPublication{}, err
	}
	if !found {
		record = entities.AdsPublication{OrderID: order.OrderID, Status: entities.PublicationStatusPending, CreatedAt: now}
	}
	if cmd.CampaignID != "" {
		record.CampaignID = cmd.CampaignID
	}
	if cmd.AdsetID != "" {
		record.AdsetID = cmd.AdsetID
	}
	if cmd.AdID != "" {
		record.AdID = cmd.AdID
	}
	if cmd.CreativeID != "" {
		record.CreativeID = cmd.CreativeID
	}
	if cmd.Status != "" {
		record.Status = cmd.Status
	}
	if cmd.RawResponse != "" {
		record.RawResponse = cmd.RawResponse
	}
	record.Retries = cmd.Retries
	record.LastError = entities.ClipError(cmd.LastError)
	record.UpdatedAt = now
	if err := uc.Publications.UpsertAdsPublication(ctx, record); err != nil {
		return entities.AdsPublication{}, err
	}

	logger.Info("ads publication checkpoint",
		"event", "order_ads_publication_recorded",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"publication_status", string(record.Status),
		"retries", record.Retries,
	)
	return record, nil
}

func (uc RecordPublicationUseCase) ExecuteSite(ctx context.Context, cmd RecordSitePublicationCommand) (entities.SitePublication, error) {
	logger := application.ResolveLogger(uc.Logger)
	order, err := uc.Orders.GetOrder(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return entities.SitePublication{}, err
	}
	if order.Type != entities.OrderTypeSite {
		return entities.SitePublication{}, domainerrors.ErrInvalidOrderInput
	}

	now := uc.Clock.Now().UTC()
	record, found, err := uc.Publications.GetSitePublication(ctx, order.OrderID)
	if err != nil {
		return entities.SitePublication{}, err
	}
	if !found {
		record = entities.SitePublication{OrderID: order.OrderID, Stage: entities.SiteStagePending, CreatedAt: now}
	}
	if cmd.Stage != "" {
		record.Stage = cmd.Stage
	}
	if cmd.Slug != "" {
		record.Slug = cmd.Slug
	}
	if cmd.PreviewURL != "" {
		record.PreviewURL = cmd.PreviewURL
	}
	if cmd.PublicURL != "" {
		record.PublicURL = cmd.PublicURL
	}
	if cmd.Metadata != "" {
		record.Metadata = cmd.Metadata
	}
	record.Retries = cmd.Retries
	record.LastError = entities.ClipError(cmd.LastError)
	record.UpdatedAt = now
	if err := uc.Publications.UpsertSitePublication(ctx, record); err != nil {
		return entities.SitePublication{}, err
	}

	logger.Info("site publication checkpoint",
		"event", "order_site_publication_recorded",
		"module", "order-fulfillment/order-engine",
		"layer", "application",
		"order_id", order.OrderID,
		"stage", string(record.Stage),
		"retries", record.Retries,
	)
	return record, nil
}
