package ports

import (
	"context"
	"fmt"
	"time"

	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
)

// OrderDetail is the denormalized view returned to clients and operators:
// the order plus everything hanging off it.
type OrderDetail struct {
	Order           entities.Order
	Events          []entities.OrderEvent
	Deliverables    []entities.Deliverable
	Approvals       map[string]entities.Approval
	Assets          []entities.OrderAsset
	AdsPublication  *entities.AdsPublication
	SitePublication *entities.SitePublication
}

// OrderRepository mutations append the given OrderEvent in the same
// transaction as the order change; events and state must never diverge.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order entities.Order, event entities.OrderEvent) error
	UpdateOrder(ctx context.Context, order entities.Order, event entities.OrderEvent) error
	GetOrder(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderDetail(ctx context.Context, orderID string) (OrderDetail, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
}

type EventRepository interface {
	AppendEvent(ctx context.Context, event entities.OrderEvent) error
	ListEvents(ctx context.Context, orderID string) ([]entities.OrderEvent, error)
}

type ClaimResult struct {
	Claimed bool
	Order   entities.Order
	Claim   entities.WorkerClaim
}

// ClaimRepository implements the claim/lease protocol. ClaimNextOrder runs
// the whole cycle atomically: expire stale leases, pick one eligible order
// skipping rows locked by concurrent claimers, insert the claim and flip the
// order to in_progress. No eligible order is the normal idle case, reported
// as Claimed=false rather than an error.
type ClaimRepository interface {
	ClaimNextOrder(ctx context.Context, workerID string, lease time.Duration, now time.Time) (ClaimResult, error)
	ReleaseLiveClaim(ctx context.Context, orderID string, reason string, now time.Time) error
	ExpireLeases(ctx context.Context, now time.Time) (int, error)
	GetLiveClaim(ctx context.Context, orderID string, now time.Time) (entities.WorkerClaim, bool, error)
}

// DeliverableRepository upserts by (order, type): at most one live
// deliverable row per type per order.
type DeliverableRepository interface {
	UpsertDeliverable(ctx context.Context, item entities.Deliverable) (entities.Deliverable, error)
	GetDeliverable(ctx context.Context, deliverableID string) (entities.Deliverable, error)
	ListDeliverables(ctx context.Context, orderID string) ([]entities.Deliverable, error)
}

type ApprovalRepository interface {
	UpsertApproval(ctx context.Context, approval entities.Approval) error
	ListApprovals(ctx context.Context, orderID string) (map[string]entities.Approval, error)
}

type PublicationRepository interface {
	UpsertAdsPublication(ctx context.Context, record entities.AdsPublication) error
	GetAdsPublication(ctx context.Context, orderID string) (entities.AdsPublication, bool, error)
	UpsertSitePublication(ctx context.Context, record entities.SitePublication) error
	GetSitePublication(ctx context.Context, orderID string) (entities.SitePublication, bool, error)
}

type AssetRepository interface {
	AddAsset(ctx context.Context, asset entities.OrderAsset) error
	GetAsset(ctx context.Context, assetID string) (entities.OrderAsset, error)
	ListAssets(ctx context.Context, orderID string) ([]entities.OrderAsset, error)
}

type HeartbeatRepository interface {
	UpsertHeartbeat(ctx context.Context, heartbeat entities.WorkerHeartbeat) error
	ListHeartbeats(ctx context.Context) ([]entities.WorkerHeartbeat, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// BillingPlans is the credential/billing collaborator: submit routes through
// waiting_payment when the owner's plan is not active and funded.
type BillingPlans interface {
	PlanActiveAndFunded(ctx context.Context, ownerID string) (bool, error)
}

// PublishError is the typed failure returned by external publish
// collaborators. Retriable signals (rate limit, 5xx class) re-enter the
// pipeline's retry budget; everything else fails the order immediately.
type PublishError struct {
	Code      string
	Message   string
	Retriable bool
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AdsTemplate struct {
	TemplateID      string
	Name            string
	DestinationType string
	MediaKind       string
	FallbackMedia   bool
}

type CampaignInput struct {
	TemplateID       string
	Name             string
	Objective        string
	DailyBudgetCents int64
}

type AdSetInput struct {
	CampaignID string
	TemplateID string
	Name       string
}

type MediaInput struct {
	OrderID     string
	AssetID     string
	MediaKind   string
	StoragePath string
}

type CreativeInput struct {
	TemplateID  string
	Name        string
	MediaHash   string
	PrimaryText string
}

type AdInput struct {
	AdsetID    string
	CreativeID string
	Name       string
}

// AdsPlatform is the advertising collaborator (campaign-object API).
// Interfaces only; the engine never talks HTTP to it directly.
type AdsPlatform interface {
	ResolveTemplate(ctx context.Context, destinationType string, mediaKind string) (AdsTemplate, error)
	CreateCampaign(ctx context.Context, input CampaignInput) (string, error)
	CreateAdSet(ctx context.Context, input AdSetInput) (string, error)
	UploadMedia(ctx context.Context, input MediaInput) (string, error)
	CreateCreative(ctx context.Context, input CreativeInput) (string, error)
	CreateAd(ctx context.Context, input AdInput) (string, error)
}

// SiteBuilder is the site-generation collaborator behind the three
// checkpointed site stages.
type SiteBuilder interface {
	Autobuild(ctx context.Context, prompt string) (string, error)
	PublishPreview(ctx context.Context, slug string, spec string) (string, error)
	PublishFinal(ctx context.Context, slug string) (string, error)
}

type VideoEditInput struct {
	OrderID          string
	SourceAssetPath  string
	StylePrompt      string
	Language         string
	IncludeSubtitles bool
}

type VideoEditor interface {
	SubmitEdit(ctx context.Context, input VideoEditInput) (string, error)
}

// BlobStorage issues storage pointers for uploaded binaries; raw bytes are
// out of scope here.
type BlobStorage interface {
	StoragePath(ctx context.Context, orderID string, fileName string) (string, error)
}
