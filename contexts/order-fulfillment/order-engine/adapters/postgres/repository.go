package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	domainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	"maestro/contexts/order-fulfillment/order-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateOrder(ctx context.Context, order entities.Order, event entities.OrderEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := orderModelFromEntity(order)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidOrderInput
			}
			return err
		}
		eventRow := eventModelFromEntity(event)
		return tx.Create(&eventRow).Error
	})
}

func (r *Repository) UpdateOrder(ctx context.Context, order entities.Order, event entities.OrderEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderModel{}).
			Where("order_id = ?", strings.TrimSpace(order.OrderID)).
			Updates(orderUpdatesFromEntity(order))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrOrderNotFound
		}
		eventRow := eventModelFromEntity(event)
		return tx.Create(&eventRow).Error
	})
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Order{}, domainerrors.ErrOrderNotFound
		}
		return entities.Order{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetOrderDetail(ctx context.Context, orderID string) (ports.OrderDetail, error) {
	orderID = strings.TrimSpace(orderID)
	order, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return ports.OrderDetail{}, err
	}

	detail := ports.OrderDetail{
		Order:     order,
		Approvals: make(map[string]entities.Approval),
	}

	events, err := r.ListEvents(ctx, orderID)
	if err != nil {
		return ports.OrderDetail{}, err
	}
	detail.Events = events

	deliverables, err := r.ListDeliverables(ctx, orderID)
	if err != nil {
		return ports.OrderDetail{}, err
	}
	detail.Deliverables = deliverables

	approvals, err := r.ListApprovals(ctx, orderID)
	if err != nil {
		return ports.OrderDetail{}, err
	}
	detail.Approvals = approvals

	assets, err := r.ListAssets(ctx, orderID)
	if err != nil {
		return ports.OrderDetail{}, err
	}
	detail.Assets = assets

	if ads, found, err := r.GetAdsPublication(ctx, orderID); err != nil {
		return ports.OrderDetail{}, err
	} else if found {
		detail.AdsPublication = &ads
	}
	if site, found, err := r.GetSitePublication(ctx, orderID); err != nil {
		return ports.OrderDetail{}, err
	} else if found {
		detail.SitePublication = &site
	}
	return detail, nil
}

func (r *Repository) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	tx := r.db.WithContext(ctx).Model(&orderModel{})
	if strings.TrimSpace(filter.OwnerID) != "" {
		tx = tx.Where("owner_id = ?", strings.TrimSpace(filter.OwnerID))
	}
	if filter.Type != "" {
		tx = tx.Where("order_type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []orderModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendEvent(ctx context.Context, event entities.OrderEvent) error {
	row := eventModelFromEntity(event)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidOrderInput
		}
		return err
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context, orderID string) ([]entities.OrderEvent, error) {
	var rows []eventModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.OrderEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ClaimNextOrder runs the full claim cycle in one transaction: expire stale
// leases, lock one eligible order skipping rows held by concurrent claimers,
// insert the claim and flip the order to in_progress. Eligible means queued,
// or in_progress with no live claim left behind by an approval-gate re-entry.
func (r *Repository) ClaimNextOrder(
	ctx context.Context,
	workerID string,
	lease time.Duration,
	now time.Time,
) (ports.ClaimResult, error) {
	workerID = strings.TrimSpace(workerID)
	timestamp := now.UTC()
	result := ports.ClaimResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := expireLeasesTx(tx, timestamp); err != nil {
			return err
		}

		var row orderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(
				"status = ? OR (status = ? AND NOT EXISTS (SELECT 1 FROM order_claims c WHERE c.order_id = orders.order_id AND c.released_at IS NULL AND c.lease_until > ?))",
				string(entities.OrderStatusQueued),
				string(entities.OrderStatusInProgress),
				timestamp,
			).
			Order("priority DESC, created_at ASC").
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var previousAttempts int64
		if err := tx.Model(&claimModel{}).
			Where("order_id = ?", row.OrderID).
			Count(&previousAttempts).
			Error; err != nil {
			return err
		}

		claim := entities.WorkerClaim{
			ClaimID:    uuid.NewString(),
			OrderID:    row.OrderID,
			WorkerID:   workerID,
			Attempt:    int(previousAttempts) + 1,
			LeaseUntil: timestamp.Add(lease),
			ClaimedAt:  timestamp,
		}
		claimRow := claimModelFromEntity(claim)
		if err := tx.Create(&claimRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrClaimConflict
			}
			return err
		}

		order := row.toEntity()
		order.Status = entities.OrderStatusInProgress
		order.UpdatedAt = timestamp
		if err := tx.Model(&orderModel{}).
			Where("order_id = ?", order.OrderID).
			Updates(map[string]any{
				"status":     string(order.Status),
				"updated_at": timestamp,
			}).
			Error; err != nil {
			return err
		}

		status := string(order.Status)
		eventRow := eventModel{
			EventID:        uuid.NewString(),
			OrderID:        order.OrderID,
			Actor:          string(entities.ActorEngine),
			Message:        fmt.Sprintf("Pedido assumido pelo worker %s.", workerID),
			StatusSnapshot: &status,
			CreatedAt:      timestamp,
		}
		if err := tx.Create(&eventRow).Error; err != nil {
			return err
		}

		result = ports.ClaimResult{Claimed: true, Order: order, Claim: claim}
		return nil
	})
	if err != nil {
		return ports.ClaimResult{}, err
	}
	return result, nil
}

func (r *Repository) ReleaseLiveClaim(ctx context.Context, orderID string, reason string, now time.Time) error {
	timestamp := now.UTC()
	return r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("order_id = ? AND released_at IS NULL AND lease_until > ?", strings.TrimSpace(orderID), timestamp).
		Updates(map[string]any{
			"released_at":    timestamp,
			"release_reason": strings.TrimSpace(reason),
		}).
		Error
}

func (r *Repository) ExpireLeases(ctx context.Context, now time.Time) (int, error) {
	expired := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := expireLeasesTx(tx, now.UTC())
		if err != nil {
			return err
		}
		expired = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// expireLeasesTx releases every stale claim and requeues its order so the
// next claim cycle can hand it to another worker.
func expireLeasesTx(tx *gorm.DB, now time.Time) (int, error) {
	var rows []claimModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("released_at IS NULL AND lease_until <= ?", now).
		Find(&rows).
		Error; err != nil {
		return 0, err
	}

	for _, row := range rows {
		if err := tx.Model(&claimModel{}).
			Where("claim_id = ?", row.ClaimID).
			Updates(map[string]any{
				"released_at":    now,
				"release_reason": entities.ReleaseReasonLeaseExpired,
			}).
			Error; err != nil {
			return 0, err
		}

		requeue := tx.Model(&orderModel{}).
			Where("order_id = ? AND status = ?", row.OrderID, string(entities.OrderStatusInProgress)).
			Updates(map[string]any{
				"status":     string(entities.OrderStatusQueued),
				"updated_at": now,
			})
		if requeue.Error != nil {
			return 0, requeue.Error
		}
		if requeue.RowsAffected == 0 {
			continue
		}

		status := string(entities.OrderStatusQueued)
		eventRow := eventModel{
			EventID:        uuid.NewString(),
			OrderID:        row.OrderID,
			Actor:          string(entities.ActorEngine),
			Message:        "Prazo do worker expirou; pedido devolvido à fila.",
			StatusSnapshot: &status,
			CreatedAt:      now,
		}
		if err := tx.Create(&eventRow).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (r *Repository) GetLiveClaim(ctx context.Context, orderID string, now time.Time) (entities.WorkerClaim, bool, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND released_at IS NULL AND lease_until > ?", strings.TrimSpace(orderID), now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.WorkerClaim{}, false, nil
		}
		return entities.WorkerClaim{}, false, err
	}
	return row.toEntity(), true, nil
}

// UpsertDeliverable keeps at most one row per (order, type). An existing row
// keeps its identity; only content, status and asset urls move.
func (r *Repository) UpsertDeliverable(ctx context.Context, item entities.Deliverable) (entities.Deliverable, error) {
	stored := item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing deliverableModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ? AND deliverable_type = ?", strings.TrimSpace(item.OrderID), string(item.Type)).
			First(&existing).
			Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := deliverableModelFromEntity(item)
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrInvalidOrderInput
				}
				return err
			}
			stored = row.toEntity()
			return nil
		}

		if err := tx.Model(&deliverableModel{}).
			Where("deliverable_id = ?", existing.DeliverableID).
			Updates(map[string]any{
				"status":     string(item.Status),
				"content":    item.Content,
				"asset_urls": copyOrEmpty(item.AssetURLs),
				"updated_at": item.UpdatedAt.UTC(),
			}).
			Error; err != nil {
			return err
		}
		updated := existing.toEntity()
		updated.Status = item.Status
		updated.Content = item.Content
		updated.AssetURLs = append([]string(nil), item.AssetURLs...)
		updated.UpdatedAt = item.UpdatedAt.UTC()
		stored = updated
		return nil
	})
	if err != nil {
		return entities.Deliverable{}, err
	}
	return stored, nil
}

func (r *Repository) GetDeliverable(ctx context.Context, deliverableID string) (entities.Deliverable, error) {
	var row deliverableModel
	err := r.db.WithContext(ctx).
		Where("deliverable_id = ?", strings.TrimSpace(deliverableID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Deliverable{}, domainerrors.ErrDeliverableNotFound
		}
		return entities.Deliverable{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListDeliverables(ctx context.Context, orderID string) ([]entities.Deliverable, error) {
	var rows []deliverableModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Deliverable, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertApproval(ctx context.Context, approval entities.Approval) error {
	row := approvalModel{
		DeliverableID: strings.TrimSpace(approval.DeliverableID),
		Status:        string(approval.Status),
		Feedback:      strings.TrimSpace(approval.Feedback),
		UpdatedAt:     approval.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deliverable_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "feedback", "updated_at"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) ListApprovals(ctx context.Context, orderID string) (map[string]entities.Approval, error) {
	var rows []approvalModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN order_deliverables d ON d.deliverable_id = order_approvals.deliverable_id").
		Where("d.order_id = ?", strings.TrimSpace(orderID)).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make(map[string]entities.Approval, len(rows))
	for _, row := range rows {
		items[row.DeliverableID] = entities.Approval{
			DeliverableID: row.DeliverableID,
			Status:        entities.ApprovalStatus(row.Status),
			Feedback:      row.Feedback,
			UpdatedAt:     row.UpdatedAt.UTC(),
		}
	}
	return items, nil
}

func (r *Repository) UpsertAdsPublication(ctx context.Context, record entities.AdsPublication) error {
	row := adsPublicationModelFromEntity(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"campaign_id", "adset_id", "ad_id", "creative_id", "media_hash",
				"status", "raw_response", "retries", "last_error", "updated_at",
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) GetAdsPublication(ctx context.Context, orderID string) (entities.AdsPublication, bool, error) {
	var row adsPublicationModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AdsPublication{}, false, nil
		}
		return entities.AdsPublication{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertSitePublication(ctx context.Context, record entities.SitePublication) error {
	row := sitePublicationModelFromEntity(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stage", "slug", "preview_url", "public_url",
				"retries", "last_error", "metadata", "updated_at",
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) GetSitePublication(ctx context.Context, orderID string) (entities.SitePublication, bool, error) {
	var row sitePublicationModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SitePublication{}, false, nil
		}
		return entities.SitePublication{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) AddAsset(ctx context.Context, asset entities.OrderAsset) error {
	row := assetModelFromEntity(asset)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidOrderInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, assetID string) (entities.OrderAsset, error) {
	var row assetModel
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", strings.TrimSpace(assetID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.OrderAsset{}, domainerrors.ErrAssetNotFound
		}
		return entities.OrderAsset{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAssets(ctx context.Context, orderID string) ([]entities.OrderAsset, error) {
	var rows []assetModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.OrderAsset, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertHeartbeat(ctx context.Context, heartbeat entities.WorkerHeartbeat) error {
	row := heartbeatModel{
		WorkerID:   strings.TrimSpace(heartbeat.WorkerID),
		Claimed:    heartbeat.Claimed,
		LastError:  heartbeat.LastError,
		LastSeenAt: heartbeat.LastSeenAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "worker_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"claimed", "last_error", "last_seen_at"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) ListHeartbeats(ctx context.Context) ([]entities.WorkerHeartbeat, error) {
	var rows []heartbeatModel
	if err := r.db.WithContext(ctx).
		Order("worker_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.WorkerHeartbeat, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.WorkerHeartbeat{
			WorkerID:   row.WorkerID,
			Claimed:    row.Claimed,
			LastError:  row.LastError,
			LastSeenAt: row.LastSeenAt.UTC(),
		})
	}
	return items, nil
}

type orderModel struct {
	OrderID   string    `gorm:"column:order_id;primaryKey"`
	OwnerID   string    `gorm:"column:owner_id"`
	OrderType string    `gorm:"column:order_type"`
	Status    string    `gorm:"column:status"`
	Title     string    `gorm:"column:title"`
	Summary   string    `gorm:"column:summary"`
	Payload   []byte    `gorm:"column:payload;type:jsonb"`
	Priority  int       `gorm:"column:priority"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string {
	return "orders"
}

func orderModelFromEntity(item entities.Order) orderModel {
	return orderModel{
		OrderID:   strings.TrimSpace(item.OrderID),
		OwnerID:   strings.TrimSpace(item.OwnerID),
		OrderType: string(item.Type),
		Status:    string(item.Status),
		Title:     strings.TrimSpace(item.Title),
		Summary:   strings.TrimSpace(item.Summary),
		Payload:   append([]byte(nil), item.Payload...),
		Priority:  item.Priority,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
}

func orderUpdatesFromEntity(item entities.Order) map[string]any {
	row := orderModelFromEntity(item)
	return map[string]any{
		"owner_id":   row.OwnerID,
		"order_type": row.OrderType,
		"status":     row.Status,
		"title":      row.Title,
		"summary":    row.Summary,
		"payload":    row.Payload,
		"priority":   row.Priority,
		"updated_at": row.UpdatedAt,
	}
}

func (m orderModel) toEntity() entities.Order {
	return entities.Order{
		OrderID:   m.OrderID,
		OwnerID:   m.OwnerID,
		Type:      entities.OrderType(m.OrderType),
		Status:    entities.OrderStatus(m.Status),
		Title:     m.Title,
		Summary:   m.Summary,
		Payload:   append([]byte(nil), m.Payload...),
		Priority:  m.Priority,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type eventModel struct {
	EventID        string    `gorm:"column:event_id;primaryKey"`
	OrderID        string    `gorm:"column:order_id"`
	Actor          string    `gorm:"column:actor"`
	Message        string    `gorm:"column:message"`
	StatusSnapshot *string   `gorm:"column:status_snapshot"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (eventModel) TableName() string {
	return "order_events"
}

func eventModelFromEntity(item entities.OrderEvent) eventModel {
	var snapshot *string
	if item.StatusSnapshot != nil {
		value := string(*item.StatusSnapshot)
		snapshot = &value
	}
	return eventModel{
		EventID:        strings.TrimSpace(item.EventID),
		OrderID:        strings.TrimSpace(item.OrderID),
		Actor:          string(item.Actor),
		Message:        item.Message,
		StatusSnapshot: snapshot,
		CreatedAt:      item.CreatedAt.UTC(),
	}
}

func (m eventModel) toEntity() entities.OrderEvent {
	var snapshot *entities.OrderStatus
	if m.StatusSnapshot != nil {
		value := entities.OrderStatus(*m.StatusSnapshot)
		snapshot = &value
	}
	return entities.OrderEvent{
		EventID:        m.EventID,
		OrderID:        m.OrderID,
		Actor:          entities.Actor(m.Actor),
		Message:        m.Message,
		StatusSnapshot: snapshot,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type claimModel struct {
	ClaimID       string     `gorm:"column:claim_id;primaryKey"`
	OrderID       string     `gorm:"column:order_id"`
	WorkerID      string     `gorm:"column:worker_id"`
	Attempt       int        `gorm:"column:attempt"`
	LeaseUntil    time.Time  `gorm:"column:lease_until"`
	ClaimedAt     time.Time  `gorm:"column:claimed_at"`
	ReleasedAt    *time.Time `gorm:"column:released_at"`
	ReleaseReason string     `gorm:"column:release_reason"`
}

func (claimModel) TableName() string {
	return "order_claims"
}

func claimModelFromEntity(item entities.WorkerClaim) claimModel {
	return claimModel{
		ClaimID:       strings.TrimSpace(item.ClaimID),
		OrderID:       strings.TrimSpace(item.OrderID),
		WorkerID:      strings.TrimSpace(item.WorkerID),
		Attempt:       item.Attempt,
		LeaseUntil:    item.LeaseUntil.UTC(),
		ClaimedAt:     item.ClaimedAt.UTC(),
		ReleasedAt:    normalizeOptionalTime(item.ReleasedAt),
		ReleaseReason: strings.TrimSpace(item.ReleaseReason),
	}
}

func (m claimModel) toEntity() entities.WorkerClaim {
	return entities.WorkerClaim{
		ClaimID:       m.ClaimID,
		OrderID:       m.OrderID,
		WorkerID:      m.WorkerID,
		Attempt:       m.Attempt,
		LeaseUntil:    m.LeaseUntil.UTC(),
		ClaimedAt:     m.ClaimedAt.UTC(),
		ReleasedAt:    normalizeOptionalTime(m.ReleasedAt),
		ReleaseReason: m.ReleaseReason,
	}
}

type deliverableModel struct {
	DeliverableID   string    `gorm:"column:deliverable_id;primaryKey"`
	OrderID         string    `gorm:"column:order_id"`
	DeliverableType string    `gorm:"column:deliverable_type"`
	Status          string    `gorm:"column:status"`
	Content         string    `gorm:"column:content"`
	AssetURLs       []string  `gorm:"column:asset_urls;type:text[]"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (deliverableModel) TableName() string {
	return "order_deliverables"
}

func deliverableModelFromEntity(item entities.Deliverable) deliverableModel {
	return deliverableModel{
		DeliverableID:   strings.TrimSpace(item.DeliverableID),
		OrderID:         strings.TrimSpace(item.OrderID),
		DeliverableType: string(item.Type),
		Status:          string(item.Status),
		Content:         item.Content,
		AssetURLs:       copyOrEmpty(item.AssetURLs),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func (m deliverableModel) toEntity() entities.Deliverable {
	return entities.Deliverable{
		DeliverableID: m.DeliverableID,
		OrderID:       m.OrderID,
		Type:          entities.DeliverableType(m.DeliverableType),
		Status:        entities.DeliverableStatus(m.Status),
		Content:       m.Content,
		AssetURLs:     copyOrEmpty(m.AssetURLs),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type approvalModel struct {
	DeliverableID string    `gorm:"column:deliverable_id;primaryKey"`
	Status        string    `gorm:"column:status"`
	Feedback      string    `gorm:"column:feedback"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (approvalModel) TableName() string {
	return "order_approvals"
}

type adsPublicationModel struct {
	OrderID     string    `gorm:"column:order_id;primaryKey"`
	CampaignID  string    `gorm:"column:campaign_id"`
	AdsetID     string    `gorm:"column:adset_id"`
	AdID        string    `gorm:"column:ad_id"`
	CreativeID  string    `gorm:"column:creative_id"`
	MediaHash   string    `gorm:"column:media_hash"`
	Status      string    `gorm:"column:status"`
	RawResponse string    `gorm:"column:raw_response"`
	Retries     int       `gorm:"column:retries"`
	LastError   string    `gorm:"column:last_error"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (adsPublicationModel) TableName() string {
	return "order_ads_publications"
}

func adsPublicationModelFromEntity(item entities.AdsPublication) adsPublicationModel {
	return adsPublicationModel{
		OrderID:     strings.TrimSpace(item.OrderID),
		CampaignID:  strings.TrimSpace(item.CampaignID),
		AdsetID:     strings.TrimSpace(item.AdsetID),
		AdID:        strings.TrimSpace(item.AdID),
		CreativeID:  strings.TrimSpace(item.CreativeID),
		MediaHash:   strings.TrimSpace(item.MediaHash),
		Status:      string(item.Status),
		RawResponse: item.RawResponse,
		Retries:     item.Retries,
		LastError:   item.LastError,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

func (m adsPublicationModel) toEntity() entities.AdsPublication {
	return entities.AdsPublication{
		OrderID:     m.OrderID,
		CampaignID:  m.CampaignID,
		AdsetID:     m.AdsetID,
		AdID:        m.AdID,
		CreativeID:  m.CreativeID,
		MediaHash:   m.MediaHash,
		Status:      entities.PublicationStatus(m.Status),
		RawResponse: m.RawResponse,
		Retries:     m.Retries,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type sitePublicationModel struct {
	OrderID    string    `gorm:"column:order_id;primaryKey"`
	Stage      string    `gorm:"column:stage"`
	Slug       string    `gorm:"column:slug"`
	PreviewURL string    `gorm:"column:preview_url"`
	PublicURL  string    `gorm:"column:public_url"`
	Retries    int       `gorm:"column:retries"`
	LastError  string    `gorm:"column:last_error"`
	Metadata   string    `gorm:"column:metadata"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (sitePublicationModel) TableName() string {
	return "order_site_publications"
}

func sitePublicationModelFromEntity(item entities.SitePublication) sitePublicationModel {
	return sitePublicationModel{
		OrderID:    strings.TrimSpace(item.OrderID),
		Stage:      string(item.Stage),
		Slug:       strings.TrimSpace(item.Slug),
		PreviewURL: strings.TrimSpace(item.PreviewURL),
		PublicURL:  strings.TrimSpace(item.PublicURL),
		Retries:    item.Retries,
		LastError:  item.LastError,
		Metadata:   item.Metadata,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}
}

func (m sitePublicationModel) toEntity() entities.SitePublication {
	return entities.SitePublication{
		OrderID:    m.OrderID,
		Stage:      entities.SiteStage(m.Stage),
		Slug:       m.Slug,
		PreviewURL: m.PreviewURL,
		PublicURL:  m.PublicURL,
		Retries:    m.Retries,
		LastError:  m.LastError,
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type assetModel struct {
	AssetID     string    `gorm:"column:asset_id;primaryKey"`
	OrderID     string    `gorm:"column:order_id"`
	Kind        string    `gorm:"column:kind"`
	FileName    string    `gorm:"column:file_name"`
	ContentType string    `gorm:"column:content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	StoragePath string    `gorm:"column:storage_path"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (assetModel) TableName() string {
	return "order_assets"
}

func assetModelFromEntity(item entities.OrderAsset) assetModel {
	return assetModel{
		AssetID:     strings.TrimSpace(item.AssetID),
		OrderID:     strings.TrimSpace(item.OrderID),
		Kind:        string(item.Kind),
		FileName:    strings.TrimSpace(item.FileName),
		ContentType: strings.TrimSpace(item.ContentType),
		SizeBytes:   item.SizeBytes,
		StoragePath: strings.TrimSpace(item.StoragePath),
		CreatedAt:   item.CreatedAt.UTC(),
	}
}

func (m assetModel) toEntity() entities.OrderAsset {
	return entities.OrderAsset{
		AssetID:     m.AssetID,
		OrderID:     m.OrderID,
		Kind:        entities.AssetKind(m.Kind),
		FileName:    m.FileName,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		StoragePath: m.StoragePath,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type heartbeatModel struct {
	WorkerID   string    `gorm:"column:worker_id;primaryKey"`
	Claimed    bool      `gorm:"column:claimed"`
	LastError  string    `gorm:"column:last_error"`
	LastSeenAt time.Time `gorm:"column:last_seen_at"`
}

func (heartbeatModel) TableName() string {
	return "worker_heartbeats"
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
