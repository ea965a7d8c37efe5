package entities

import (
	"encoding/json"
	"strings"
	"time"
)

type OrderStatus string
type OrderType string
type Actor string

const (
	OrderStatusDraft          OrderStatus = "draft"
	OrderStatusWaitingPayment OrderStatus = "waiting_payment"
	OrderStatusQueued         OrderStatus = "queued"
	OrderStatusInProgress     OrderStatus = "in_progress"
	OrderStatusNeedsApproval  OrderStatus = "needs_approval"
	OrderStatusNeedsInfo      OrderStatus = "needs_info"
	OrderStatusBlocked        OrderStatus = "blocked"
	OrderStatusDone           OrderStatus = "done"
	OrderStatusFailed         OrderStatus = "failed"

	OrderTypeAds       OrderType = "ads"
	OrderTypeSite      OrderType = "site"
	OrderTypeContent   OrderType = "content"
	OrderTypeVideoEdit OrderType = "video_edit"

	ActorClient   Actor = "client"
	ActorEngine   Actor = "engine"
	ActorOperator Actor = "operator"
)

type Order struct {
	OrderID   string
	OwnerID   string
	Type      OrderType
	Status    OrderStatus
	Title     string
	Summary   string
	Payload   json.RawMessage
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanEdit reports whether the owner may still patch title/summary/payload.
func (o Order) CanEdit() bool {
	return o.Status == OrderStatusDraft || o.Status == OrderStatusNeedsInfo
}

func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusDone || o.Status == OrderStatusFailed
}

type OrderEvent struct {
	EventID        string
	OrderID        string
	Actor          Actor
	Message        string
	StatusSnapshot *OrderStatus
	CreatedAt      time.Time
}

type OrderFilter struct {
	OwnerID string
	Type    OrderType
	Status  OrderStatus
}

func IsSupportedOrderType(value OrderType) bool {
	switch value {
	case OrderTypeAds, OrderTypeSite, OrderTypeContent, OrderTypeVideoEdit:
		return true
	default:
		return false
	}
}

func IsSupportedStatus(value OrderStatus) bool {
	switch value {
	case OrderStatusDraft, OrderStatusWaitingPayment, OrderStatusQueued,
		OrderStatusInProgress, OrderStatusNeedsApproval, OrderStatusNeedsInfo,
		OrderStatusBlocked, OrderStatusDone, OrderStatusFailed:
		return true
	default:
		return false
	}
}

func IsSupportedActor(value Actor) bool {
	switch value {
	case ActorClient, ActorEngine, ActorOperator:
		return true
	default:
		return false
	}
}

func NormalizeActor(raw string) (Actor, bool) {
	actor := Actor(strings.ToLower(strings.TrimSpace(raw)))
	return actor, IsSupportedActor(actor)
}
