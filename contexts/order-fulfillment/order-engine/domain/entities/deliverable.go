package entities

import "time"

type DeliverableType string
type DeliverableStatus string
type ApprovalStatus string

const (
	DeliverableTypeCreative        DeliverableType = "creative"
	DeliverableTypeCopy            DeliverableType = "copy"
	DeliverableTypeAudienceSummary DeliverableType = "audience_summary"
	DeliverableTypePlan            DeliverableType = "plan"
	DeliverableTypeWireframe       DeliverableType = "wireframe"
	DeliverableTypeURLPreview      DeliverableType = "url_preview"
	DeliverableTypeCalendar        DeliverableType = "calendar"
	DeliverableTypePosts           DeliverableType = "posts"
	DeliverableTypeScript          DeliverableType = "script"

	DeliverableStatusDraft            DeliverableStatus = "draft"
	DeliverableStatusSubmitted        DeliverableStatus = "submitted"
	DeliverableStatusApproved         DeliverableStatus = "approved"
	DeliverableStatusChangesRequested DeliverableStatus = "changes_requested"
	DeliverableStatusPublished        DeliverableStatus = "published"

	ApprovalStatusPending          ApprovalStatus = "pending"
	ApprovalStatusApproved         ApprovalStatus = "approved"
	ApprovalStatusChangesRequested ApprovalStatus = "changes_requested"
)

// Deliverable is a unit of produced work attached to an order.
// At most one live deliverable exists per (order, type).
type Deliverable struct {
	DeliverableID string
	OrderID       string
	Type          DeliverableType
	Status        DeliverableStatus
	Content       string
	AssetURLs     []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Approval exists only for approval-required deliverable types and is
// overwritten in place on each client decision.
type Approval struct {
	DeliverableID string
	Status        ApprovalStatus
	Feedback      string
	UpdatedAt     time.Time
}

// RequiresApproval is the static predicate deciding which deliverable types
// pass through the client approval gate.
func RequiresApproval(value DeliverableType) bool {
	return value == DeliverableTypeCreative || value == DeliverableTypeCopy
}

func IsSupportedDeliverableType(value DeliverableType) bool {
	switch value {
	case DeliverableTypeCreative, DeliverableTypeCopy, DeliverableTypeAudienceSummary,
		DeliverableTypePlan, DeliverableTypeWireframe, DeliverableTypeURLPreview,
		DeliverableTypeCalendar, DeliverableTypePosts, DeliverableTypeScript:
		return true
	default:
		return false
	}
}

func IsSupportedDeliverableStatus(value DeliverableStatus) bool {
	switch value {
	case DeliverableStatusDraft, DeliverableStatusSubmitted, DeliverableStatusApproved,
		DeliverableStatusChangesRequested, DeliverableStatusPublished:
		return true
	default:
		return false
	}
}

type GateOutcome string

const (
	// GateNone: the order has no approval-required deliverables yet.
	GateNone GateOutcome = "none"
	// GateWait: at least one required approval is still pending.
	GateWait GateOutcome = "wait"
	// GateIterate: at least one required approval requested changes.
	GateIterate GateOutcome = "iterate"
	// GateFinalize: every required approval is approved.
	GateFinalize GateOutcome = "finalize"
)

// ResolveApprovalGate derives the order's next move from current deliverable
// and approval rows. It is the single gate function shared by the synchronous
// approval path and the asynchronous worker path; the outcome is never cached.
func ResolveApprovalGate(deliverables []Deliverable, approvals map[string]Approval) GateOutcome {
	required := 0
	approved := 0
	for _, item := range deliverables {
		if !RequiresApproval(item.Type) {
			continue
		}
		required++
		approval, ok := approvals[item.DeliverableID]
		if !ok || approval.Status == ApprovalStatusPending {
			continue
		}
		if approval.Status == ApprovalStatusChangesRequested {
			return GateIterate
		}
		approved++
	}
	if required == 0 {
		return GateNone
	}
	if approved == required {
		return GateFinalize
	}
	return GateWait
}
