package errors

import "errors"

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidOrderInput     = errors.New("invalid order input")
	ErrOrderNotEditable      = errors.New("order cannot be edited in current state")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrDeliverableNotFound   = errors.New("deliverable not found")
	ErrApprovalNotRequired   = errors.New("deliverable type does not require approval")
	ErrInvalidApprovalStatus = errors.New("approval status must be approved or changes_requested")
	ErrAssetNotFound         = errors.New("order asset not found")
	ErrPublicationNotFound   = errors.New("publication record not found")
	ErrClaimConflict         = errors.New("order already claimed by another worker")
	ErrWorkerIDRequired      = errors.New("worker id is required")
)
