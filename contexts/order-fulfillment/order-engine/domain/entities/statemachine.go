package entities

// transitions enumerates every status change the engine accepts through the
// normal lifecycle. Operator force-requeue from a terminal state is a separate
// recovery path and deliberately absent here.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:          {OrderStatusWaitingPayment, OrderStatusQueued, OrderStatusBlocked},
	OrderStatusWaitingPayment: {OrderStatusQueued, OrderStatusBlocked},
	OrderStatusQueued:         {OrderStatusInProgress, OrderStatusBlocked},
	OrderStatusInProgress: {
		OrderStatusNeedsApproval,
		OrderStatusNeedsInfo,
		OrderStatusDone,
		OrderStatusFailed,
		OrderStatusQueued,
		OrderStatusInProgress,
		OrderStatusBlocked,
	},
	OrderStatusNeedsApproval: {OrderStatusInProgress, OrderStatusBlocked},
	OrderStatusNeedsInfo:     {OrderStatusQueued, OrderStatusWaitingPayment, OrderStatusBlocked},
	OrderStatusBlocked:       {OrderStatusQueued},
}

// CanTransition reports whether the state machine accepts from -> to.
// Terminal states accept nothing.
func CanTransition(from OrderStatus, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// completeTargets are the only statuses the engine may hand to complete():
// the single way past in_progress.
var completeTargets = map[OrderStatus]struct{}{
	OrderStatusDone:          {},
	OrderStatusNeedsApproval: {},
	OrderStatusNeedsInfo:     {},
	OrderStatusFailed:        {},
	OrderStatusBlocked:       {},
	OrderStatusQueued:        {},
	OrderStatusInProgress:    {},
}

func IsCompleteTarget(value OrderStatus) bool {
	_, ok := completeTargets[value]
	return ok
}
