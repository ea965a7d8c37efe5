package entities

import "testing"

func TestCanTransitionLifecycle(t *testing.T) {
	cases := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"draft to queued", OrderStatusDraft, OrderStatusQueued, true},
		{"draft to waiting payment", OrderStatusDraft, OrderStatusWaitingPayment, true},
		{"draft to done", OrderStatusDraft, OrderStatusDone, false},
		{"waiting payment to queued", OrderStatusWaitingPayment, OrderStatusQueued, true},
		{"waiting payment to in progress", OrderStatusWaitingPayment, OrderStatusInProgress, false},
		{"queued to in progress", OrderStatusQueued, OrderStatusInProgress, true},
		{"queued to done", OrderStatusQueued, OrderStatusDone, false},
		{"in progress to needs approval", OrderStatusInProgress, OrderStatusNeedsApproval, true},
		{"in progress to needs info", OrderStatusInProgress, OrderStatusNeedsInfo, true},
		{"in progress to done", OrderStatusInProgress, OrderStatusDone, true},
		{"in progress to failed", OrderStatusInProgress, OrderStatusFailed, true},
		{"in progress back to queued", OrderStatusInProgress, OrderStatusQueued, true},
		{"in progress stays in progress", OrderStatusInProgress, OrderStatusInProgress, true},
		{"needs approval to in progress", OrderStatusNeedsApproval, OrderStatusInProgress, true},
		{"needs approval to done", OrderStatusNeedsApproval, OrderStatusDone, false},
		{"needs info to queued", OrderStatusNeedsInfo, OrderStatusQueued, true},
		{"needs info to waiting payment", OrderStatusNeedsInfo, OrderStatusWaitingPayment, true},
		{"needs info to in progress", OrderStatusNeedsInfo, OrderStatusInProgress, false},
		{"blocked to queued", OrderStatusBlocked, OrderStatusQueued, true},
		{"blocked to draft", OrderStatusBlocked, OrderStatusDraft, false},
		{"done is terminal", OrderStatusDone, OrderStatusQueued, false},
		{"failed is terminal", OrderStatusFailed, OrderStatusQueued, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestIsCompleteTarget(t *testing.T) {
	for _, status := range []OrderStatus{
		OrderStatusDone, OrderStatusNeedsApproval, OrderStatusNeedsInfo,
		OrderStatusFailed, OrderStatusBlocked, OrderStatusQueued, OrderStatusInProgress,
	} {
		if !IsCompleteTarget(status) {
			t.Fatalf("expected %s to be a valid complete target", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusDraft, OrderStatusWaitingPayment} {
		if IsCompleteTarget(status) {
			t.Fatalf("expected %s to be rejected as a complete target", status)
		}
	}
}
