package entities

import "testing"

func TestResolveApprovalGate(t *testing.T) {
	creative := Deliverable{DeliverableID: "d1", Type: DeliverableTypeCreative}
	copyItem := Deliverable{DeliverableID: "d2", Type: DeliverableTypeCopy}
	summary := Deliverable{DeliverableID: "d3", Type: DeliverableTypeAudienceSummary}

	cases := []struct {
		name         string
		deliverables []Deliverable
		approvals    map[string]Approval
		want         GateOutcome
	}{
		{
			name:         "no deliverables",
			deliverables: nil,
			approvals:    nil,
			want:         GateNone,
		},
		{
			name:         "only non gated deliverables",
			deliverables: []Deliverable{summary},
			approvals:    map[string]Approval{},
			want:         GateNone,
		},
		{
			name:         "required with no decisions",
			deliverables: []Deliverable{creative, copyItem, summary},
			approvals:    map[string]Approval{},
			want:         GateWait,
		},
		{
			name:         "one approved one pending",
			deliverables: []Deliverable{creative, copyItem},
			approvals: map[string]Approval{
				"d1": {DeliverableID: "d1", Status: ApprovalStatusApproved},
			},
			want: GateWait,
		},
		{
			name:         "explicit pending decision",
			deliverables: []Deliverable{creative},
			approvals: map[string]Approval{
				"d1": {DeliverableID: "d1", Status: ApprovalStatusPending},
			},
			want: GateWait,
		},
		{
			name:         "changes requested wins over approvals",
			deliverables: []Deliverable{creative, copyItem},
			approvals: map[string]Approval{
				"d1": {DeliverableID: "d1", Status: ApprovalStatusApproved},
				"d2": {DeliverableID: "d2", Status: ApprovalStatusChangesRequested},
			},
			want: GateIterate,
		},
		{
			name:         "all required approved",
			deliverables: []Deliverable{creative, copyItem, summary},
			approvals: map[string]Approval{
				"d1": {DeliverableID: "d1", Status: ApprovalStatusApproved},
				"d2": {DeliverableID: "d2", Status: ApprovalStatusApproved},
			},
			want: GateFinalize,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveApprovalGate(tc.deliverables, tc.approvals); got != tc.want {
				t.Fatalf("ResolveApprovalGate = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRequiresApproval(t *testing.T) {
	if !RequiresApproval(DeliverableTypeCreative) || !RequiresApproval(DeliverableTypeCopy) {
		t.Fatalf("creative and copy must pass through the approval gate")
	}
	for _, value := range []DeliverableType{
		DeliverableTypeAudienceSummary, DeliverableTypePlan, DeliverableTypeWireframe,
		DeliverableTypeURLPreview, DeliverableTypeCalendar, DeliverableTypePosts, DeliverableTypeScript,
	} {
		if RequiresApproval(value) {
			t.Fatalf("%s must not require approval", value)
		}
	}
}
