package policy

import "testing"

func TestCanDecideMatrix(t *testing.T) {
	stages := []Stage{StageDocReview, StageRiskReview, StageApproved, StageRejected, ""}

	for _, role := range Roles() {
		for _, stage := range stages {
			want := (role == RoleOps && stage == StageDocReview) || (role == RoleRisk && stage == StageRiskReview)
			if got := CanDecide(role, stage); got != want {
				t.Fatalf("CanDecide(%s, %q) = %v, want %v", role, stage, got, want)
			}
		}
	}
}

func TestCanDecideRejectsUnknownValues(t *testing.T) {
	if CanDecide(RoleOps, "doc_review") {
		t.Fatalf("lowercase stage must not be decidable")
	}
	if CanDecide(RoleRisk, StageRiskEval) {
		t.Fatalf("extended stage must not be decidable")
	}
	if CanDecide("ADMIN", StageDocReview) {
		t.Fatalf("unknown role must not decide")
	}
}

func TestDefaultStageFor(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := DefaultStageFor(RoleOps); got != StageDocReview {
			t.Fatalf("OPS default stage = %s", got)
		}
		if got := DefaultStageFor(RoleRisk); got != StageRiskReview {
			t.Fatalf("RISK default stage = %s", got)
		}
	}
	if got := DefaultStageFor("nobody"); got != StageDocReview {
		t.Fatalf("unknown role default stage = %s", got)
	}
}

func TestDenyReason(t *testing.T) {
	if got := DenyReason(RoleOps, StageDocReview); got != "" {
		t.Fatalf("expected no deny reason, got %q", got)
	}
	if got := DenyReason(RoleOps, StageRiskReview); got != "OPS can only make decisions when the proposal is in DOC_REVIEW stage." {
		t.Fatalf("unexpected OPS reason: %q", got)
	}
	if got := DenyReason(RoleRisk, StageApproved); got != "RISK can only make decisions when the proposal is in RISK_REVIEW stage." {
		t.Fatalf("unexpected RISK reason: %q", got)
	}
	if got := DenyReason(RoleRisk, ""); got != "Unable to determine proposal stage." {
		t.Fatalf("unexpected empty-stage reason: %q", got)
	}
}

func TestParseRoleAndStage(t *testing.T) {
	if role, ok := ParseRole(" risk "); !ok || role != RoleRisk {
		t.Fatalf("ParseRole risk = %s %v", role, ok)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatalf("expected admin to be rejected")
	}
	if stage, ok := ParseStage("doc_review"); !ok || stage != StageDocReview {
		t.Fatalf("ParseStage = %s %v", stage, ok)
	}
	if _, ok := ParseStage("UNDER_EVAL"); ok {
		t.Fatalf("extended stages are not canonical")
	}
	if kind, ok := ParseDecision("reject"); !ok || kind != DecisionReject {
		t.Fatalf("ParseDecision = %s %v", kind, ok)
	}
}

func TestTerminalAndDecidable(t *testing.T) {
	for _, stage := range Stages() {
		if IsTerminal(stage) == IsDecidable(stage) {
			t.Fatalf("stage %s must be exactly one of terminal/decidable", stage)
		}
	}
}

func TestNextStage(t *testing.T) {
	cases := []struct {
		stage Stage
		kind  DecisionKind
		want  Stage
		ok    bool
	}{
		{StageDocReview, DecisionApprove, StageRiskReview, true},
		{StageDocReview, DecisionReject, StageRejected, true},
		{StageRiskReview, DecisionApprove, StageApproved, true},
		{StageRiskReview, DecisionReject, StageRejected, true},
		{StageApproved, DecisionApprove, "", false},
		{StageRejected, DecisionReject, "", false},
		{StageDocReview, "MAYBE", "", false},
	}
	for _, tc := range cases {
		got, ok := NextStage(tc.stage, tc.kind)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NextStage(%s, %s) = %s %v, want %s %v", tc.stage, tc.kind, got, ok, tc.want, tc.ok)
		}
	}
}
