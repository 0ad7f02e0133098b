package policy

import (
	"fmt"
	"strings"
)

// DefaultStageFor returns the inbox stage a role works from. Unknown roles
// fall back to the OPS stage.
func DefaultStageFor(role Role) Stage {
	if role == RoleRisk {
		return StageRiskReview
	}
	return StageDocReview
}

// CanDecide reports whether role may submit a decision at stage.
func CanDecide(role Role, stage Stage) bool {
	switch {
	case role == RoleOps && stage == StageDocReview:
		return true
	case role == RoleRisk && stage == StageRiskReview:
		return true
	default:
		return false
	}
}

// DenyReason explains why CanDecide is false. It returns "" when the role may
// decide.
func DenyReason(role Role, stage Stage) string {
	if CanDecide(role, stage) {
		return ""
	}
	if stage == "" {
		return "Unable to determine proposal stage."
	}
	switch role {
	case RoleOps, RoleRisk:
		return fmt.Sprintf("%s can only make decisions when the proposal is in %s stage.", role, DecisionStageFor(role))
	default:
		return fmt.Sprintf("role %q cannot make decisions.", string(role))
	}
}

// DecisionStageFor is the only stage at which role may decide.
func DecisionStageFor(role Role) Stage {
	return DefaultStageFor(role)
}

func IsTerminal(stage Stage) bool {
	return stage == StageApproved || stage == StageRejected
}

func IsDecidable(stage Stage) bool {
	return stage == StageDocReview || stage == StageRiskReview
}

// IsCanonical reports whether stage is one of the four workflow stages.
func IsCanonical(stage Stage) bool {
	for _, s := range Stages() {
		if s == stage {
			return true
		}
	}
	return false
}

// ParseRole accepts role names case-insensitively.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleOps:
		return RoleOps, true
	case RoleRisk:
		return RoleRisk, true
	default:
		return "", false
	}
}

// ParseStage accepts any of the canonical stages case-insensitively.
func ParseStage(raw string) (Stage, bool) {
	stage := Stage(strings.ToUpper(strings.TrimSpace(raw)))
	if !IsCanonical(stage) {
		return "", false
	}
	return stage, true
}

func ParseDecision(raw string) (DecisionKind, bool) {
	switch DecisionKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionApprove:
		return DecisionApprove, true
	case DecisionReject:
		return DecisionReject, true
	default:
		return "", false
	}
}

// NextStage is the stage a proposal moves to after kind is recorded at
// stage. ok is false when no decision is possible at stage.
func NextStage(stage Stage, kind DecisionKind) (Stage, bool) {
	if !IsDecidable(stage) {
		return "", false
	}
	switch kind {
	case DecisionReject:
		return StageRejected, true
	case DecisionApprove:
		if stage == StageDocReview {
			return StageRiskReview, true
		}
		return StageApproved, true
	default:
		return "", false
	}
}
