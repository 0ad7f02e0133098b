package policy

type Stage string

type Role string

const (
	StageDocReview  Stage = "DOC_REVIEW"
	StageRiskReview Stage = "RISK_REVIEW"
	StageApproved   Stage = "APPROVED"
	StageRejected   Stage = "REJECTED"
)

// Presentation-only stages that may show up in upstream data. They are never
// decidable.
const (
	StageUnderEval Stage = "UNDER_EVAL"
	StageRiskEval  Stage = "RISK_EVAL"
	StageOnGoing   Stage = "ON_GOING"
	StageCompleted Stage = "COMPLETED"
)

const (
	RoleOps  Role = "OPS"
	RoleRisk Role = "RISK"
)

type DecisionKind string

const (
	DecisionApprove DecisionKind = "APPROVE"
	DecisionReject  DecisionKind = "REJECT"
)

// Stages returns the four canonical workflow stages in workflow order.
func Stages() []Stage {
	return []Stage{StageDocReview, StageRiskReview, StageApproved, StageRejected}
}

func Roles() []Role {
	return []Role{RoleOps, RoleRisk}
}
