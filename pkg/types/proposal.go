package types

// ProposalSummary is one row of a stage inbox.
type ProposalSummary struct {
	ProposalID             string   `json:"proposalId"`
	GroupID                string   `json:"groupId,omitempty"`
	LeaderName             string   `json:"leaderName,omitempty"`
	MembersCount           *int     `json:"membersCount,omitempty"`
	TotalAmount            *float64 `json:"totalAmount,omitempty"`
	SubmittedAt            string   `json:"submittedAt,omitempty"`
	Stage                  string   `json:"stage,omitempty"`
	EvidenceRequiredCount  *int     `json:"evidenceRequiredCount,omitempty"`
	EvidenceCompletedCount *int     `json:"evidenceCompletedCount,omitempty"`
	AssignedTo             string   `json:"assignedTo,omitempty"`
}

type ProposalDetail struct {
	ProposalID  string             `json:"proposalId"`
	GroupID     string             `json:"groupId,omitempty"`
	Stage       string             `json:"stage,omitempty"`
	SubmittedAt string             `json:"submittedAt,omitempty"`
	Payload     map[string]any     `json:"payload,omitempty"`
	Decisions   []ProposalDecision `json:"decisions,omitempty"`
}

// ProposalDecision is a server-persisted entry of the decision history.
type ProposalDecision struct {
	Stage     string   `json:"stage,omitempty"`
	Decision  string   `json:"decision,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	Comment   string   `json:"comment,omitempty"`
	UserID    string   `json:"userId,omitempty"`
	DecidedAt string   `json:"decidedAt,omitempty"`
}

// DecisionPayload is the body of POST /api/gate/proposals/{id}/decision.
type DecisionPayload struct {
	Stage    string   `json:"stage"`
	Decision string   `json:"decision"`
	Reasons  []string `json:"reasons"`
	Comment  string   `json:"comment"`
	UserID   string   `json:"userId"`
}

type DecisionResult struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// Metrics is the optional business KPI snapshot. Every field may be missing.
type Metrics struct {
	ApprovedCount   *float64 `json:"approvedCount,omitempty"`
	ApprovedAmount  *float64 `json:"approvedAmount,omitempty"`
	NewClients      *float64 `json:"newClients,omitempty"`
	ActiveClients   *float64 `json:"activeClients,omitempty"`
	PortfolioSize   *float64 `json:"portfolioSize,omitempty"`
	DelinquencyRate *float64 `json:"delinquencyRate,omitempty"`
	Disbursements   *float64 `json:"disbursements,omitempty"`
}
