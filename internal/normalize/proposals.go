package normalize

import (
	"github.com/davidahmann/gate/pkg/types"
)

// ProposalList accepts a bare list or an object wrapping the list under
// "proposals" or "items". Any other shape yields an empty list; entries that
// are not objects are dropped.
func ProposalList(raw any) []types.ProposalSummary {
	list, ok := asList(raw)
	if !ok {
		wrapped, _ := lookup(raw, "proposals", "items")
		list, ok = asList(wrapped)
		if !ok {
			return []types.ProposalSummary{}
		}
	}

	out := make([]types.ProposalSummary, 0, len(list))
	for _, entry := range list {
		obj, ok := asObject(entry)
		if !ok {
			continue
		}
		out = append(out, proposalSummary(obj))
	}
	return out
}

func proposalSummary(obj map[string]any) types.ProposalSummary {
	return types.ProposalSummary{
		ProposalID:             identifier(obj, "proposalId", "id"),
		GroupID:                identifier(obj, "groupId"),
		LeaderName:             text(obj, "leaderName"),
		MembersCount:           integer(obj, "membersCount"),
		TotalAmount:            number(obj, "totalAmount"),
		SubmittedAt:            text(obj, "submittedAt"),
		Stage:                  text(obj, "stage"),
		EvidenceRequiredCount:  integer(obj, "evidenceRequiredCount"),
		EvidenceCompletedCount: integer(obj, "evidenceCompletedCount"),
		AssignedTo:             text(obj, "assignedTo"),
	}
}

// ProposalDetail shapes a proposal document. ok is false when raw is not an
// object at all.
func ProposalDetail(raw any) (types.ProposalDetail, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return types.ProposalDetail{}, false
	}

	detail := types.ProposalDetail{
		ProposalID:  identifier(obj, "proposalId", "id"),
		GroupID:     identifier(obj, "groupId"),
		Stage:       text(obj, "stage"),
		SubmittedAt: text(obj, "submittedAt"),
		Payload:     map[string]any{},
		Decisions:   []types.ProposalDecision{},
	}
	if payload, ok := asObject(obj["payload"]); ok {
		detail.Payload = payload
	}
	if list, ok := asList(obj["decisions"]); ok {
		for _, entry := range list {
			if d, ok := asObject(entry); ok {
				detail.Decisions = append(detail.Decisions, proposalDecision(d))
			}
		}
	}
	return detail, true
}

func proposalDecision(obj map[string]any) types.ProposalDecision {
	return types.ProposalDecision{
		Stage:     text(obj, "stage"),
		Decision:  text(obj, "decision"),
		Reasons:   stringList(obj["reasons"]),
		Comment:   text(obj, "comment"),
		UserID:    identifier(obj, "userId"),
		DecidedAt: text(obj, "decidedAt"),
	}
}

// ParseMetrics keeps only numeric KPI fields. It returns nil when raw is not
// an object.
func ParseMetrics(raw any) *types.Metrics {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}
	return &types.Metrics{
		ApprovedCount:   number(obj, "approvedCount"),
		ApprovedAmount:  number(obj, "approvedAmount"),
		NewClients:      number(obj, "newClients"),
		ActiveClients:   number(obj, "activeClients"),
		PortfolioSize:   number(obj, "portfolioSize"),
		DelinquencyRate: number(obj, "delinquencyRate"),
		Disbursements:   number(obj, "disbursements"),
	}
}
