package display

import (
	"fmt"
	"strings"

	"github.com/davidahmann/gate/internal/normalize"
	"github.com/davidahmann/gate/internal/overview"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

// ProposalView renders the full review page of one proposal for role.
func ProposalView(detail *types.ProposalDetail, role policy.Role) string {
	var b strings.Builder
	members := normalize.ExtractMembers(detail.Payload)

	fmt.Fprintf(&b, "%s %s\n", Title("Proposal "+FormatValue(detail.ProposalID)), StageBadge(detail.Stage))
	fmt.Fprintf(&b, "Group:     %s\n", FormatValue(detail.GroupID))
	fmt.Fprintf(&b, "Submitted: %s\n", FormatDate(detail.SubmittedAt))
	if leader, ok := normalize.FindLeader(members); ok {
		fmt.Fprintf(&b, "Leader:    %s\n", leader.Name)
	}

	stage := policy.Stage(detail.Stage)
	if reason := policy.DenyReason(role, stage); reason != "" {
		fmt.Fprintf(&b, "%s\n", Muted(reason))
	} else {
		fmt.Fprintf(&b, "%s\n", OK(fmt.Sprintf("%s can decide at this stage.", role)))
	}

	b.WriteString("\n" + Title("Members") + "\n")
	b.WriteString(MemberTable(members) + "\n")

	for _, m := range normalize.LeaderFirst(members) {
		b.WriteString("\n" + Title("Evidence: "+m.Name) + "\n")
		b.WriteString(EvidenceTable(m.Evidence) + "\n")
	}
	if global := normalize.ExtractGlobalEvidence(detail.Payload); len(global) > 0 {
		b.WriteString("\n" + Title("Proposal documents") + "\n")
		b.WriteString(EvidenceTable(global) + "\n")
	}

	b.WriteString("\n" + Title("Contract") + "\n")
	if contract := normalize.ExtractContract(detail.Payload); contract != nil {
		fmt.Fprintf(&b, "ID: %s  Created: %s  Signatures: %d\n",
			FormatValue(contract.ContractID), FormatDate(contract.CreatedAt), len(contract.Signatures))
		for _, sig := range contract.Signatures {
			fmt.Fprintf(&b, "  %s signed %s\n", FormatValue(sig.Name), FormatDate(sig.SignedAt))
		}
	} else {
		b.WriteString(Muted("No contract in payload.") + "\n")
	}

	b.WriteString("\n" + Title("Decision history") + "\n")
	b.WriteString(DecisionTable(detail.Decisions) + "\n")
	return b.String()
}

// MemberView renders one member of a proposal. An unknown memberID falls
// back to the group leader and says so.
func MemberView(detail *types.ProposalDetail, memberID string) string {
	var b strings.Builder
	m, ok := normalize.FindMember(normalize.ExtractMembers(detail.Payload), memberID)
	if !ok {
		return Muted("No members found in payload.") + "\n"
	}
	if memberID != "" && m.ID != memberID {
		fmt.Fprintf(&b, "%s\n", Muted(fmt.Sprintf("Member %s not found; showing the group leader.", memberID)))
	}

	title := "Member " + FormatValue(m.Name)
	if m.IsLeader {
		title += " (leader)"
	}
	fmt.Fprintf(&b, "%s %s\n", Title(title), Muted(m.ID))
	t := newTable("Field", "Value")
	t.Row("Loan", FormatCurrency(m.LoanAmount))
	t.Row("Purpose", FormatValue(m.LoanPurpose))
	t.Row("Phone", FormatValue(m.PhoneNumber))
	t.Row("National ID", FormatValue(m.NationalID))
	t.Row("Date of birth", FormatValue(m.DateOfBirth))
	t.Row("Address", FormatValue(m.Address))
	t.Row("Business", FormatValue(m.BusinessName))
	t.Row("Monthly income", FormatCurrency(m.MonthlyIncome))
	t.Row("Monthly expenses", FormatCurrency(m.MonthlyExpenses))
	b.WriteString(t.String() + "\n")

	b.WriteString("\n" + Title("Evidence") + "\n")
	b.WriteString(EvidenceTable(m.Evidence) + "\n")
	return b.String()
}

// OverviewView renders the home dashboard.
func OverviewView(ov overview.Overview) string {
	var b strings.Builder
	b.WriteString(Title("Workflow") + "\n")

	t := newTable("Stage", "Proposals")
	for _, sc := range ov.Stages {
		count := FormatValue(sc.Count)
		if sc.Err != nil {
			count = Error("unavailable")
		}
		t.Row(StageBadge(string(sc.Stage)), count)
	}
	t.Row("Completed", FormatValue(ov.Completed()))
	b.WriteString(t.String() + "\n")

	if errs := ov.Errors(); len(errs) > 0 {
		for _, sc := range errs {
			fmt.Fprintf(&b, "%s\n", Error(fmt.Sprintf("%s: %v", policy.LabelFor(sc.Stage), sc.Err)))
		}
	}

	b.WriteString("\n" + Title("This month") + "\n")
	if ov.Metrics == nil {
		b.WriteString(Muted("Metrics are not available.") + "\n")
		return b.String()
	}
	m := ov.Metrics
	mt := newTable("Metric", "Value")
	mt.Row("Approved", FormatValue(m.ApprovedCount))
	mt.Row("Approved amount", FormatCurrency(m.ApprovedAmount))
	mt.Row("New clients", FormatValue(m.NewClients))
	mt.Row("Active clients", FormatValue(m.ActiveClients))
	mt.Row("Portfolio", FormatCurrency(m.PortfolioSize))
	mt.Row("Delinquency", FormatPercent(m.DelinquencyRate))
	mt.Row("Disbursements", FormatCurrency(m.Disbursements))
	b.WriteString(mt.String() + "\n")
	return b.String()
}
