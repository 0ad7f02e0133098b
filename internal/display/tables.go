package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/davidahmann/gate/internal/normalize"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// ProposalTable renders an inbox, newest submission first.
func ProposalTable(proposals []types.ProposalSummary) string {
	if len(proposals) == 0 {
		return Muted("No proposals in this stage.")
	}
	t := newTable("ID", "Leader", "Members", "Amount", "Submitted", "Evidence", "Stage")
	for _, p := range SortBySubmittedDesc(proposals) {
		t.Row(
			FormatValue(p.ProposalID),
			FormatValue(p.LeaderName),
			FormatValue(p.MembersCount),
			FormatCurrency(p.TotalAmount),
			FormatDate(p.SubmittedAt),
			evidenceProgress(p),
			StageBadge(p.Stage),
		)
	}
	return t.String()
}

func evidenceProgress(p types.ProposalSummary) string {
	if p.EvidenceRequiredCount == nil && p.EvidenceCompletedCount == nil {
		return Placeholder
	}
	return FormatValue(p.EvidenceCompletedCount) + "/" + FormatValue(p.EvidenceRequiredCount)
}

// MemberTable lists members with the leader first.
func MemberTable(members []types.Member) string {
	if len(members) == 0 {
		return Muted("No members found in payload.")
	}
	t := newTable("ID", "Name", "Leader", "Loan", "Purpose", "Phone", "National ID", "Evidence")
	for _, m := range normalize.LeaderFirst(members) {
		leader := ""
		if m.IsLeader {
			leader = "yes"
		}
		t.Row(
			m.ID,
			FormatValue(m.Name),
			FormatValue(leader),
			FormatCurrency(m.LoanAmount),
			FormatValue(m.LoanPurpose),
			FormatValue(m.PhoneNumber),
			FormatValue(m.NationalID),
			fmt.Sprintf("%d/%d", presentKnown(m.Evidence), len(types.EvidenceKeys)),
		)
	}
	return t.String()
}

func presentKnown(evidence map[string]string) int {
	n := 0
	for _, key := range types.EvidenceKeys {
		if evidence[key] != "" {
			n++
		}
	}
	return n
}

// EvidenceTable lists the known evidence slots, missing ones included, then
// any extra slots.
func EvidenceTable(evidence map[string]string) string {
	t := newTable("Document", "Status", "Location")
	for _, slot := range normalize.EvidenceSlots(evidence) {
		status := Error("missing")
		location := Placeholder
		if slot.URL != "" {
			info := normalize.AnalyzeImageURL(slot.URL)
			switch {
			case info.IsLargeBase64:
				status = Muted("too large to preview")
				location = "inline image"
			case info.IsBase64:
				status = OK("present")
				location = "inline image"
			default:
				status = OK("present")
				location = slot.URL
			}
		}
		t.Row(humanizeKey(slot.Key), status, location)
	}
	return t.String()
}

// DecisionTable is the audit trail, oldest decision first as the server
// returns it.
func DecisionTable(decisions []types.ProposalDecision) string {
	if len(decisions) == 0 {
		return Muted("No decisions recorded yet.")
	}
	t := newTable("When", "Stage", "Decision", "Reviewer", "Reasons", "Comment")
	for _, d := range decisions {
		t.Row(
			FormatDate(d.DecidedAt),
			policy.LabelFor(policy.Stage(d.Stage)),
			decisionLabel(d.Decision),
			FormatValue(d.UserID),
			FormatValue(strings.Join(d.Reasons, ", ")),
			FormatValue(d.Comment),
		)
	}
	return t.String()
}

func decisionLabel(raw string) string {
	kind, ok := policy.ParseDecision(raw)
	switch {
	case !ok:
		return FormatValue(raw)
	case kind == policy.DecisionApprove:
		return OK("Approved")
	default:
		return Error("Rejected")
	}
}

// humanizeKey turns camelCase payload keys into words: "idFront" becomes
// "Id Front".
func humanizeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		if i == 0 && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
