package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/davidahmann/gate/pkg/types"
)

var memberPaths = []string{"members", "group.members", "clients", "applicants"}

// ExtractMembers returns the members of the first non-empty candidate list in
// payload, or an empty slice.
func ExtractMembers(payload map[string]any) []types.Member {
	for _, path := range memberPaths {
		raw, ok := lookup(payload, path)
		if !ok {
			continue
		}
		list, ok := asList(raw)
		if !ok || len(list) == 0 {
			continue
		}
		members := make([]types.Member, 0, len(list))
		for idx, entry := range list {
			members = append(members, normalizeMember(entry, idx))
		}
		return members
	}
	return []types.Member{}
}

func normalizeMember(raw any, index int) types.Member {
	fallbackID := "member-" + strconv.Itoa(index)
	obj, ok := asObject(raw)
	if !ok {
		return types.Member{ID: fallbackID, Name: "--"}
	}

	m := types.Member{
		ID:              identifier(obj, "id", "memberId", "clientId"),
		Name:            text(obj, "name", "fullName", "clientName"),
		IsLeader:        isLeader(obj),
		LoanAmount:      number(obj, "loanAmount"),
		LoanPurpose:     text(obj, "loanPurpose"),
		PhoneNumber:     identifier(obj, "phoneNumber", "phone"),
		Email:           text(obj, "email"),
		NationalID:      identifier(obj, "nationalId", "idNumber"),
		DateOfBirth:     text(obj, "dateOfBirth", "dob"),
		Gender:          text(obj, "gender"),
		Address:         text(obj, "address"),
		BusinessName:    text(obj, "businessName"),
		BusinessType:    text(obj, "businessType"),
		BusinessAddress: text(obj, "businessAddress"),
		MonthlyIncome:   number(obj, "monthlyIncome"),
		MonthlyExpenses: number(obj, "monthlyExpenses"),
		ExistingLoans:   number(obj, "existingLoans"),
		Evidence:        ExtractMemberEvidence(obj),
	}
	if m.ID == "" {
		m.ID = fallbackID
	}
	if m.Name == "" {
		m.Name = "--"
	}
	return m
}

func isLeader(obj map[string]any) bool {
	if truthy(obj["isLeader"]) || truthy(obj["is_leader"]) {
		return true
	}
	if b, ok := obj["leader"].(bool); ok && b {
		return true
	}
	return strings.EqualFold(text(obj, "role"), "leader") || strings.EqualFold(text(obj, "type"), "leader")
}

// FindLeader returns the flagged leader. When no member is flagged the first
// member stands in as leader; ok is false only for an empty list.
func FindLeader(members []types.Member) (types.Member, bool) {
	for _, m := range members {
		if m.IsLeader {
			return m, true
		}
	}
	if len(members) == 0 {
		return types.Member{}, false
	}
	return members[0], true
}

// LeaderFirst returns a copy of members with flagged leaders moved to the
// front, otherwise keeping payload order.
func LeaderFirst(members []types.Member) []types.Member {
	out := append([]types.Member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsLeader && !out[j].IsLeader
	})
	return out
}

// FindMember looks a member up by id, falling back to the leader.
func FindMember(members []types.Member, id string) (types.Member, bool) {
	if id != "" {
		for _, m := range members {
			if m.ID == id {
				return m, true
			}
		}
	}
	return FindLeader(members)
}
