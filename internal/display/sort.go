package display

import (
	"sort"

	"github.com/davidahmann/gate/pkg/types"
)

// SortBySubmittedDesc orders proposals newest first. Missing or unparseable
// submission times sort last; ties keep their input order.
func SortBySubmittedDesc(in []types.ProposalSummary) []types.ProposalSummary {
	out := append([]types.ProposalSummary(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return submittedUnix(out[i]) > submittedUnix(out[j])
	})
	return out
}

func submittedUnix(p types.ProposalSummary) int64 {
	t, ok := ParseTime(p.SubmittedAt)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}
