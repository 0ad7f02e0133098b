package decision

import (
	"strings"

	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

// BuildPayload turns a draft into the wire payload. The comment is trimmed
// and reasons are only carried for REJECT, in selection order.
func BuildPayload(stage policy.Stage, draft Draft, userID string) types.DecisionPayload {
	reasons := []string{}
	if draft.Decision == policy.DecisionReject {
		reasons = append(reasons, draft.Reasons...)
	}
	return types.DecisionPayload{
		Stage:    string(stage),
		Decision: string(draft.Decision),
		Reasons:  reasons,
		Comment:  strings.TrimSpace(draft.Comment),
		UserID:   userID,
	}
}

// toggle adds reason when absent and removes it when present, keeping the
// order of the remaining reasons.
func toggle(reasons []string, reason string) []string {
	for i, r := range reasons {
		if r == reason {
			out := make([]string, 0, len(reasons)-1)
			out = append(out, reasons[:i]...)
			return append(out, reasons[i+1:]...)
		}
	}
	return append(append([]string(nil), reasons...), reason)
}
