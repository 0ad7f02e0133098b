package policy

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var stageLabels = map[Stage]string{
	StageDocReview:  "Doc Review",
	StageRiskReview: "Risk Review",
	StageRiskEval:   "Risk Review",
	StageApproved:   "Approved",
	StageCompleted:  "Completed",
	StageRejected:   "Rejected",
	StageUnderEval:  "Under Evaluation",
	StageOnGoing:    "On Going",
}

// LabelFor renders a stage for humans. Unknown values are humanized rather
// than rejected.
func LabelFor(stage Stage) string {
	raw := strings.TrimSpace(string(stage))
	if raw == "" {
		return "--"
	}
	if label, ok := stageLabels[Stage(raw)]; ok {
		return label
	}
	spaced := strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " ")
	if spaced == "" {
		return raw
	}
	// Caser holds state; one per call.
	return cases.Title(language.English).String(strings.ToLower(spaced))
}
