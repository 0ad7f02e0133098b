package decision

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/davidahmann/gate/internal/policy"
)

// MinRejectCommentLength is the minimum trimmed comment length, in
// characters, for a REJECT.
const MinRejectCommentLength = 10

type Field string

const (
	FieldDecision Field = "decision"
	FieldComment  Field = "comment"
	FieldReasons  Field = "reasons"
)

// FieldErrors maps a form field to its message. Empty means valid.
type FieldErrors map[Field]string

// ValidationError is a client-side form error. It never reaches the network.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[Field(field)])
	}
	return "invalid decision: " + strings.Join(parts, "; ")
}

type Draft struct {
	Decision policy.DecisionKind
	Reasons  []string
	Comment  string
}

// Validate applies the decision form rules. APPROVE needs nothing beyond the
// choice; REJECT needs a comment and at least one reason.
func Validate(d Draft) FieldErrors {
	errs := FieldErrors{}
	switch d.Decision {
	case policy.DecisionApprove:
	case policy.DecisionReject:
		if utf8.RuneCountInString(strings.TrimSpace(d.Comment)) < MinRejectCommentLength {
			errs[FieldComment] = "a rejection needs a comment of at least 10 characters"
		}
		if len(d.Reasons) == 0 {
			errs[FieldReasons] = "select at least one rejection reason"
		}
	case "":
		errs[FieldDecision] = "choose approve or reject"
	default:
		errs[FieldDecision] = "unknown decision " + string(d.Decision)
	}
	return errs
}
