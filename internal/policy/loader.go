package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var opsRejectionReasons = []string{
	"Incomplete documentation",
	"Invalid ID document",
	"Blurry/unreadable photos",
	"Missing business proof",
	"Address mismatch",
	"Signature missing",
	"Duplicate application",
}

var riskRejectionReasons = []string{
	"High debt-to-income ratio",
	"Insufficient income",
	"Poor credit history",
	"Overleveraged",
	"Business viability concerns",
	"Fraud indicators",
	"Age restriction",
}

// ReasonCatalog holds the suggested rejection reasons per role.
type ReasonCatalog struct {
	Ops  []string `yaml:"ops"`
	Risk []string `yaml:"risk"`
}

func DefaultReasons() ReasonCatalog {
	return ReasonCatalog{
		Ops:  append([]string(nil), opsRejectionReasons...),
		Risk: append([]string(nil), riskRejectionReasons...),
	}
}

// RejectionReasons returns the built-in suggestions for role.
func RejectionReasons(role Role) []string {
	return DefaultReasons().For(role)
}

// For returns a copy of the reasons offered to role.
func (c ReasonCatalog) For(role Role) []string {
	if role == RoleRisk {
		return append([]string(nil), c.Risk...)
	}
	return append([]string(nil), c.Ops...)
}

// LoadReasons reads a YAML reason catalog. A role section that is missing or
// empty keeps the built-in list.
func LoadReasons(path string) (ReasonCatalog, error) {
	// #nosec G304 -- path is operator-provided.
	data, err := os.ReadFile(path)
	if err != nil {
		return ReasonCatalog{}, err
	}

	var raw ReasonCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ReasonCatalog{}, fmt.Errorf("parse reasons %s: %w", path, err)
	}

	catalog := DefaultReasons()
	if ops := cleanReasons(raw.Ops); len(ops) > 0 {
		catalog.Ops = ops
	}
	if risk := cleanReasons(raw.Risk); len(risk) > 0 {
		catalog.Risk = risk
	}
	return catalog, nil
}

func cleanReasons(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, reason := range in {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			continue
		}
		if _, ok := seen[reason]; ok {
			continue
		}
		seen[reason] = struct{}{}
		out = append(out, reason)
	}
	return out
}
