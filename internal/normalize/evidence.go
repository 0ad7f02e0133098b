package normalize

import (
	"sort"
	"strings"

	"github.com/davidahmann/gate/pkg/types"
)

var (
	memberEvidenceSources = []string{"evidence", "documents", "files", "uploads"}
	globalEvidenceSources = []string{"evidence", "documents", "files"}
)

// ExtractMemberEvidence collects http(s) evidence links from a member's
// evidence sub-objects and the flat well-known slots. Flat slots win on
// conflicts.
func ExtractMemberEvidence(member map[string]any) map[string]string {
	result := map[string]string{}
	for _, key := range memberEvidenceSources {
		collectURLs(result, member[key])
	}
	for _, key := range types.EvidenceKeys {
		if s, ok := member[key].(string); ok && IsHTTPURL(strings.TrimSpace(s)) {
			result[key] = strings.TrimSpace(s)
		}
	}
	return result
}

// ExtractGlobalEvidence collects proposal-level evidence links.
func ExtractGlobalEvidence(payload map[string]any) map[string]string {
	result := map[string]string{}
	for _, key := range globalEvidenceSources {
		raw, _ := lookup(payload, key)
		collectURLs(result, raw)
	}
	return result
}

func collectURLs(dst map[string]string, source any) {
	obj, ok := asObject(source)
	if !ok {
		return
	}
	for key, value := range obj {
		var s string
		switch v := value.(type) {
		case string:
			s = strings.TrimSpace(v)
		case map[string]any:
			// Uploads described as objects, e.g. {"url": ..., "name": ...}.
			s = ExtractBestImageURL(v)
		default:
			continue
		}
		if IsHTTPURL(s) {
			dst[key] = s
		}
	}
}

// EvidenceSlot is one evidence entry ready for display.
type EvidenceSlot struct {
	Key   string
	URL   string
	Known bool
}

// EvidenceSlots lists the well-known slots first, in fixed order and
// including missing ones, followed by any extra slots sorted by key.
func EvidenceSlots(evidence map[string]string) []EvidenceSlot {
	slots := make([]EvidenceSlot, 0, len(types.EvidenceKeys)+len(evidence))
	known := make(map[string]struct{}, len(types.EvidenceKeys))
	for _, key := range types.EvidenceKeys {
		known[key] = struct{}{}
		slots = append(slots, EvidenceSlot{Key: key, URL: evidence[key], Known: true})
	}

	extra := make([]string, 0, len(evidence))
	for key := range evidence {
		if _, ok := known[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		slots = append(slots, EvidenceSlot{Key: key, URL: evidence[key]})
	}
	return slots
}
