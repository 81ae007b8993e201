// Package promotion implements the promotion orchestrator: it resolves a tag
// pair, gates real runs behind approval, promotes every selected artifact on a
// bounded worker pool and aggregates the per-artifact results.
package promotion

import (
	"strings"
)

// SelectAll is the selector that expands to the canonical artifact list.
const SelectAll = "all"

// DefaultArtifacts is the canonical list used when configuration names none.
var DefaultArtifacts = []string{"appmw", "cardui", "gateway", "batchsvc"}

// ArtifactRef names one promotable image.
type ArtifactRef struct {
	Name string
}

func (a ArtifactRef) String() string { return a.Name }

// ExpandSelection turns the operator's raw selection into unique artifact refs.
// The single entry "all" expands to canonical; "all" mixed with explicit names
// is rejected.
func ExpandSelection(selection, canonical []string) ([]ArtifactRef, error) {
	names := make([]string, 0, len(selection))
	for _, s := range selection {
		names = append(names, strings.TrimSpace(s))
	}
	if len(names) == 0 {
		return nil, missingField("artifacts")
	}

	hasAll := false
	for _, n := range names {
		if strings.EqualFold(n, SelectAll) {
			hasAll = true
			break
		}
	}
	if hasAll {
		if len(names) > 1 {
			return nil, invalidSelection("%q cannot be combined with explicit artifact names", SelectAll)
		}
		if len(canonical) == 0 {
			return nil, invalidSelection("canonical artifact list is empty")
		}
		names = names[:0]
		for _, c := range canonical {
			names = append(names, strings.TrimSpace(c))
		}
	}

	refs := make([]ArtifactRef, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return nil, invalidSelection("empty artifact name")
		}
		if _, dup := seen[n]; dup {
			return nil, invalidSelection("duplicate artifact %q", n)
		}
		seen[n] = struct{}{}
		refs = append(refs, ArtifactRef{Name: n})
	}
	return refs, nil
}

// ParseSelection splits a comma separated selection as given on the command line.
func ParseSelection(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// Names returns the artifact names in order.
func Names(refs []ArtifactRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}
