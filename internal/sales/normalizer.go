package sales

import "strings"

// NormalizeName canonicalizes a free-text product label by trimming
// whitespace and stripping the "TMB " brand prefix when present.
// Idempotent: normalizing an already-normalized name is a no-op.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 4 && strings.EqualFold(name[:4], "TMB ") {
		name = name[4:]
	}
	return strings.TrimSpace(name)
}
