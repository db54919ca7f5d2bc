// Package tenant maps externally supplied tenant identifiers onto the
// canonical values stored in the index payloads.
package tenant

// Normalizer resolves tenant id aliases to their canonical form. The mapping
// is explicit configuration rather than inline special cases, so alias
// behavior is visible and testable.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a Normalizer from an alias map. A nil map yields a
// pass-through normalizer.
func NewNormalizer(aliases map[string]string) *Normalizer {
	copied := make(map[string]string, len(aliases))
	for k, v := range aliases {
		copied[k] = v
	}
	return &Normalizer{aliases: copied}
}

// Normalize returns the canonical tenant id for the given value. Unmapped
// ids pass through unchanged.
func (n *Normalizer) Normalize(tenantID string) string {
	if canonical, ok := n.aliases[tenantID]; ok {
		return canonical
	}
	return tenantID
}
