package tenant

import (
	"regexp"
	"strings"
)

const namespacePrefix = "tenant_"

// Postgres identifiers cap at 63 bytes.
const maxNamespaceLen = 63

var namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NamespaceFromDomain derives the tenant's storage namespace from its domain:
// lowercased, every non-alphanumeric rune collapsed to an underscore, with a
// fixed prefix. The derivation is deterministic so the same domain always
// maps to the same namespace.
func NamespaceFromDomain(domain string) string {
	var b strings.Builder
	b.WriteString(namespacePrefix)

	prev := '_'
	for _, r := range strings.ToLower(domain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prev = r
		} else if prev != '_' {
			b.WriteRune('_')
			prev = '_'
		}
	}

	ns := strings.TrimRight(b.String(), "_")
	if len(ns) > maxNamespaceLen {
		ns = ns[:maxNamespaceLen]
	}
	return ns
}

// ValidNamespace reports whether ns is safe to interpolate as a schema name.
func ValidNamespace(ns string) bool {
	return len(ns) > len(namespacePrefix) &&
		len(ns) <= maxNamespaceLen &&
		strings.HasPrefix(ns, namespacePrefix) &&
		namespacePattern.MatchString(ns)
}
