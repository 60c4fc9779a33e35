// Package registry provides the name-keyed catalogues behind submodule resolution:
// an immutable Catalog built once per module and a concurrent Registry used for
// process-wide plugin registration.
package registry

import "strings"

// WildcardSuffix marks a name pattern as a prefix match.
const WildcardSuffix = "*"

// IsWildcard reports whether pattern ends with the wildcard suffix.
func IsWildcard(pattern string) bool {
	return strings.HasSuffix(pattern, WildcardSuffix)
}

// MatchPrefix returns the names sharing the prefix before the trailing "*",
// preserving the order of names. Matching is case-sensitive and there is no
// glob engine: "*" is only meaningful as the last character.
func MatchPrefix(names []string, pattern string) []string {
	prefix := strings.TrimSuffix(pattern, WildcardSuffix)
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matched = append(matched, name)
		}
	}
	return matched
}
