package importer

import "strings"

// Slug converts a display name or filename stem to a stable kebab-case
// identifier matching the content store's naming convention.
//
// Postcondition: result is lowercase, contains only [a-z0-9-], and is
// idempotent (Slug(Slug(s)) == Slug(s)).
func Slug(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	var b strings.Builder
	for _, r := range s {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
