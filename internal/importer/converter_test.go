package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "middle-east", Slug("Middle East"))
	assert.Equal(t, "second-win", Slug("second_win"))
	assert.Equal(t, "fortifications", Slug("Fortifications!"))
	assert.Equal(t, "board-2", Slug("  Board 2  "))
	assert.Equal(t, "", Slug("!!!"))
}

// Property: Slug is idempotent.
func TestPropertySlugIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[ -~]{0,40}`).Draw(t, "name")
		once := Slug(name)
		assert.Equal(t, once, Slug(once))
	})
}

// Property: Slug output contains only [a-z0-9-].
func TestPropertySlugAlphabet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[ -~]{0,40}`).Draw(t, "name")
		for _, r := range Slug(name) {
			ok := r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			if !ok {
				t.Fatalf("Slug(%q) produced invalid rune %q", name, r)
			}
		}
	})
}
