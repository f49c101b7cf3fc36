package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"LitRPG", "litrpg"},
		{"Sci-Fi/Fantasy", "sci-fi-fantasy"},
		{"Sword & Sorcery", "sword-and-sorcery"},
		{"Café Noir", "cafe-noir"},
		{"  --Leading and trailing--  ", "leading-and-trailing"},
		{"🐉 Dragons!", "dragons"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestDefaultCatalog_IDsUniqueAndSlugged(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range DefaultCatalog {
		id := s.ID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.Equal(t, Slugify(id), id, "id %q is not a slug", id)
		assert.NotEmpty(t, s.Subgenres, "genre %s has no subgenres", id)
	}
}

func TestAliases_PointAtCatalog(t *testing.T) {
	for alias, id := range Aliases {
		_, ok := Lookup(id)
		assert.True(t, ok, "alias %s points at unknown genre %s", alias, id)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"fantasy", "fantasy", true},
		{"Science Fiction", "science-fiction", true},
		{"sci-fi", "science-fiction", true},
		{"Cozy Mystery", "mystery-thriller", true},
		{"YA", "young-adult", true},
		{"poetry", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Resolve(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
