package onboarding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_Welcome(t *testing.T) {
	v := NewState(DefaultLimits()).View()

	assert.Equal(t, StepWelcome, v.Step)
	assert.Equal(t, 0, v.Ordinal)
	assert.Equal(t, TotalSteps, v.TotalSteps)
	assert.Empty(t, v.Pending)
	assert.NotNil(t, v.Catalog)
	assert.Nil(t, v.Books)
	assert.Len(t, v.Selected, len(Categories))
	assert.False(t, v.Choices[FieldPace].IsSet())
}

func TestView_BooksPage(t *testing.T) {
	f := newFakeBackend()
	s := atBooks(t, f, "mystery", "fantasy")
	s = reduceAll(t, s, Toggle{Category: CategoryBook, ID: "fantasy-2"})

	v := s.View()
	require.NotNil(t, v.Books)
	assert.Equal(t, "fantasy", v.Books.GenreID)
	assert.Equal(t, "Fantasy", v.Books.GenreName)
	assert.Equal(t, 0, v.Books.Index)
	assert.Equal(t, 2, v.Books.Count)
	assert.Len(t, v.Books.Candidates, 3)
	assert.Equal(t, []string{"fantasy-2"}, v.Books.Selected)
	assert.Equal(t, []string{"fantasy", "mystery"}, v.Selected[CategoryGenre])
}

func TestView_JSONShape(t *testing.T) {
	s := atGenre(t, newFakeBackend())

	data, err := json.Marshal(s.View())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "genre", raw["step"])
	assert.Equal(t, true, raw["catalog_loaded"])
	choices := raw["choices"].(map[string]any)
	assert.Nil(t, choices["reading_pace"])
	assert.NotContains(t, raw, "books")
}
