package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/listenup-onboarding/internal/errors"
	"github.com/listenupapp/listenup-onboarding/internal/validation"
)

type toggleRequest struct {
	Category string `json:"category" validate:"required,category"`
	ID       string `json:"id" validate:"required,catalog_id"`
}

type choiceRequest struct {
	Field string `json:"field" validate:"required,field"`
	Value string `json:"value,omitempty" validate:"omitempty,catalog_id"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(toggleRequest{Category: "moods", ID: "cozy"}))
	assert.NoError(t, v.Validate(choiceRequest{Field: "reading_pace", Value: "slow"}))
	assert.NoError(t, v.Validate(choiceRequest{Field: "reading_pace"}), "empty value clears a choice")
}

func TestValidator_CatalogIDAcceptsOpaqueIDs(t *testing.T) {
	v := validation.New()

	for _, id := range []string{
		"genre.fantasy",
		"urn:listenup:genre:7",
		"fiction/horror",
		"ciência-ficção",
		"楽しい",
		"so cozy",
		"V1StGXR8_Z5jdHi6B-myT",
		strings.Repeat("x", 128),
	} {
		t.Run(id, func(t *testing.T) {
			assert.NoError(t, v.Validate(toggleRequest{Category: "genres", ID: id}))
		})
	}
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{"missing id", toggleRequest{Category: "moods"}, "id", "is required"},
		{"unknown category", toggleRequest{Category: "colors", ID: "red"}, "category", "must be one of"},
		{"id with edge space", toggleRequest{Category: "moods", ID: " cozy"}, "id", "catalog id"},
		{"id with control char", toggleRequest{Category: "moods", ID: "co\x00zy"}, "id", "catalog id"},
		{"id too long", toggleRequest{Category: "moods", ID: strings.Repeat("ü", 129)}, "id", "catalog id"},
		{"unknown field", choiceRequest{Field: "volume"}, "field", "reading_pace"},
		{"bad value", choiceRequest{Field: "reading_pace", Value: "slow\n"}, "value", "catalog id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details[tt.wantField], tt.wantMsg)
		})
	}
}

func TestValidator_NonStructPassesThrough(t *testing.T) {
	err := validation.New().Validate("not a struct")
	require.Error(t, err)

	var domainErr *domainerrors.Error
	assert.False(t, domainerrors.As(err, &domainErr))
}
