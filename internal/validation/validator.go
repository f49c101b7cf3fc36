// Package validation provides HTTP request validation utilities using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/listenupapp/listenup-onboarding/internal/errors"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
)

// maxCatalogIDLen bounds option, genre and book ids, in runes.
const maxCatalogIDLen = 128

// validCatalogID accepts any opaque id the backend might hand out. Whether
// the id names a known option is decided by the wizard, not here.
func validCatalogID(id string) bool {
	if id == "" || id != strings.TrimSpace(id) || !utf8.ValidString(id) {
		return false
	}
	if utf8.RuneCountInString(id) > maxCatalogIDLen {
		return false
	}
	return strings.IndexFunc(id, unicode.IsControl) < 0
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that knows the onboarding tags:
//
//	catalog_id   opaque id, at most 128 runes, no control or edge whitespace
//	category     one of onboarding.Categories
//	field        one of onboarding.Fields
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("catalog_id", func(fl validator.FieldLevel) bool {
		return validCatalogID(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		c := onboarding.Category(fl.Field().String())
		for _, known := range onboarding.Categories {
			if c == known {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("field", func(fl validator.FieldLevel) bool {
		f := onboarding.Field(fl.Field().String())
		for _, known := range onboarding.Fields {
			if f == known {
				return true
			}
		}
		return false
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "catalog_id":
		return fmt.Sprintf("must be a catalog id (1-%d characters, no control characters or surrounding spaces)", maxCatalogIDLen)
	case "category":
		return "must be one of: " + joinStrings(onboarding.Categories)
	case "field":
		return "must be one of: " + joinStrings(onboarding.Fields)
	default:
		return "is invalid"
	}
}

func joinStrings[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, " ")
}
