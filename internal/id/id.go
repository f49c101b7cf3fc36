// Package id generates prefixed NanoID identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifiers this service mints.
const (
	PrefixSession    = "onb"
	PrefixSubmission = "sub"
)

const nanoidLength = 21

// Generate creates an id of the form prefix-nanoid
// (e.g. "onb-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewSession returns a wizard session id.
func NewSession() (string, error) {
	return Generate(PrefixSession)
}

// NewSubmission returns a journal submission id.
func NewSubmission() (string, error) {
	return Generate(PrefixSubmission)
}

// HasPrefix reports whether s looks like an id minted with prefix.
func HasPrefix(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	return ok && len(rest) == nanoidLength
}
