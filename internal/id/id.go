// Package id generates the prefixed record identifiers used by every model.
package id

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each record type.
const (
	PrefixUser      = "usr"
	PrefixCommunity = "com"
	PrefixPin       = "pin"
	PrefixComment   = "cmt"
	PrefixImage     = "img"
)

// Size of the random part of an id.
const Size = 21

var pattern = regexp.MustCompile(`^[a-z]{2,8}-[A-Za-z0-9_-]{21}$`)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "pin-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New(Size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Valid reports whether s has the shape of a generated id. It does not check
// that the record exists.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
