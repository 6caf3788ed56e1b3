// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"strconv"
	"strings"
	"unicode"
)

// MakeSlug derives a URL-safe base slug from a title: lowercase,
// alphanumeric and spaces only, runs of spaces collapsed to a dash
func MakeSlug(title string) string {
	var b strings.Builder

	lastSpace := true // Leading spaces are dropped
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte('-')
				lastSpace = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// MakeNumberedSlug renders the full slug. The first artwork with a given
// title keeps the clean slug, later ones get a _N suffix
func MakeNumberedSlug(slug string, slugNum int) string {
	if slugNum == 1 {
		return slug
	}
	return slug + "_" + strconv.Itoa(slugNum)
}

// ParseNumberedSlug splits a full slug on its trailing _N token.
// No trailing number means slug_num 1
func ParseNumberedSlug(full string) (slug string, slugNum int) {
	i := strings.LastIndex(full, "_")
	if i < 0 {
		return full, 1
	}

	n, err := strconv.Atoi(full[i+1:])
	if err != nil || n < 1 {
		return full, 1
	}

	return full[:i], n
}
