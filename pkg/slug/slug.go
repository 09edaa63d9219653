// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

var strip = regexp.MustCompile(`[^a-z0-9]+`)

func Make(name string) string {
	s := strings.ToLower(name)
	s = strip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
