package utils

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var dashes = regexp.MustCompile(`-{2,}`)

// Slugify derives a lowercase, hyphen-separated slug from free text.
func Slugify(s string) string {
	out := strings.ReplaceAll(slug.Make(s), "_", "-")
	out = dashes.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}
