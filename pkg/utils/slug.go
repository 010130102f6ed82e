package utils

import (
	"regexp"
	"strings"
)

// Slugify sanitizes a string for filesystem use. Uploaded export
// filenames pass through here before being stored, so path separators
// and shell metacharacters never reach the upload directory.
func Slugify(s string) string {
	// Convert to lowercase
	s = strings.ToLower(s)
	// Replace non-alphanumeric characters with hyphens
	reg := regexp.MustCompile("[^a-z0-9]+")
	s = reg.ReplaceAllString(s, "-")
	// Trim hyphens from start and end
	s = strings.Trim(s, "-")
	return s
}
