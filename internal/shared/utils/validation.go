// Package utils holds small validation helpers shared across layers.
package utils

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// MaxNameLength bounds automation names. Names become file names, so
// they stay short.
const MaxNameLength = 128

// namePattern allows alphanumeric, spaces, hyphens, underscores, and
// dots. Path separators and control characters are excluded because
// names are used verbatim as file names.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9 ._-]+$`)

// ValidateAutomationName rejects names that are empty, too long, or
// unsafe to use as a file name.
func ValidateAutomationName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name is not valid UTF-8")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name exceeds %d characters", MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name may only contain letters, digits, spaces, '.', '_', and '-'")
	}
	return nil
}
