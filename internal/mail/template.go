package mail

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render substitutes {variable}-style placeholders in a stored template.
// Placeholders with no matching variable are replaced with an empty
// string rather than left literal in the delivered mail.
func Render(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		return vars[name]
	})
}
