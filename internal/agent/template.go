package agent

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// StateKeys are the placeholders a prompt template may reference. The
// previous agent's payload is exposed as {output}; the dataset item's text
// as {input}.
var StateKeys = []string{"input", "output"}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Placeholders returns the distinct placeholder names in template order.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

// ValidateTemplate checks that every placeholder refers to an allowed state
// key. Templates are validated once per workflow, never per call.
func ValidateTemplate(template string, allowed []string) error {
	allowedSet := make(map[string]bool, len(allowed))
	for _, key := range allowed {
		allowedSet[key] = true
	}
	for _, name := range Placeholders(template) {
		if !allowedSet[name] {
			return errors.Errorf("template references unknown state key %q", name)
		}
	}
	return nil
}

// Render substitutes state values into the template's placeholders.
func Render(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}
