// Package sanitizer cleans user-supplied rich text before it is stored,
// so election and candidate descriptions cannot carry scripts.
package sanitizer

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer applies an HTML sanitization policy to user content
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New creates a sanitizer based on the UGC policy with a pre-pass that
// strips script blocks and inline event handlers.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

var (
	scriptRegex       = regexp.MustCompile(`(?i)<script[^>]*>[\s\S]*?</script>`)
	eventHandlerRegex = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
)

// Sanitize returns the input with disallowed markup removed
func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}
	out := scriptRegex.ReplaceAllString(input, "")
	out = eventHandlerRegex.ReplaceAllString(out, "")
	return s.policy.Sanitize(out)
}

// SanitizePtr sanitizes an optional field in place, leaving nil untouched
func (s *Sanitizer) SanitizePtr(input *string) *string {
	if input == nil {
		return nil
	}
	clean := s.Sanitize(*input)
	return &clean
}
