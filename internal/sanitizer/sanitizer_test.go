package sanitizer

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScripts(t *testing.T) {
	s := New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Vote for your candidate",
			want:  "Vote for your candidate",
		},
		{
			name:  "script block removed",
			input: `Before<script>alert("x")</script>After`,
			want:  "BeforeAfter",
		},
		{
			name:  "case insensitive script",
			input: `<SCRIPT src="evil.js"></SCRIPT>text`,
			want:  "text",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "allowed formatting kept",
			input: "<p>A <strong>bold</strong> claim</p>",
			want:  "<p>A <strong>bold</strong> claim</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeStripsEventHandlers(t *testing.T) {
	s := New()

	got := s.Sanitize(`<p onclick="steal()">hello</p>`)
	if strings.Contains(got, "onclick") || strings.Contains(got, "steal") {
		t.Errorf("event handler survived sanitization: %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Errorf("text content lost: %q", got)
	}
}

func TestSanitizePtr(t *testing.T) {
	s := New()

	if s.SanitizePtr(nil) != nil {
		t.Error("nil input should stay nil")
	}

	dirty := `text<script>x</script>`
	clean := s.SanitizePtr(&dirty)
	if clean == nil || *clean != "text" {
		t.Errorf("SanitizePtr = %v, want text", clean)
	}
	if dirty != `text<script>x</script>` {
		t.Error("input string mutated in place")
	}
}
