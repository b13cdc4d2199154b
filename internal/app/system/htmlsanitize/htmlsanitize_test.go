package htmlsanitize

import (
	"strings"
	"testing"
)

func TestBody_StripsScripts(t *testing.T) {
	in := `<p>Welcome</p><script>alert("x")</script>`
	out := Body(in)
	if strings.Contains(out, "<script") {
		t.Errorf("Body left a script tag in %q", out)
	}
	if !strings.Contains(out, "<p>Welcome</p>") {
		t.Errorf("Body dropped benign markup: %q", out)
	}
}

func TestBody_StripsEventHandlers(t *testing.T) {
	out := Body(`<a href="https://example.edu" onclick="steal()">link</a>`)
	if strings.Contains(out, "onclick") {
		t.Errorf("Body left an event handler in %q", out)
	}
	if !strings.Contains(out, "example.edu") {
		t.Errorf("Body dropped a safe href: %q", out)
	}
}

func TestBody_PlainTextUnchanged(t *testing.T) {
	if got := Body("just words"); got != "just words" {
		t.Errorf("Body(%q) = %q", "just words", got)
	}
}
