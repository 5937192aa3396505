package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_RemovesScript(t *testing.T) {
	out := HTML("<p>Hello</p><script>alert(1)</script>")

	if !strings.Contains(out, "Hello") {
		t.Errorf("Expected sanitized output to keep text, got %q", out)
	}
	if strings.Contains(out, "<script") || strings.Contains(out, "alert") {
		t.Errorf("Expected script to be removed, got %q", out)
	}
}

func TestHTML_RemovesJavascriptLinks(t *testing.T) {
	out := HTML(`<a href="javascript:alert(1)">x</a>`)

	if strings.Contains(out, "javascript:") {
		t.Errorf("Expected javascript: href to be dropped, got %q", out)
	}
}

func TestHTML_RemovesEventHandlers(t *testing.T) {
	out := HTML(`<img src="https://example.com/a.png" onerror="alert(1)">`)

	if strings.Contains(out, "onerror") {
		t.Errorf("Expected onerror attribute to be dropped, got %q", out)
	}
}

func TestHTML_KeepsAllowedMarkup(t *testing.T) {
	in := `<h2>Title</h2><ul><li><strong>bold</strong></li></ul><a href="https://example.com" rel="noopener">link</a>`
	out := HTML(in)

	for _, want := range []string{"<h2>", "<ul>", "<li>", "<strong>", "href=\"https://example.com\""} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q to survive sanitization, got %q", want, out)
		}
	}
}

func TestHTML_Empty(t *testing.T) {
	if out := HTML(""); out != "" {
		t.Errorf("Expected empty string, got %q", out)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Nested Tags", "<div><h1>T</h1><p>P</p></div>", "TP"},
		{"Entities", "a &amp; b &lt;c&gt;", "a & b <c>"},
		{"Nbsp And Trim", "  <p>&nbsp;hello&nbsp;</p>  ", "hello"},
		{"Empty", "", ""},
		{"Plain Text", "no markup here", "no markup here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.expected {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestSafeDescription_Truncates(t *testing.T) {
	long := "<p>" + strings.Repeat("word and more ", 30) + "</p>"

	out := SafeDescription(long, 20)

	if len(out) > 23 {
		t.Errorf("Expected at most 23 chars, got %d: %q", len(out), out)
	}
	if !strings.HasSuffix(out, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", out)
	}
}

func TestSafeDescription_ShortTextUnchanged(t *testing.T) {
	out := SafeDescription("<p>short text</p>", 200)

	if out != "short text" {
		t.Errorf("Expected unchanged text, got %q", out)
	}
	if strings.HasSuffix(out, "...") {
		t.Error("Short text should not gain an ellipsis")
	}
}

func TestSafeDescription_DefaultLength(t *testing.T) {
	long := strings.Repeat("a", 300)

	out := SafeDescription(long, 0)

	if len(out) != 203 {
		t.Errorf("Expected 200 chars plus ellipsis, got %d", len(out))
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"HTTPS", "https://example.com", "https://example.com/"},
		{"HTTP With Path", "http://example.com/a/b?c=d", "http://example.com/a/b?c=d"},
		{"Javascript", "javascript:alert(1)", ""},
		{"Data", "data:text/html,x", ""},
		{"File", "file:///etc/passwd", ""},
		{"Relative", "/just/a/path", ""},
		{"Garbage", "http://%zz", ""},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URL(tt.in); got != tt.expected {
				t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}
