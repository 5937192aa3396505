package sanitize

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Tags allowed in externally sourced HTML (item content, ingest payloads).
var allowedTags = []string{
	"p", "br", "strong", "b", "em", "i", "u", "s", "strike",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li",
	"a",
	"code", "pre",
	"blockquote",
	"hr",
	"span", "div",
	"img",
}

var allowedAttrs = []string{
	"href", "title", "class", "id", "target", "rel",
	"src", "alt", "width", "height",
}

var (
	contentPolicy = newContentPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	p.AllowAttrs(allowedAttrs...).Globally()
	// Dropping URL schemes other than http/https kills javascript: and data: links.
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return p
}

// HTML filters untrusted markup down to the allow-listed tags and attributes.
// Script, style, iframe, object, embed, form and input are removed together
// with their content; event-handler and data-* attributes never survive.
func HTML(html string) string {
	if html == "" {
		return ""
	}
	return contentPolicy.Sanitize(html)
}

// StripHTML removes all tags and decodes the common entities, returning
// trimmed plain text.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	text := strictPolicy.Sanitize(html)

	for _, pair := range [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", "\""},
		{"&#34;", "\""},
		{"&#39;", "'"},
	} {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}

	return strings.TrimSpace(text)
}

// SafeDescription strips markup and truncates to maxLength, breaking on a
// word boundary when one falls in the last fifth of the budget. A maxLength
// of zero or less means the default of 200.
func SafeDescription(html string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 200
	}

	plain := StripHTML(html)
	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}

	truncated := string(runes[:maxLength])
	lastSpace := strings.LastIndexByte(truncated, ' ')

	if float64(lastSpace) > float64(maxLength)*0.8 {
		return truncated[:lastSpace] + "..."
	}
	return truncated + "..."
}

// URL validates an absolute http(s) URL and returns its normalized form.
// Anything else, including javascript:, data: and file: URLs, comes back
// as the empty string.
func URL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String()
}
