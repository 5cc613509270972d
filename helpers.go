package textbulker

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// FilterEmpty trims values and removes empty ones.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PluginSet is a plugin detector backed by a fixed list of active plugin files.
type PluginSet map[string]struct{}

// NewPluginSet builds a PluginSet from plugin file names.
func NewPluginSet(files []string) PluginSet {
	set := make(PluginSet, len(files))
	for _, f := range FilterEmpty(files) {
		set[f] = struct{}{}
	}
	return set
}

// IsPluginActive reports whether file is in the set.
func (p PluginSet) IsPluginActive(file string) bool {
	_, ok := p[file]
	return ok
}

// RenderMarkdown converts post content to HTML. Raw HTML in the source is
// not passed through.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
