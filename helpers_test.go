package markupmsg

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// mapLocalizer serves messages from a map regardless of locale.
type mapLocalizer map[string]string

func (m mapLocalizer) GetString(key string, _ Scope, defaultValue string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return defaultValue
}

var testLocale = language.English

var testMessages = mapLocalizer{
	"greeting": "Hello",
	"footer":   "Bye",
	"blank":    "   ",
	"html":     "a<b>",
}

func newTestEngine(opts ...func(*Engine)) *Engine {
	return NewEngine(nil, append([]func(*Engine){WithLocalizer(testMessages)}, opts...)...)
}

func stripSettings() Settings {
	s := DefaultSettings()
	s.StripTags = true
	return s
}

func renderString(t *testing.T, e *Engine, input string) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, e.ProcessStream(strings.NewReader(input), &sb, testLocale))
	return sb.String()
}

func newTestPage(t *testing.T, e *Engine, input string) *Page {
	t.Helper()
	m, err := e.Parse(strings.NewReader(input))
	require.NoError(t, err)
	return e.NewPage("test", m, testLocale)
}

// cursorAtFirstTag prepares p as the resolve walk would and returns the
// stream positioned at the first tag.
func cursorAtFirstTag(t *testing.T, p *Page) (*MarkupStream, *Tag) {
	t.Helper()
	s := NewMarkupStream(p.Markup())
	for s.HasMore() && s.Current().Kind != NodeTag {
		s.Next()
	}
	require.True(t, s.HasMore(), "markup has no tag")
	p.cursor = s
	return s, s.Tag()
}

type chunkedReader struct {
	data  []byte
	pos   int
	chunk int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(c.data)-c.pos {
		n = len(c.data) - c.pos
	}
	copy(p, c.data[c.pos:c.pos+n])
	c.pos += n
	return n, nil
}
