package markupmsg

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Engine(t *testing.T) {
	cases := []struct {
		name     string
		settings func(*Settings)
		input    string
		want     string
	}{
		{
			name:  "should replace the body of a translated message",
			input: `<h1><wicket:message key="greeting">Hi</wicket:message></h1>`,
			want:  `<h1><wicket:message key="greeting">Hello</wicket:message></h1>`,
		},
		{
			name:  "should keep markup unchanged without a translation",
			input: `<h1><wicket:message key="missing">Hi <b>there</b></wicket:message></h1>`,
			want:  `<h1><wicket:message key="missing">Hi <b>there</b></wicket:message></h1>`,
		},
		{
			name:  "should expand a self-closing message",
			input: `<wicket:message key="greeting"/>`,
			want:  `<wicket:message key="greeting">Hello</wicket:message>`,
		},
		{
			name:  "should keep a self-closing message without a translation",
			input: `<wicket:message key="missing" />`,
			want:  `<wicket:message key="missing" />`,
		},
		{
			name:  "should treat a whitespace-only message as missing",
			input: `<wicket:message key="blank">Hi</wicket:message>`,
			want:  `<wicket:message key="blank">Hi</wicket:message>`,
		},
		{
			name:  "should escape message text",
			input: `<wicket:message key="html"/>`,
			want:  `<wicket:message key="html">a&lt;b&gt;</wicket:message>`,
		},
		{
			name:     "should write message text raw when escaping is off",
			settings: func(s *Settings) { s.EscapeMessages = false },
			input:    `<wicket:message key="html"/>`,
			want:     `<wicket:message key="html">a<b></wicket:message>`,
		},
		{
			name:     "should strip tags around a translated message",
			settings: func(s *Settings) { s.StripTags = true },
			input:    `<p><wicket:message key="greeting">Hi</wicket:message></p>`,
			want:     `<p>Hello</p>`,
		},
		{
			name:     "should strip tags around a self-closing message",
			settings: func(s *Settings) { s.StripTags = true },
			input:    `<p><wicket:message key="greeting"/></p>`,
			want:     `<p>Hello</p>`,
		},
		{
			name:     "should strip tags around an untranslated message",
			settings: func(s *Settings) { s.StripTags = true },
			input:    `<p><wicket:message key="missing">Hi</wicket:message></p>`,
			want:     `<p>Hi</p>`,
		},
		{
			name:  "should resolve messages nested in an untranslated message",
			input: `<wicket:message key="missing">A <wicket:message key="greeting">x</wicket:message> B</wicket:message>`,
			want:  `<wicket:message key="missing">A <wicket:message key="greeting">Hello</wicket:message> B</wicket:message>`,
		},
		{
			name:  "should not resolve messages in a replaced body",
			input: `<wicket:message key="greeting"><wicket:message key="footer">x</wicket:message></wicket:message>`,
			want:  `<wicket:message key="greeting">Hello</wicket:message>`,
		},
		{
			name:     "should leave messages untouched when disabled",
			settings: func(s *Settings) { s.MessagesEnabled = false },
			input:    `<wicket:message key="greeting">Hi</wicket:message>`,
			want:     `<wicket:message key="greeting">Hi</wicket:message>`,
		},
		{
			name:     "should strip disabled messages down to their body",
			settings: func(s *Settings) {
				s.MessagesEnabled = false
				s.StripTags = true
			},
			input: `<wicket:message key="greeting">Hi</wicket:message>`,
			want:  `Hi`,
		},
		{
			name:     "should honour a custom namespace",
			settings: func(s *Settings) { s.Namespace = "w" },
			input:    `<w:message key="greeting"/><wicket:message key="greeting"/>`,
			want:     `<w:message key="greeting">Hello</w:message><wicket:message key="greeting"/>`,
		},
		{
			name:  "should leave text, comments and html alone",
			input: "<!DOCTYPE html>\n<!-- <wicket:message key=\"greeting\"/> -->\n<p class='x'>a < b</p>",
			want:  "<!DOCTYPE html>\n<!-- <wicket:message key=\"greeting\"/> -->\n<p class='x'>a < b</p>",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			if tc.settings != nil {
				tc.settings(&s)
			}
			out := renderString(t, newTestEngine(WithSettings(s)), tc.input)
			assert.Equal(t, tc.want, out)
		})
	}
}

func Test_Page_Should_Render_The_Same_Every_Time(t *testing.T) {
	input := `<div><wicket:message key="greeting"/><wicket:message key="missing">Hi</wicket:message>` +
		`<wicket:message key="footer">x</wicket:message></div>`
	p := newTestPage(t, newTestEngine(), input)

	var first, second bytes.Buffer
	require.NoError(t, p.Render(&first))
	require.NoError(t, p.Render(&second))
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, `<div><wicket:message key="greeting">Hello</wicket:message>`+
		`<wicket:message key="missing">Hi</wicket:message>`+
		`<wicket:message key="footer">Bye</wicket:message></div>`, first.String())
	assert.Len(t, p.Root().Children(), 3)
}

func Test_Page_Should_Not_Modify_Shared_Markup(t *testing.T) {
	en := newTestEngine()
	m, err := en.Parse(strings.NewReader(`<wicket:message key="greeting"/>`))
	require.NoError(t, err)

	var a, b bytes.Buffer
	require.NoError(t, en.NewPage("a", m, testLocale).Render(&a))
	require.NoError(t, en.NewPage("b", m, testLocale).Render(&b))

	assert.Equal(t, a.String(), b.String())
	tag := m.Node(0).Tag
	assert.Equal(t, TagOpenClose, tag.Type)
	assert.Equal(t, `<wicket:message key="greeting"/>`, tag.Markup())
}

func Test_Page_Should_Fail_To_Render_A_Malformed_Message(t *testing.T) {
	var sb strings.Builder
	err := newTestEngine().ProcessStream(strings.NewReader(`<p><wicket:message>Hi</wicket:message></p>`), &sb, testLocale)

	var malformed *MalformedTagError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, Position{Line: 1, Column: 4}, malformed.Pos)
	assert.Empty(t, sb.String())
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("disk full")
	}
	w.n--
	return len(p), nil
}

func Test_Page_Should_Report_Write_Errors(t *testing.T) {
	p := newTestPage(t, newTestEngine(), `<p><wicket:message key="greeting">Hi</wicket:message></p>`)
	err := p.Render(&failingWriter{n: 1})
	assert.ErrorContains(t, err, "disk full")
}

func Test_Engine_Unknown_Tag_Policies(t *testing.T) {
	input := `<div><wicket:panel>A <wicket:message key="greeting"/></wicket:panel></div>`

	t.Run("should pass unknown tags through and resolve inside them", func(t *testing.T) {
		out := renderString(t, newTestEngine(), input)
		assert.Equal(t, `<div><wicket:panel>A <wicket:message key="greeting">Hello</wicket:message></wicket:panel></div>`, out)
	})

	t.Run("should strip unknown tags but keep their body", func(t *testing.T) {
		out := renderString(t, newTestEngine(WithSettings(stripSettings())), input)
		assert.Equal(t, `<div>A Hello</div>`, out)
	})

	t.Run("should drop unknown tags with their body", func(t *testing.T) {
		metrics := NewMetrics(nil)
		en := newTestEngine(WithUnknownPolicy(UnknownDrop), WithMetrics(metrics))
		out := renderString(t, en, input+`<wicket:child/>`)
		assert.Equal(t, `<div></div>`, out)
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.UnknownTags.WithLabelValues("drop")))
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Resolutions.WithLabelValues(OutcomeTranslated)))
	})

	t.Run("should fail on unknown tags when strict", func(t *testing.T) {
		var sb strings.Builder
		err := newTestEngine(WithUnknownPolicy(UnknownStrict)).
			ProcessStream(strings.NewReader(input), &sb, testLocale)

		var unresolved *UnresolvedTagError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "wicket:panel", unresolved.TagName)
		assert.Equal(t, Position{Line: 1, Column: 6}, unresolved.Pos)
		assert.Empty(t, sb.String())
	})

	t.Run("should warn about unknown tags when auditing", func(t *testing.T) {
		var logs bytes.Buffer
		metrics := NewMetrics(nil)
		en := newTestEngine(
			WithUnknownPolicy(UnknownAudit),
			WithLogger(zerolog.New(&logs)),
			WithMetrics(metrics),
		)
		out := renderString(t, en, input)
		assert.Contains(t, out, `<wicket:panel>`)
		assert.Contains(t, logs.String(), `"tag":"wicket:panel"`)
		assert.Contains(t, logs.String(), `"level":"warn"`)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UnknownTags.WithLabelValues("audit")))
	})
}

func Test_Engine_Should_Translate_Messages_Around_Inline_Scripts(t *testing.T) {
	input := `<script>if (a<b) return;</script><p>x < y's ok</p><wicket:message key="greeting"/>`
	out := renderString(t, newTestEngine(), input)
	assert.Equal(t, `<script>if (a<b) return;</script><p>x < y's ok</p>`+
		`<wicket:message key="greeting">Hello</wicket:message>`, out)
}
