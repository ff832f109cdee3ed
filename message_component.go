package markupmsg

// MessageComponent replaces the body of a message tag with resolved text.
// The message tag may be written self-closing or with a body; both render as
// open tag, text, close tag.
type MessageComponent struct {
	id       string
	text     string
	bodyOnly bool
}

// NewMessageComponent returns a component rendering text in place of the
// tag body. renderBodyOnly cannot be changed later.
func NewMessageComponent(id, text string, renderBodyOnly bool) *MessageComponent {
	return &MessageComponent{id: id, text: text, bodyOnly: renderBodyOnly}
}

func (m *MessageComponent) ID() string           { return m.id }
func (m *MessageComponent) Text() string         { return m.text }
func (m *MessageComponent) RenderBodyOnly() bool { return m.bodyOnly }

// Render implements Component.
func (m *MessageComponent) Render(rc *RenderContext) error {
	return m.strategy(rc.Stream).render(m, rc)
}

// strategy picks how to render from the tag under the cursor; it is chosen
// again on every render.
func (m *MessageComponent) strategy(s *MarkupStream) renderStrategy {
	if s.AtOpenTag() {
		return replaceBody{}
	}
	return synthesizeBody{}
}

type renderStrategy interface {
	render(m *MessageComponent, rc *RenderContext) error
}

// replaceBody renders <tag>text</tag> using the real open and close tags and
// discards the body written in the source.
type replaceBody struct{}

func (replaceBody) render(m *MessageComponent, rc *RenderContext) error {
	s := rc.Stream
	if !m.bodyOnly {
		rc.Write(s.Tag().Markup())
	}
	rc.WriteText(m.text)

	s.SkipToMatchingClose()
	if !m.bodyOnly {
		rc.Write(s.Tag().Markup())
	}
	s.Next()
	return rc.Err()
}

// synthesizeBody expands an open-close tag: the tag is reopened as a plain
// open tag and a close tag is generated, since none exists in the source.
type synthesizeBody struct{}

func (synthesizeBody) render(m *MessageComponent, rc *RenderContext) error {
	s := rc.Stream
	open := s.Tag().WithType(TagOpen)
	if !m.bodyOnly {
		rc.Write(open.Markup())
	}
	rc.WriteText(m.text)
	if !m.bodyOnly {
		rc.Write(open.SyntheticCloseTag())
	}

	s.SkipComponent()
	return rc.Err()
}
