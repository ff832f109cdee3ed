package markupmsg

// NodeKind discriminates the nodes of a parsed template.
type NodeKind int

const (
	NodeText NodeKind = iota // raw text, comments and doctype
	NodeTag
)

// Node is one element of a parsed template: either a run of text or a tag.
type Node struct {
	Kind NodeKind
	Text string
	Tag  *Tag
	// Match is the index of the close tag paired with an open tag, or of the
	// open tag paired with a close tag. -1 when unpaired.
	Match int
}

// Markup is an immutable parsed template. It is safe to share between
// goroutines; each render walks it with its own MarkupStream.
type Markup struct {
	nodes  []Node
	source string
}

// Len returns the number of nodes.
func (m *Markup) Len() int { return len(m.nodes) }

// Node returns the node at index i.
func (m *Markup) Node(i int) Node { return m.nodes[i] }

// Source returns the template text the markup was parsed from.
func (m *Markup) Source() string { return m.source }

// MarkupStream is a cursor over a Markup.
type MarkupStream struct {
	markup *Markup
	pos    int
}

// NewMarkupStream returns a stream positioned at the first node of m.
func NewMarkupStream(m *Markup) *MarkupStream {
	return &MarkupStream{markup: m}
}

// Markup returns the markup being walked.
func (s *MarkupStream) Markup() *Markup { return s.markup }

// Index returns the current position.
func (s *MarkupStream) Index() int { return s.pos }

// SetIndex moves the cursor to i.
func (s *MarkupStream) SetIndex(i int) { s.pos = i }

// HasMore reports whether the cursor is on a node.
func (s *MarkupStream) HasMore() bool { return s.pos < len(s.markup.nodes) }

// Current returns the node under the cursor.
func (s *MarkupStream) Current() Node { return s.markup.nodes[s.pos] }

// Next advances the cursor by one node.
func (s *MarkupStream) Next() { s.pos++ }

// Tag returns the tag under the cursor, or nil when the cursor is on text or
// past the end.
func (s *MarkupStream) Tag() *Tag {
	if !s.HasMore() {
		return nil
	}
	return s.markup.nodes[s.pos].Tag
}

// AtOpenTag reports whether the cursor is on an open tag with a matching
// close tag, i.e. a tag that has a body.
func (s *MarkupStream) AtOpenTag() bool {
	if !s.HasMore() {
		return false
	}
	n := s.markup.nodes[s.pos]
	return n.Kind == NodeTag && n.Tag.Type == TagOpen && n.Match > s.pos
}

// AtCloseTag reports whether the cursor is on a close tag.
func (s *MarkupStream) AtCloseTag() bool {
	if !s.HasMore() {
		return false
	}
	n := s.markup.nodes[s.pos]
	return n.Kind == NodeTag && n.Tag.Type == TagClose
}

// MatchIndex returns the index of the close tag paired with the tag under the
// cursor, or -1.
func (s *MarkupStream) MatchIndex() int {
	if !s.HasMore() {
		return -1
	}
	return s.markup.nodes[s.pos].Match
}

// SkipToMatchingClose moves the cursor from an open tag to its close tag.
// On any other node it advances by one.
func (s *MarkupStream) SkipToMatchingClose() {
	if s.AtOpenTag() {
		s.pos = s.markup.nodes[s.pos].Match
		return
	}
	s.pos++
}

// SkipComponent moves the cursor past the tag under it, including its body
// and close tag when it has them.
func (s *MarkupStream) SkipComponent() {
	if s.AtOpenTag() {
		s.pos = s.markup.nodes[s.pos].Match + 1
		return
	}
	s.pos++
}
