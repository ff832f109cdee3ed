package markupmsg

import (
	"html"
	"strings"
)

// TagType distinguishes the three shapes a tag can take in markup.
type TagType int

const (
	TagOpen      TagType = iota + 1 // <ns:name ...>
	TagClose                        // </ns:name>
	TagOpenClose                    // <ns:name ... />
)

func (t TagType) String() string {
	switch t {
	case TagOpen:
		return "open"
	case TagClose:
		return "close"
	case TagOpenClose:
		return "open-close"
	default:
		return "unknown"
	}
}

// Attribute is a single name/value pair as written in the source.
type Attribute struct {
	Name  string
	Value string
}

// Attributes keeps source order so tags render back the way they were written.
type Attributes []Attribute

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Map returns the attributes as a map.
func (a Attributes) Map() map[string]string {
	out := make(map[string]string, len(a))
	for _, attr := range a {
		out[attr.Name] = attr.Value
	}
	return out
}

// Tag is a tag node from a parsed template. Tags are shared by every page
// rendered from the same Markup and must not be modified.
type Tag struct {
	Namespace string // empty when the tag has no prefix
	Name      string // local name
	Type      TagType
	Attrs     Attributes
	// Reserved is set by the parser when Namespace is the framework namespace.
	Reserved bool
	Pos      Position
	// Raw is the source text of the tag; empty for derived tags.
	Raw string
}

// QualifiedName returns "ns:name", or just the name without a namespace.
func (t *Tag) QualifiedName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + ":" + t.Name
}

// IsMessageTag reports whether t is a framework message tag.
func (t *Tag) IsMessageTag() bool {
	return t.Reserved && t.Name == "message"
}

// WithType returns a copy of t with its type replaced. The attribute slice is
// copied as well so the view never aliases the shared source tag.
func (t *Tag) WithType(typ TagType) *Tag {
	view := *t
	view.Type = typ
	view.Raw = ""
	view.Attrs = append(Attributes(nil), t.Attrs...)
	return &view
}

// Markup renders the tag as it appears in a template. Parsed tags return
// their source text unchanged.
func (t *Tag) Markup() string {
	if t.Raw != "" {
		return t.Raw
	}
	var sb strings.Builder
	if t.Type == TagClose {
		sb.WriteString("</")
		sb.WriteString(t.QualifiedName())
		sb.WriteByte('>')
		return sb.String()
	}

	sb.WriteByte('<')
	sb.WriteString(t.QualifiedName())
	for _, attr := range t.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(attr.Name)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(attr.Value))
		sb.WriteByte('"')
	}
	if t.Type == TagOpenClose {
		sb.WriteString("/>")
	} else {
		sb.WriteByte('>')
	}
	return sb.String()
}

// SyntheticCloseTag returns the close tag matching t, for tags that have no
// close tag in the source.
func (t *Tag) SyntheticCloseTag() string {
	return "</" + t.QualifiedName() + ">"
}
