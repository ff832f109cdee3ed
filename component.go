package markupmsg

import (
	"html"
	"io"
)

// Component is a node of the component tree bound to a tag of the markup.
type Component interface {
	ID() string
	// RenderBodyOnly reports whether the component omits its own tag markup.
	RenderBodyOnly() bool
	// Render is called with the stream positioned at the component's tag and
	// must leave it just past the component's span.
	Render(rc *RenderContext) error
}

// RenderContext carries the state of one render pass.
type RenderContext struct {
	Stream *MarkupStream

	w      io.Writer
	escape bool
	err    error
}

func newRenderContext(stream *MarkupStream, w io.Writer, escape bool) *RenderContext {
	return &RenderContext{Stream: stream, w: w, escape: escape}
}

// Write writes markup as is. After the first write error all writes are
// dropped and Err reports it.
func (rc *RenderContext) Write(s string) {
	if rc.err != nil || s == "" {
		return
	}
	_, rc.err = io.WriteString(rc.w, s)
}

// WriteText writes message text, HTML-escaped when the engine says so.
func (rc *RenderContext) WriteText(s string) {
	if rc.escape {
		s = html.EscapeString(s)
	}
	rc.Write(s)
}

// Err returns the first write error.
func (rc *RenderContext) Err() error { return rc.err }
