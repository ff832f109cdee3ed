package markupmsg

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// Page is one instance of a template: the root of a component tree built by
// resolving the template's framework tags. A page is resolved once and may
// be rendered any number of times. It must not be used from several
// goroutines at once.
type Page struct {
	uid    xid.ID
	name   string
	engine *Engine
	markup *Markup
	locale language.Tag
	logger zerolog.Logger
	root   *MarkupContainer

	autoIndex  int
	ids        map[string]struct{}
	cursor     *MarkupStream // non-nil only during Resolve
	resolved   bool
	resolveErr error
}

func newPage(e *Engine, name string, m *Markup, locale language.Tag) *Page {
	p := &Page{
		uid:    xid.New(),
		name:   name,
		engine: e,
		markup: m,
		locale: locale,
		ids:    map[string]struct{}{},
	}
	p.logger = e.logger.With().
		Str("page", name).
		Str("page_id", p.uid.String()).
		Logger()
	p.root = NewMarkupContainer("", false)
	p.root.page = p
	return p
}

// ID returns the unique id of this page instance.
func (p *Page) ID() string { return p.uid.String() }

func (p *Page) Name() string            { return p.name }
func (p *Page) Locale() language.Tag    { return p.locale }
func (p *Page) Markup() *Markup         { return p.markup }
func (p *Page) Engine() *Engine         { return p.engine }
func (p *Page) Root() *MarkupContainer  { return p.root }
func (p *Page) Logger() *zerolog.Logger { return &p.logger }

// AutoIndex returns the next value of the page's counter for synthetic
// component ids. Values start at 0 and never repeat on a page.
func (p *Page) AutoIndex() int {
	i := p.autoIndex
	p.autoIndex++
	return i
}

// Resolve walks the markup once and offers every framework tag to the
// engine's resolver chain. Later calls return the first result.
func (p *Page) Resolve() error {
	if p.resolved {
		return p.resolveErr
	}
	p.resolved = true

	p.cursor = NewMarkupStream(p.markup)
	defer func() { p.cursor = nil }()

	if err := p.root.resolveBody(p.cursor, p.markup.Len()); err != nil {
		p.resolveErr = fmt.Errorf("resolve page %q: %w", p.name, err)
		p.logger.Error().Err(err).Msg("resolve failed")
		return p.resolveErr
	}
	p.logger.Debug().
		Int("components", len(p.ids)).
		Msg("page resolved")
	return nil
}

// Render resolves the page if needed and writes its output to w.
func (p *Page) Render(w io.Writer) error {
	start := time.Now()
	if err := p.Resolve(); err != nil {
		return err
	}

	rc := newRenderContext(NewMarkupStream(p.markup), w, p.engine.settings.EscapeMessages)
	if err := p.root.renderBody(rc, p.markup.Len()); err != nil {
		return fmt.Errorf("render page %q: %w", p.name, err)
	}

	p.engine.metrics.rendered(start)
	p.logger.Debug().
		Dur("took", time.Since(start)).
		Msg("page rendered")
	return nil
}
