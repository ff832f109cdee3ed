package markupmsg

import (
	"fmt"

	"golang.org/x/text/language"
)

// MarkupContainer is a structural component: it renders its tag and body as
// written and owns the components resolved inside that body. Resolvers also
// use it as the fallback for a message tag without a translation.
type MarkupContainer struct {
	id       string
	bodyOnly bool
	parent   *MarkupContainer
	page     *Page

	children []Component
	bound    map[int]Component // markup node index -> component
}

// NewMarkupContainer returns a detached container. It becomes usable once
// added to a page with AutoAdd.
func NewMarkupContainer(id string, renderBodyOnly bool) *MarkupContainer {
	return &MarkupContainer{id: id, bodyOnly: renderBodyOnly, bound: map[int]Component{}}
}

func (c *MarkupContainer) ID() string               { return c.id }
func (c *MarkupContainer) RenderBodyOnly() bool     { return c.bodyOnly }
func (c *MarkupContainer) Parent() *MarkupContainer { return c.parent }
func (c *MarkupContainer) Page() *Page              { return c.page }

// Children returns the attached components in the order they were added.
func (c *MarkupContainer) Children() []Component {
	return append([]Component(nil), c.children...)
}

// Get returns the direct child with the given id.
func (c *MarkupContainer) Get(id string) (Component, bool) {
	for _, child := range c.children {
		if child.ID() == id {
			return child, true
		}
	}
	return nil, false
}

// Engine returns the engine that owns the page.
func (c *MarkupContainer) Engine() *Engine { return c.page.engine }

// Settings returns the application settings.
func (c *MarkupContainer) Settings() Settings { return c.page.engine.settings }

// Localizer returns the application localizer.
func (c *MarkupContainer) Localizer() Localizer { return c.page.engine.localizer }

// Locale implements Scope.
func (c *MarkupContainer) Locale() language.Tag { return c.page.locale }

// PageName implements Scope.
func (c *MarkupContainer) PageName() string { return c.page.name }

// AutoAdd attaches comp to c and binds it to the tag under the page's
// resolve cursor, so the render pass hands that tag to comp. It fails
// outside a resolve walk, for an id already used on the page and for a tag
// that already has a component.
func (c *MarkupContainer) AutoAdd(comp Component) error {
	p := c.page
	if p == nil || p.cursor == nil {
		return fmt.Errorf("auto-add %q: container is not being resolved", comp.ID())
	}
	if _, dup := p.ids[comp.ID()]; dup {
		return fmt.Errorf("auto-add %q: id already used on page %q", comp.ID(), p.name)
	}
	idx := p.cursor.Index()
	if existing, dup := c.bound[idx]; dup {
		return fmt.Errorf("auto-add %q: tag already bound to %q", comp.ID(), existing.ID())
	}

	if child, ok := comp.(*MarkupContainer); ok {
		child.parent = c
		child.page = p
	}
	p.ids[comp.ID()] = struct{}{}
	c.children = append(c.children, comp)
	c.bound[idx] = comp
	return nil
}

// Render implements Component: tag, body (with nested components) and close
// tag, tags omitted when rendering body only.
func (c *MarkupContainer) Render(rc *RenderContext) error {
	s := rc.Stream
	if !s.AtOpenTag() {
		if !c.bodyOnly {
			rc.Write(s.Tag().Markup())
		}
		s.Next()
		return rc.Err()
	}

	closeIdx := s.MatchIndex()
	if !c.bodyOnly {
		rc.Write(s.Tag().Markup())
	}
	s.Next()
	if err := c.renderBody(rc, closeIdx); err != nil {
		return err
	}
	if !c.bodyOnly {
		rc.Write(s.Markup().Node(closeIdx).Tag.Markup())
	}
	s.SetIndex(closeIdx + 1)
	return rc.Err()
}

// renderBody writes nodes up to end, handing bound tags to their components.
// Framework tags without a component are written unless tags are stripped.
func (c *MarkupContainer) renderBody(rc *RenderContext, end int) error {
	s := rc.Stream
	strip := c.Settings().StripTags
	for s.HasMore() && s.Index() < end {
		if comp, ok := c.bound[s.Index()]; ok {
			if err := comp.Render(rc); err != nil {
				return fmt.Errorf("render %q: %w", comp.ID(), err)
			}
			continue
		}

		node := s.Current()
		switch node.Kind {
		case NodeText:
			rc.Write(node.Text)
		case NodeTag:
			if !(strip && node.Tag.Reserved) {
				rc.Write(node.Tag.Markup())
			}
		}
		s.Next()
	}
	return rc.Err()
}

// resolveBody offers every framework tag up to end to the resolver chain.
// Bodies of resolved components are skipped, except for containers, whose
// bodies are resolved against the container itself.
func (c *MarkupContainer) resolveBody(s *MarkupStream, end int) error {
	engine := c.Engine()
	for s.HasMore() && s.Index() < end {
		node := s.Current()
		if node.Kind != NodeTag || !node.Tag.Reserved || node.Tag.Type == TagClose {
			s.Next()
			continue
		}

		idx := s.Index()
		handled, err := engine.reg.Resolve(c, s, node.Tag)
		if err != nil {
			return err
		}
		if !handled {
			if err := c.unresolved(s, node.Tag); err != nil {
				return err
			}
			continue
		}

		child, isContainer := c.bound[idx].(*MarkupContainer)
		if isContainer && s.AtOpenTag() {
			closeIdx := s.MatchIndex()
			s.Next()
			if err := child.resolveBody(s, closeIdx); err != nil {
				return err
			}
			s.SetIndex(closeIdx + 1)
			continue
		}
		s.SkipComponent()
	}
	return nil
}

// unresolved applies the engine's unknown tag policy to a tag no resolver
// accepted and advances the cursor.
func (c *MarkupContainer) unresolved(s *MarkupStream, tag *Tag) error {
	engine := c.Engine()
	policy := engine.policy
	engine.metrics.unknownTag(policy)

	switch policy {
	case UnknownStrict:
		return NewUnresolvedTagError(tag.Pos, tag.QualifiedName(), s.Markup().Source())
	case UnknownDrop:
		c.bound[s.Index()] = droppedTag{}
		s.SkipComponent()
		return nil
	case UnknownAudit:
		c.page.logger.Warn().
			Str("tag", tag.QualifiedName()).
			Stringer("pos", tag.Pos).
			Msg("no resolver accepted tag")
	}
	// Passthrough: keep walking into the body, nested tags may resolve.
	s.Next()
	return nil
}

// droppedTag renders nothing for a tag removed by UnknownDrop.
type droppedTag struct{}

func (droppedTag) ID() string           { return "" }
func (droppedTag) RenderBodyOnly() bool { return true }

func (droppedTag) Render(rc *RenderContext) error {
	rc.Stream.SkipComponent()
	return nil
}
