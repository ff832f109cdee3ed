package markupmsg

import (
	"bufio"
	"bytes"
	"errors"
	"html"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Open or open-close tag: <name attrs...> or <name attrs.../>.
	openTagRe = regexp.MustCompile(`(?s)^<([A-Za-z][\w\.\-:]*)(.*?)(/?)\s*>$`)
	// Close tag: </name>.
	closeTagRe = regexp.MustCompile(`^</\s*([A-Za-z][\w\.\-:]*)\s*>$`)
	attrNameRe = regexp.MustCompile(`^[A-Za-z_:@][\w\.\-:@]*`)
)

// errIncomplete is returned by findTagEnd when the buffer holds only part of a tag.
var errIncomplete = errors.New("incomplete tag")

type parser struct {
	namespace  string
	validators *ValidatorRegistry

	nodes  []Node
	open   []int // indexes of open tags still waiting for their close tag
	source strings.Builder
	pos    Position // position of the first unconsumed byte

	// rawEnd is set inside <script> and <style>: everything up to this
	// close tag is text.
	rawEnd string
}

// rawTextTags hold content that is never parsed for tags.
var rawTextTags = map[string]bool{"script": true, "style": true}

// ParseMarkup reads a template and splits it into text and tag nodes. Tags
// whose namespace equals namespace are marked Reserved; for those the parser
// is strict: attributes must have values, close tags must match and every
// open tag must be closed. Other tags follow lenient HTML rules.
func ParseMarkup(r io.Reader, namespace string, validators *ValidatorRegistry) (*Markup, error) {
	p := &parser{
		namespace:  namespace,
		validators: validators,
		pos:        Position{Line: 1, Column: 1},
	}

	br := bufio.NewReader(r)
	var buf bytes.Buffer
	chunk := make([]byte, 4096)

	for {
		n, err := br.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			p.source.Write(chunk[:n])
			for {
				progress, perr := p.tryExtract(&buf, false)
				if perr != nil {
					return nil, perr
				}
				if !progress {
					break
				}
			}
		}
		if err == io.EOF {
			// Drain what remains; incomplete constructs become text.
			for {
				progress, perr := p.tryExtract(&buf, true)
				if perr != nil {
					return nil, perr
				}
				if !progress {
					break
				}
			}
			if err := p.checkUnclosed(); err != nil {
				return nil, err
			}
			return &Markup{nodes: p.nodes, source: p.source.String()}, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// tryExtract consumes one node from the head of buf. It reports false when
// nothing could be consumed without more input.
func (p *parser) tryExtract(buf *bytes.Buffer, atEOF bool) (bool, error) {
	b := buf.Bytes()
	if len(b) == 0 {
		return false, nil
	}
	if p.rawEnd != "" {
		return p.extractRawText(buf, atEOF)
	}

	// 1) Text up to the next '<'
	if b[0] != '<' {
		end := bytes.IndexByte(b, '<')
		if end < 0 {
			end = len(b)
		}
		p.emitText(p.consume(buf, end))
		return true, nil
	}

	// 2) Comments, doctype and processing instructions pass through as text
	if bytes.HasPrefix(b, []byte("<!--")) {
		end := bytes.Index(b[4:], []byte("-->"))
		if end < 0 {
			return p.incomplete(buf, atEOF)
		}
		p.emitText(p.consume(buf, 4+end+3))
		return true, nil
	}
	if bytes.HasPrefix(b, []byte("<!")) || bytes.HasPrefix(b, []byte("<?")) {
		end := bytes.IndexByte(b, '>')
		if end < 0 {
			return p.incomplete(buf, atEOF)
		}
		p.emitText(p.consume(buf, end+1))
		return true, nil
	}

	// 3) Tags. A '<' not followed by a name or '/' is text, e.g. "a < b".
	if len(b) < 2 {
		return p.incomplete(buf, atEOF)
	}
	if !isNameStart(b[1]) && b[1] != '/' {
		p.emitText(p.consume(buf, 1))
		return true, nil
	}
	end, err := findTagEnd(b)
	if errors.Is(err, errIncomplete) {
		return p.incomplete(buf, atEOF)
	}
	raw := string(b[:end])
	if !openTagRe.MatchString(raw) && !closeTagRe.MatchString(raw) {
		// "<" that does not start a tag, e.g. "a < b"
		p.emitText(p.consume(buf, 1))
		return true, nil
	}

	tag, err := p.parseTag(raw, p.pos)
	if err != nil {
		if tag != nil && !tag.Reserved {
			// Not a tag after all, e.g. "a<b) return" in an inline script.
			p.emitText(p.consume(buf, 1))
			return true, nil
		}
		return true, err
	}
	p.consume(buf, end)
	return true, p.emitTag(tag)
}

// extractRawText consumes script or style content up to its close tag.
func (p *parser) extractRawText(buf *bytes.Buffer, atEOF bool) (bool, error) {
	b := buf.Bytes()
	if idx := indexFold(b, p.rawEnd); idx >= 0 {
		p.emitText(p.consume(buf, idx))
		p.rawEnd = ""
		return true, nil
	}
	if atEOF {
		p.emitText(p.consume(buf, len(b)))
		return true, nil
	}

	// Keep enough bytes back to recognize a close tag split across reads.
	n := len(b) - len(p.rawEnd) + 1
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	if n <= 0 {
		return false, nil
	}
	p.emitText(p.consume(buf, n))
	return true, nil
}

// incomplete handles a construct cut off by the end of the buffer.
func (p *parser) incomplete(buf *bytes.Buffer, atEOF bool) (bool, error) {
	if !atEOF {
		return false, nil
	}
	p.emitText(p.consume(buf, buf.Len()))
	return true, nil
}

// consume removes n bytes from buf and advances the source position.
func (p *parser) consume(buf *bytes.Buffer, n int) string {
	s := string(buf.Next(n))
	for _, r := range s {
		if r == '\n' {
			p.pos.Line++
			p.pos.Column = 1
		} else {
			p.pos.Column++
		}
	}
	return s
}

func (p *parser) parseTag(raw string, pos Position) (*Tag, error) {
	if m := closeTagRe.FindStringSubmatch(raw); m != nil {
		tag := &Tag{Type: TagClose, Pos: pos, Raw: raw}
		p.setName(tag, m[1])
		return tag, nil
	}

	m := openTagRe.FindStringSubmatch(raw)
	tag := &Tag{Type: TagOpen, Pos: pos, Raw: raw}
	if m[3] == "/" {
		tag.Type = TagOpenClose
	}
	p.setName(tag, m[1])

	// On error the tag is still returned so the caller can tell framework
	// tags from plain HTML.
	attrs, err := parseAttributes(m[2], tag.Reserved)
	if err != nil {
		var attrErr *AttributeParsingError
		if errors.As(err, &attrErr) {
			attrErr.TagName = tag.QualifiedName()
			attrErr.Pos = pos
			attrErr.Context = extractContext(p.source.String(), pos)
		}
		return tag, err
	}
	tag.Attrs = attrs
	return tag, nil
}

func (p *parser) setName(tag *Tag, qualified string) {
	if ns, name, ok := strings.Cut(qualified, ":"); ok {
		tag.Namespace = ns
		tag.Name = name
	} else {
		tag.Name = qualified
	}
	tag.Reserved = tag.Namespace != "" && tag.Namespace == p.namespace
}

func (p *parser) emitText(s string) {
	if s == "" {
		return
	}
	if n := len(p.nodes); n > 0 && p.nodes[n-1].Kind == NodeText {
		p.nodes[n-1].Text += s
		return
	}
	p.nodes = append(p.nodes, Node{Kind: NodeText, Text: s, Match: -1})
}

func (p *parser) emitTag(tag *Tag) error {
	idx := len(p.nodes)

	switch tag.Type {
	case TagOpen, TagOpenClose:
		if err := p.validators.ValidateTag(tag, p.source.String()); err != nil {
			return err
		}
		p.nodes = append(p.nodes, Node{Kind: NodeTag, Tag: tag, Match: -1})
		if tag.Type == TagOpen {
			p.open = append(p.open, idx)
			if tag.Namespace == "" && rawTextTags[strings.ToLower(tag.Name)] {
				p.rawEnd = "</" + strings.ToLower(tag.Name)
			}
		}
		return nil
	}

	// Close tag: pair with the nearest open tag of the same name. Open tags
	// in between stay unpaired, as HTML allows for <p>, <li> and friends.
	for k := len(p.open) - 1; k >= 0; k-- {
		openIdx := p.open[k]
		if !strings.EqualFold(p.nodes[openIdx].Tag.QualifiedName(), tag.QualifiedName()) {
			continue
		}
		for _, skipped := range p.open[k+1:] {
			if err := p.unclosedError(skipped); err != nil {
				return err
			}
		}
		p.open = p.open[:k]
		p.nodes[openIdx].Match = idx
		p.nodes = append(p.nodes, Node{Kind: NodeTag, Tag: tag, Match: openIdx})
		return nil
	}

	if tag.Reserved {
		return NewUnmatchedTagError(tag.Pos, tag.QualifiedName(), p.source.String())
	}
	p.nodes = append(p.nodes, Node{Kind: NodeTag, Tag: tag, Match: -1})
	return nil
}

func (p *parser) checkUnclosed() error {
	for _, idx := range p.open {
		if err := p.unclosedError(idx); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) unclosedError(idx int) error {
	tag := p.nodes[idx].Tag
	if !tag.Reserved {
		return nil
	}
	return NewMalformedTagError(tag.Pos, tag.QualifiedName(), "tag is never closed", p.source.String())
}

// findTagEnd returns the length of the tag at the head of b, honouring
// quoted attribute values that contain '>'.
func findTagEnd(b []byte) (int, error) {
	var quote byte
	for i := 1; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, nil
		}
	}
	return 0, errIncomplete
}

// parseAttributes parses the attribute section of an open tag. Bare
// attributes are accepted unless strict is set.
func parseAttributes(s string, strict bool) (Attributes, error) {
	var attrs Attributes
	rest := strings.TrimSpace(s)
	for rest != "" {
		name := attrNameRe.FindString(rest)
		if name == "" {
			return nil, &AttributeParsingError{
				ParseError: ParseError{Message: "invalid attribute syntax near " + quoteSnippet(rest)},
			}
		}
		rest = strings.TrimLeft(rest[len(name):], " \t\r\n")

		if !strings.HasPrefix(rest, "=") {
			if strict {
				return nil, &AttributeParsingError{
					ParseError:    ParseError{Message: "attribute has no value"},
					AttributeName: name,
				}
			}
			attrs = append(attrs, Attribute{Name: name})
			continue
		}
		rest = strings.TrimLeft(rest[1:], " \t\r\n")

		var value string
		switch {
		case rest == "":
			return nil, &AttributeParsingError{
				ParseError:    ParseError{Message: "attribute value is missing"},
				AttributeName: name,
			}
		case rest[0] == '"' || rest[0] == '\'':
			end := strings.IndexByte(rest[1:], rest[0])
			if end < 0 {
				return nil, &AttributeParsingError{
					ParseError:    ParseError{Message: "unterminated attribute value"},
					AttributeName: name,
				}
			}
			value = rest[1 : 1+end]
			rest = rest[end+2:]
		default:
			end := strings.IndexAny(rest, " \t\r\n")
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		attrs = append(attrs, Attribute{Name: name, Value: html.UnescapeString(value)})
		rest = strings.TrimLeft(rest, " \t\r\n")
	}
	return attrs, nil
}

func isNameStart(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// indexFold is bytes.Index ignoring ASCII case in sep.
func indexFold(b []byte, sep string) int {
	for i := 0; i+len(sep) <= len(b); i++ {
		if bytes.EqualFold(b[i:i+len(sep)], []byte(sep)) {
			return i
		}
	}
	return -1
}

func quoteSnippet(s string) string {
	if len(s) > 16 {
		s = s[:16]
	}
	return `"` + s + `"`
}
