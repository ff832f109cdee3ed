package markupmsg

import (
	"fmt"
	"strings"
)

// Position represents a position in the template source.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String returns a string representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// ParseError is the base error type for all markup errors.
type ParseError struct {
	Pos     Position // Position where the error occurred
	Message string   // Error message
	Context string   // Surrounding source lines
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s at %s\nContext: %s", e.Message, e.Pos, e.Context)
	}
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

// MalformedTagError reports a framework tag that cannot be processed as
// written, such as a message tag without a key.
type MalformedTagError struct {
	ParseError
	TagName string // Qualified name of the malformed tag
}

// Error implements the error interface.
func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("malformed tag <%s> at %s: %s\nContext: %s",
		e.TagName, e.Pos, e.Message, e.Context)
}

// AttributeParsingError represents an error when parsing tag attributes.
type AttributeParsingError struct {
	ParseError
	TagName       string // Name of the tag with the attribute error
	AttributeName string // Name of the problematic attribute, if known
}

// Error implements the error interface.
func (e *AttributeParsingError) Error() string {
	if e.AttributeName != "" {
		return fmt.Sprintf("error parsing attribute '%s' in tag <%s> at %s: %s\nContext: %s",
			e.AttributeName, e.TagName, e.Pos, e.Message, e.Context)
	}
	return fmt.Sprintf("error parsing attributes in tag <%s> at %s: %s\nContext: %s",
		e.TagName, e.Pos, e.Message, e.Context)
}

// UnmatchedTagError represents a framework closing tag without an opening tag.
type UnmatchedTagError struct {
	ParseError
	TagName string
}

// Error implements the error interface.
func (e *UnmatchedTagError) Error() string {
	return fmt.Sprintf("unmatched closing tag </%s> at %s\nContext: %s",
		e.TagName, e.Pos, e.Context)
}

// ValidationError represents an attribute value rejected by a validator.
type ValidationError struct {
	ParseError
	TagName       string
	AttributeName string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for attribute '%s' of <%s> at %s: %s\nContext: %s",
		e.AttributeName, e.TagName, e.Pos, e.Message, e.Context)
}

// UnresolvedTagError is returned under UnknownStrict when no resolver in the
// chain accepted a framework tag.
type UnresolvedTagError struct {
	ParseError
	TagName string
}

// Error implements the error interface.
func (e *UnresolvedTagError) Error() string {
	return fmt.Sprintf("no resolver accepted tag <%s> at %s\nContext: %s",
		e.TagName, e.Pos, e.Context)
}

// NewParseError creates a new ParseError with context.
func NewParseError(pos Position, message, source string) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: message,
		Context: extractContext(source, pos),
	}
}

// NewMalformedTagError creates a new MalformedTagError.
func NewMalformedTagError(pos Position, tagName, message, source string) *MalformedTagError {
	return &MalformedTagError{
		ParseError: *NewParseError(pos, message, source),
		TagName:    tagName,
	}
}

// NewAttributeParsingError creates a new AttributeParsingError.
func NewAttributeParsingError(pos Position, tagName, attrName, message, source string) *AttributeParsingError {
	return &AttributeParsingError{
		ParseError:    *NewParseError(pos, message, source),
		TagName:       tagName,
		AttributeName: attrName,
	}
}

// NewUnmatchedTagError creates a new UnmatchedTagError.
func NewUnmatchedTagError(pos Position, tagName, source string) *UnmatchedTagError {
	return &UnmatchedTagError{
		ParseError: *NewParseError(pos, "closing tag has no matching opening tag", source),
		TagName:    tagName,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(pos Position, tagName, attrName, message, source string) *ValidationError {
	return &ValidationError{
		ParseError:    *NewParseError(pos, message, source),
		TagName:       tagName,
		AttributeName: attrName,
	}
}

// NewUnresolvedTagError creates a new UnresolvedTagError.
func NewUnresolvedTagError(pos Position, tagName, source string) *UnresolvedTagError {
	return &UnresolvedTagError{
		ParseError: *NewParseError(pos, "tag was not handled by any resolver", source),
		TagName:    tagName,
	}
}

// contextLines is how many lines extractContext shows on each side of the
// error line.
const contextLines = 2

// extractContext returns the lines around pos, numbered, with a caret under
// the offending column.
func extractContext(source string, pos Position) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return source
	}

	first := max(1, pos.Line-contextLines)
	last := min(len(lines), pos.Line+contextLines)

	var sb strings.Builder
	for n := first; n <= last; n++ {
		line := lines[n-1]
		if n != pos.Line {
			fmt.Fprintf(&sb, "   %d: %s\n", n, line)
			continue
		}
		prefix := fmt.Sprintf("-> %d: ", n)
		sb.WriteString(prefix + line + "\n")
		if pos.Column >= 1 && pos.Column <= len(line)+1 {
			sb.WriteString(strings.Repeat(" ", len(prefix)+pos.Column-1) + "^\n")
		}
	}
	return sb.String()
}
