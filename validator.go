package markupmsg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validator checks one attribute value of a tag at parse time.
type Validator interface {
	// Validate returns nil if value is acceptable for the attribute.
	Validate(tag *Tag, attr string, value string) error
}

// RegexValidator validates attribute values against a regular expression.
type RegexValidator struct {
	Pattern     *regexp.Regexp
	Description string // Human-readable description of what the pattern expects
}

// Validate implements the Validator interface.
func (v *RegexValidator) Validate(tag *Tag, attr string, value string) error {
	if !v.Pattern.MatchString(value) {
		return NewValidationError(
			tag.Pos,
			tag.QualifiedName(),
			attr,
			fmt.Sprintf("value %q does not match expected pattern: %s", value, v.Description),
			"",
		)
	}
	return nil
}

// FuncValidator uses a custom function to validate values.
type FuncValidator struct {
	ValidateFunc func(tag *Tag, attr string, value string) error
}

// Validate implements the Validator interface.
func (v *FuncValidator) Validate(tag *Tag, attr string, value string) error {
	return v.ValidateFunc(tag, attr, value)
}

type attrValidator struct {
	attr      string
	validator Validator
}

// ValidatorRegistry holds validators per qualified tag name. A nil registry
// validates nothing.
type ValidatorRegistry struct {
	validators map[string][]attrValidator
}

// NewValidatorRegistry creates a new validator registry.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{
		validators: make(map[string][]attrValidator),
	}
}

// Register adds a validator for attribute attr of tags named tagName
// ("wicket:message"). Several validators may share a tag and attribute.
func (r *ValidatorRegistry) Register(tagName, attr string, validator Validator) {
	if validator == nil {
		return
	}
	tagName = canonicalName(tagName)
	r.validators[tagName] = append(r.validators[tagName], attrValidator{attr: attr, validator: validator})
}

// RegisterRegex creates and registers a RegexValidator.
func (r *ValidatorRegistry) RegisterRegex(tagName, attr, pattern, description string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern for <%s %s>: %w", tagName, attr, err)
	}

	r.Register(tagName, attr, &RegexValidator{
		Pattern:     re,
		Description: description,
	})
	return nil
}

// RegisterFunc creates and registers a FuncValidator.
func (r *ValidatorRegistry) RegisterFunc(tagName, attr string, validateFunc func(*Tag, string, string) error) {
	r.Register(tagName, attr, &FuncValidator{
		ValidateFunc: validateFunc,
	})
}

// ValidateTag runs the validators registered for tag. Attributes the tag does
// not carry are skipped; presence checks belong to the resolvers.
func (r *ValidatorRegistry) ValidateTag(tag *Tag, source string) error {
	if r == nil {
		return nil
	}
	for _, av := range r.validators[canonicalName(tag.QualifiedName())] {
		value, ok := tag.Attrs.Get(av.attr)
		if !ok {
			continue
		}
		if err := av.validator.Validate(tag, av.attr, value); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) && verr.Context == "" {
				verr.Context = extractContext(source, verr.Pos)
			}
			return err
		}
	}
	return nil
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
