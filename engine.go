package markupmsg

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// Engine is the application: it parses templates, creates pages and holds
// what every page shares (settings, resolver chain, localizer, logger,
// metrics). An Engine is safe for concurrent use once configured.
type Engine struct {
	reg        *Registry
	policy     UnknownTagPolicy
	settings   Settings
	localizer  Localizer
	validators *ValidatorRegistry
	logger     zerolog.Logger
	metrics    *Metrics
}

// NewEngine returns an engine using reg as resolver chain. A nil reg gets
// the default chain built from the engine's settings.
func NewEngine(reg *Registry, opts ...func(*Engine)) *Engine {
	e := &Engine{
		reg:        reg,
		settings:   DefaultSettings(),
		policy:     UnknownPassthrough,
		localizer:  NopLocalizer{},
		validators: NewValidatorRegistry(),
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.reg == nil {
		e.reg = NewDefaultRegistry(e.settings)
	}
	if e.validators == nil {
		e.validators = NewValidatorRegistry()
	}
	return e
}

// WithSettings sets the application settings, including the unknown tag
// policy they name.
func WithSettings(s Settings) func(*Engine) {
	return func(e *Engine) {
		e.settings = s
		e.policy = s.UnknownPolicy()
	}
}

func WithUnknownPolicy(p UnknownTagPolicy) func(*Engine) {
	return func(e *Engine) { e.policy = p }
}

func WithLocalizer(l Localizer) func(*Engine) {
	return func(e *Engine) { e.localizer = l }
}

func WithLogger(l zerolog.Logger) func(*Engine) {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *Metrics) func(*Engine) {
	return func(e *Engine) { e.metrics = m }
}

func WithValidators(v *ValidatorRegistry) func(*Engine) {
	return func(e *Engine) { e.validators = v }
}

func (e *Engine) Settings() Settings             { return e.settings }
func (e *Engine) Localizer() Localizer           { return e.localizer }
func (e *Engine) Registry() *Registry            { return e.reg }
func (e *Engine) Metrics() *Metrics              { return e.metrics }
func (e *Engine) Policy() UnknownTagPolicy       { return e.policy }
func (e *Engine) Validators() *ValidatorRegistry { return e.validators }

// RegisterRegexValidator requires attribute attr of tagName tags to match
// pattern at parse time.
func (e *Engine) RegisterRegexValidator(tagName, attr, pattern, description string) error {
	return e.validators.RegisterRegex(tagName, attr, pattern, description)
}

// RegisterFuncValidator registers a custom attribute check.
func (e *Engine) RegisterFuncValidator(tagName, attr string, fn func(*Tag, string, string) error) {
	e.validators.RegisterFunc(tagName, attr, fn)
}

// Parse reads a template.
func (e *Engine) Parse(r io.Reader) (*Markup, error) {
	return ParseMarkup(r, e.settings.Namespace, e.validators)
}

// NewPage creates an unresolved page for m.
func (e *Engine) NewPage(name string, m *Markup, locale language.Tag) *Page {
	return newPage(e, name, m, locale)
}

// ProcessStream parses the template read from r and renders it to w in
// locale.
func (e *Engine) ProcessStream(r io.Reader, w io.Writer, locale language.Tag) error {
	m, err := e.Parse(r)
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	return e.NewPage("", m, locale).Render(w)
}
