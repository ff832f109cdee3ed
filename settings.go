package markupmsg

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Settings is the application-wide configuration shared by every page an
// Engine renders.
type Settings struct {
	// MessagesEnabled switches message tag resolution on or off.
	MessagesEnabled bool `env:"MARKUPMSG_MESSAGES_ENABLED" envDefault:"true"`
	// StripTags renders framework components body-only, dropping their tags.
	StripTags bool `env:"MARKUPMSG_STRIP_TAGS" envDefault:"false"`
	// Namespace is the prefix that marks framework tags.
	Namespace     string `env:"MARKUPMSG_NAMESPACE" envDefault:"wicket"`
	DefaultLocale string `env:"MARKUPMSG_DEFAULT_LOCALE" envDefault:"en-US"`
	// EscapeMessages HTML-escapes resolved message text.
	EscapeMessages bool   `env:"MARKUPMSG_ESCAPE_MESSAGES" envDefault:"true"`
	UnknownTags    string `env:"MARKUPMSG_UNKNOWN_TAGS" envDefault:"passthrough"`
	LogLevel       string `env:"MARKUPMSG_LOG_LEVEL" envDefault:"info"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MessagesEnabled: true,
		Namespace:       "wicket",
		DefaultLocale:   "en-US",
		EscapeMessages:  true,
		UnknownTags:     UnknownPassthrough.String(),
		LogLevel:        "info",
	}
}

// LoadSettings reads settings from the process environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, s.Validate()
}

// ParseSettings reads settings from environ instead of the process
// environment.
func ParseSettings(environ map[string]string) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: environ}); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, s.Validate()
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Namespace) == "" {
		return fmt.Errorf("namespace is required")
	}
	if _, err := language.Parse(s.DefaultLocale); err != nil {
		return fmt.Errorf("default locale %q: %w", s.DefaultLocale, err)
	}
	if _, err := ParseUnknownTagPolicy(s.UnknownTags); err != nil {
		return err
	}
	return nil
}

// UnknownPolicy returns the parsed UnknownTags value, falling back to
// passthrough when it is invalid.
func (s Settings) UnknownPolicy() UnknownTagPolicy {
	p, err := ParseUnknownTagPolicy(s.UnknownTags)
	if err != nil {
		return UnknownPassthrough
	}
	return p
}

// Locale returns the parsed DefaultLocale, or English when it is invalid.
func (s Settings) Locale() language.Tag {
	tag, err := language.Parse(s.DefaultLocale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
