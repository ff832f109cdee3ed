package markupmsg

import "golang.org/x/text/language"

// Scope is what a Localizer needs to know about the component a key is
// looked up for.
type Scope interface {
	Locale() language.Tag
	PageName() string
}

// Localizer looks up message text. A missing key is not an error:
// GetString returns defaultValue.
type Localizer interface {
	GetString(key string, scope Scope, defaultValue string) string
}

// NopLocalizer knows no messages; every lookup yields the default.
type NopLocalizer struct{}

// GetString implements Localizer.
func (NopLocalizer) GetString(_ string, _ Scope, defaultValue string) string {
	return defaultValue
}

// CatalogLocalizer resolves keys from a Bundle. A key is first looked up
// prefixed with the page name ("home.greeting"), then on its own.
type CatalogLocalizer struct {
	bundle *Bundle
}

// NewCatalogLocalizer returns a Localizer backed by bundle.
func NewCatalogLocalizer(bundle *Bundle) *CatalogLocalizer {
	return &CatalogLocalizer{bundle: bundle}
}

// GetString implements Localizer.
func (l *CatalogLocalizer) GetString(key string, scope Scope, defaultValue string) string {
	if l == nil || l.bundle == nil {
		return defaultValue
	}
	locale := l.bundle.Base()
	if scope != nil {
		locale = scope.Locale()
		if name := scope.PageName(); name != "" {
			if value, ok := l.bundle.Message(locale, name+"."+key); ok {
				return value
			}
		}
	}
	if value, ok := l.bundle.Message(locale, key); ok {
		return value
	}
	return defaultValue
}
