package markupmsg

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of locales/<locale>/<namespace>.yaml.
type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds the message catalogs of all locales. Message values are
// x/text format strings; a literal percent sign is written as "%%".
type Bundle struct {
	base     language.Tag
	locales  []language.Tag
	builder  *catalog.Builder
	matcher  language.Matcher
	printers sync.Map // language.Tag -> *message.Printer
}

// LoadBundle loads every locales/*/*.yaml file in fsys. base must be one of
// the loaded locales; lookups fall back to it.
func LoadBundle(fsys fs.FS, base string) (*Bundle, error) {
	baseTag, err := language.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base locale %q: %w", base, err)
	}

	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{
		base:    baseTag,
		builder: catalog.NewBuilder(catalog.Fallback(baseTag)),
	}
	seen := map[language.Tag]map[string]string{} // locale -> key -> namespace
	namespaces := map[string]bool{}              // "locale/namespace"

	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}

		localeFromPath := path.Base(path.Dir(p))
		namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if strings.TrimSpace(file.Locale) != localeFromPath {
			return nil, fmt.Errorf("catalog %s: locale %q must match path locale %q", p, file.Locale, localeFromPath)
		}
		if strings.TrimSpace(file.Namespace) != namespaceFromPath {
			return nil, fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, file.Namespace, namespaceFromPath)
		}
		if namespaces[localeFromPath+"/"+namespaceFromPath] {
			return nil, fmt.Errorf("catalog %s: namespace %q already defined", p, namespaceFromPath)
		}
		namespaces[localeFromPath+"/"+namespaceFromPath] = true

		tag, err := language.Parse(localeFromPath)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale: %w", p, err)
		}
		if _, ok := seen[tag]; !ok {
			seen[tag] = map[string]string{}
			b.locales = append(b.locales, tag)
		}

		for key, value := range file.Messages {
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("catalog %s: message key cannot be blank", p)
			}
			if other, dup := seen[tag][key]; dup {
				return nil, fmt.Errorf("catalog %s: duplicate key %q, first defined in namespace %q", p, key, other)
			}
			seen[tag][key] = namespaceFromPath
			if err := b.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: set %q: %w", p, key, err)
			}
		}
	}

	if _, ok := seen[baseTag]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", base)
	}

	// The base locale goes first so the matcher falls back to it.
	sort.SliceStable(b.locales, func(i, j int) bool {
		return b.locales[i] == baseTag && b.locales[j] != baseTag
	})
	b.matcher = language.NewMatcher(b.locales)
	return b, nil
}

// Base returns the fallback locale.
func (b *Bundle) Base() language.Tag { return b.base }

// Locales returns the loaded locales, base locale first.
func (b *Bundle) Locales() []language.Tag {
	return append([]language.Tag(nil), b.locales...)
}

// Match picks the best loaded locale for the user's preferences.
func (b *Bundle) Match(prefs ...language.Tag) language.Tag {
	if len(prefs) == 0 {
		return b.base
	}
	_, idx, _ := b.matcher.Match(prefs...)
	return b.locales[idx]
}

// MatchAcceptLanguage is Match for an Accept-Language header value.
func (b *Bundle) MatchAcceptLanguage(header string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return b.base
	}
	return b.Match(prefs...)
}

// Message returns the text for key in locale, falling back to the base
// locale. Empty messages count as missing.
func (b *Bundle) Message(locale language.Tag, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	locale = b.Match(locale)
	if value := b.printer(locale).Sprintf(message.Key(key, "")); value != "" {
		return value, true
	}
	if locale != b.base {
		if value := b.printer(b.base).Sprintf(message.Key(key, "")); value != "" {
			return value, true
		}
	}
	return "", false
}

func (b *Bundle) printer(locale language.Tag) *message.Printer {
	if p, ok := b.printers.Load(locale); ok {
		return p.(*message.Printer)
	}
	p, _ := b.printers.LoadOrStore(locale, message.NewPrinter(locale, message.Catalog(b.builder)))
	return p.(*message.Printer)
}
