// Package i18n loads the embedded message catalogs and resolves request languages.
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the catalog every other locale falls back to.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every locale.
type Bundle struct {
	locales map[string]map[string]string
	tags    []language.Tag
	matcher language.Matcher
}

var defaultBundle = mustLoadAndRegister()

func mustLoadAndRegister() *Bundle {
	b, err := LoadFromFS(embeddedFS)
	if err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	if err := b.Register(); err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	return b
}

// Default returns the process-wide embedded bundle.
func Default() *Bundle { return defaultBundle }

// LoadFromFS reads locales/<locale>/<namespace>.yaml files.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{locales: map[string]map[string]string{}}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if err := b.add(path, file); err != nil {
			return nil, err
		}
	}
	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	locales := b.Locales()
	// the base locale goes first so the matcher falls back to it
	b.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, l := range locales {
		if l == BaseLocale {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", l, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(path string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	if want := filepath.Base(filepath.Dir(path)); locale != want {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", path, locale, want)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if want := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)); namespace != want {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", path, namespace, want)
	}
	msgs, ok := b.locales[locale]
	if !ok {
		msgs = map[string]string{}
		b.locales[locale] = msgs
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", path)
		}
		if _, dup := msgs[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", path, key, locale)
		}
		msgs[key] = value
	}
	return nil
}

// Register publishes every message to x/text/message under the locale tag and its base language.
func (b *Bundle) Register() error {
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if base, _ := tag.Base(); base.String() != "und" {
			if baseTag, err := language.Parse(base.String()); err == nil && baseTag != tag {
				tags = append(tags, baseTag)
			}
		}
		for key, value := range b.locales[locale] {
			for _, t := range tags {
				if err := message.SetString(t, key, value); err != nil {
					return fmt.Errorf("register %s %s: %w", t, key, err)
				}
			}
		}
	}
	return nil
}

// Locales returns the available locale identifiers, sorted.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.locales))
	for l := range b.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Supported returns the supported tags, base locale first.
func (b *Bundle) Supported() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Match maps any tags to the closest supported one.
func (b *Bundle) Match(tags ...language.Tag) language.Tag {
	_, idx, _ := b.matcher.Match(tags...)
	return b.tags[idx]
}

// Resolve picks the language for a request: an explicit lang value wins over the
// Accept-Language header. Anything unusable yields the base locale.
func (b *Bundle) Resolve(lang, acceptLanguage string) language.Tag {
	if lang = strings.TrimSpace(lang); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return b.Match(tag)
		}
	}
	if accept := strings.TrimSpace(acceptLanguage); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return b.Match(tags...)
		}
	}
	return b.tags[0]
}

// Message returns key in locale, falling back to the base locale and then to key itself.
func (b *Bundle) Message(tag language.Tag, key string) string {
	if msgs, ok := b.locales[tag.String()]; ok {
		if v, ok := msgs[key]; ok {
			return v
		}
	}
	if v, ok := b.locales[BaseLocale][key]; ok {
		return v
	}
	return key
}

// Printer returns an x/text printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// T translates key with the default bundle.
func T(tag language.Tag, key string) string {
	return defaultBundle.Message(tag, key)
}
