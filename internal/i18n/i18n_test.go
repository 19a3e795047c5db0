package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDefaultBundle(t *testing.T) {
	b := Default()
	assert.Equal(t, []string{"en-US", "zh-TW"}, b.Locales())

	en := language.MustParse("en-US")
	zh := language.MustParse("zh-TW")
	assert.Equal(t, "resource not found", b.Message(en, "error.NOT_FOUND"))
	assert.Equal(t, "找不到資源", b.Message(zh, "error.NOT_FOUND"))
	assert.Equal(t, "error.UNKNOWN", b.Message(zh, "error.UNKNOWN"))
}

func TestCatalogsHaveTheSameKeys(t *testing.T) {
	b := Default()
	base := b.locales[BaseLocale]
	for _, locale := range b.Locales() {
		for key := range base {
			_, ok := b.locales[locale][key]
			assert.True(t, ok, "%s misses %s", locale, key)
		}
		assert.Len(t, b.locales[locale], len(base), locale)
	}
}

func TestResolve(t *testing.T) {
	b := Default()
	tests := []struct {
		name   string
		lang   string
		accept string
		want   string
	}{
		{name: "default", want: "en-US"},
		{name: "query wins", lang: "zh-TW", accept: "en-US", want: "zh-TW"},
		{name: "accept language", accept: "zh-TW,zh;q=0.9,en;q=0.8", want: "zh-TW"},
		{name: "unsupported falls back", accept: "fr-FR", want: "en-US"},
		{name: "garbage query ignored", lang: "!!", accept: "zh-TW", want: "zh-TW"},
		{name: "garbage header", accept: ";;;", want: "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Resolve(tt.lang, tt.accept).String())
		})
	}
}

func TestPrinterUsesRegisteredMessages(t *testing.T) {
	p := Printer(language.MustParse("zh-TW"))
	assert.Equal(t, "正常", p.Sprintf("core.status.healthy"))
}

func TestLoadFromFS_Validation(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{name: "empty", fs: fstest.MapFS{}},
		{name: "locale mismatch", fs: fstest.MapFS{
			"locales/en-US/core.yaml": {Data: []byte("locale: zh-TW\nnamespace: core\nmessages: {a: b}\n")},
		}},
		{name: "namespace mismatch", fs: fstest.MapFS{
			"locales/en-US/core.yaml": {Data: []byte("locale: en-US\nnamespace: web\nmessages: {a: b}\n")},
		}},
		{name: "unknown field", fs: fstest.MapFS{
			"locales/en-US/core.yaml": {Data: []byte("locale: en-US\nnamespace: core\nextra: 1\n")},
		}},
		{name: "missing base locale", fs: fstest.MapFS{
			"locales/zh-TW/core.yaml": {Data: []byte("locale: zh-TW\nnamespace: core\nmessages: {a: b}\n")},
		}},
		{name: "duplicate key", fs: fstest.MapFS{
			"locales/en-US/core.yaml": {Data: []byte("locale: en-US\nnamespace: core\nmessages: {a: b}\n")},
			"locales/en-US/web.yaml":  {Data: []byte("locale: en-US\nnamespace: web\nmessages: {a: c}\n")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFS(tt.fs)
			assert.Error(t, err)
		})
	}

	b, err := LoadFromFS(fstest.MapFS{
		"locales/en-US/core.yaml": {Data: []byte("locale: en-US\nnamespace: core\nmessages: {a: b}\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", b.Message(language.MustParse("en-US"), "a"))
}
