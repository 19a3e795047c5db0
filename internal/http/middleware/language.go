package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"historicalmap/internal/i18n"
)

// LanguageLocalKey holds the resolved language.Tag in Fiber's context locals.
const LanguageLocalKey = "lang"

// Language resolves the response language from the lang query parameter or the
// Accept-Language header and sets Content-Language. Requests naming neither get fallback,
// or the base locale when fallback is empty.
func Language(bundle *i18n.Bundle, fallback string) fiber.Handler {
	if bundle == nil {
		bundle = i18n.Default()
	}
	return func(c *fiber.Ctx) error {
		lang, accept := c.Query("lang"), c.Get(fiber.HeaderAcceptLanguage)
		if lang == "" && accept == "" {
			lang = fallback
		}
		tag := bundle.Resolve(lang, accept)
		c.Locals(LanguageLocalKey, tag)
		c.Set(fiber.HeaderContentLanguage, tag.String())
		return c.Next()
	}
}

// LanguageFromCtx returns the tag stored by Language, or the base locale.
func LanguageFromCtx(c *fiber.Ctx) language.Tag {
	if tag, ok := c.Locals(LanguageLocalKey).(language.Tag); ok {
		return tag
	}
	return language.MustParse(i18n.BaseLocale)
}
