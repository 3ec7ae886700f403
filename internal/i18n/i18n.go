// Package i18n holds the localized strings used when composing
// notifications and resolves a user's locale against them.
package i18n

import (
	"sync/atomic"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	KeySomeone       = "channel_loader.someone"
	KeyUploadedImage = "channel_loader.uploadedImage"
	KeyUploadedFile  = "channel_loader.uploadedFile"
	KeyPostedImage   = "channel_loader.postedImage"
	KeySomethingNew  = "channel_loader.something"
	KeyPosted        = "channel_loader.posted"
	KeyDirectMessage = "notification.dm"
	KeyReplyIn       = "notification.crt" // takes the channel title
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		KeySomeone:       "Someone",
		KeyUploadedImage: " uploaded an image",
		KeyUploadedFile:  " uploaded a file",
		KeyPostedImage:   " posted an image",
		KeySomethingNew:  " did something new",
		KeyPosted:        "Posted",
		KeyDirectMessage: "Direct Message",
		KeyReplyIn:       "Reply in %s",
	},
	language.Spanish: {
		KeySomeone:       "Alguien",
		KeyUploadedImage: " subió una imagen",
		KeyUploadedFile:  " subió un archivo",
		KeyPostedImage:   " publicó una imagen",
		KeySomethingNew:  " hizo algo nuevo",
		KeyPosted:        "Publicado",
		KeyDirectMessage: "Mensaje directo",
		KeyReplyIn:       "Respuesta en %s",
	},
	language.German: {
		KeySomeone:       "Jemand",
		KeyUploadedImage: " hat ein Bild hochgeladen",
		KeyUploadedFile:  " hat eine Datei hochgeladen",
		KeyPostedImage:   " hat ein Bild gepostet",
		KeySomethingNew:  " hat etwas Neues gemacht",
		KeyPosted:        "Gepostet",
		KeyDirectMessage: "Direktnachricht",
		KeyReplyIn:       "Antwort in %s",
	},
}

// Bundle resolves locales and formats localized strings. Safe for concurrent use.
type Bundle struct {
	catalog   *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
	fallback  atomic.Value // language.Tag
}

// NewBundle builds the catalog. defaultLocale is used for empty or
// unsupported locales; an unparsable default falls back to English.
func NewBundle(defaultLocale string) (*Bundle, error) {
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		fallback = language.English
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	// English first so the matcher prefers it on ties.
	supported := []language.Tag{language.English, language.Spanish, language.German}
	for _, tag := range supported {
		for key, msg := range translations[tag] {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}

	bundle := &Bundle{
		catalog:   b,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}
	bundle.fallback.Store(bundle.match(fallback))
	return bundle, nil
}

// SetDefaultLocale changes the locale used for empty locales. An
// unparsable locale leaves the current default in place.
func (b *Bundle) SetDefaultLocale(locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		return
	}
	b.fallback.Store(b.match(tag))
}

// Localize formats key for locale.
func (b *Bundle) Localize(locale, key string, args ...any) string {
	tag := b.fallback.Load().(language.Tag)
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = b.match(parsed)
		}
	}
	return message.NewPrinter(tag, message.Catalog(b.catalog)).Sprintf(key, args...)
}

func (b *Bundle) match(tag language.Tag) language.Tag {
	_, idx, conf := b.matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return b.supported[idx]
}
