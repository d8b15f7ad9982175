package deck

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys of the built-in catalog.
const (
	msgDefaultTitle    = "default title"
	msgDefaultText     = "default text"
	msgDefaultFileName = "default file name"
)

// SupportedLanguages lists the languages with translated defaults. The first
// entry is used when nothing matches.
var SupportedLanguages = []language.Tag{language.English, language.Russian}

var (
	messages = newCatalog()
	matcher  = language.NewMatcher(SupportedLanguages)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}
	set(language.English, msgDefaultTitle, "New presentation")
	set(language.English, msgDefaultText, "Enter text")
	set(language.English, msgDefaultFileName, "presentation")

	set(language.Russian, msgDefaultTitle, "Новая презентация")
	set(language.Russian, msgDefaultText, "Введите текст")
	set(language.Russian, msgDefaultFileName, "презентация")
	return b
}

// MatchLanguage picks the best supported language for an Accept-Language
// header value. Malformed or empty input yields English.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return SupportedLanguages[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return SupportedLanguages[0]
	}
	return SupportedLanguages[idx]
}

func localize(lang language.Tag, key string) string {
	_, idx, conf := matcher.Match(lang)
	if conf == language.No {
		idx = 0
	}
	return message.NewPrinter(SupportedLanguages[idx], message.Catalog(messages)).Sprintf(key)
}

// DefaultTitle returns the title given to new presentations.
func DefaultTitle(lang language.Tag) string { return localize(lang, msgDefaultTitle) }

// DefaultText returns the placeholder content of new text boxes.
func DefaultText(lang language.Tag) string { return localize(lang, msgDefaultText) }

// DefaultEditorState returns an empty editor titled for lang.
func DefaultEditorState(lang language.Tag) EditorState {
	return NewEditorState(DefaultTitle(lang))
}

// JSONFileName returns the file name for a JSON export. An empty name uses
// the localized default; the ".json" extension is added when missing.
func JSONFileName(name string, lang language.Tag) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".json")
	return SanitizeFileName(name, localize(lang, msgDefaultFileName)) + ".json"
}
