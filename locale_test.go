package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   language.Tag
	}{
		{"ru-RU,ru;q=0.9,en;q=0.8", language.Russian},
		{"en-GB", language.English},
		{"de-DE,ru;q=0.5", language.Russian},
		{"ja", language.English},
		{"", language.English},
		{"!!!", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchLanguage(tt.header))
		})
	}
}

func TestLocalizedDefaults(t *testing.T) {
	assert.Equal(t, "New presentation", DefaultTitle(language.English))
	assert.Equal(t, "Новая презентация", DefaultTitle(language.Russian))
	assert.Equal(t, "Введите текст", DefaultText(language.Russian))
	assert.Equal(t, "Enter text", DefaultText(language.French))

	s := DefaultEditorState(language.Russian)
	assert.Equal(t, "Новая презентация", s.Presentation.Title)
	assert.Empty(t, s.Presentation.Slides)
}

func TestJSONFileName(t *testing.T) {
	assert.Equal(t, "presentation.json", JSONFileName("", language.English))
	assert.Equal(t, "презентация.json", JSONFileName("  ", language.Russian))
	assert.Equal(t, "deck.json", JSONFileName("deck.json", language.English))
	assert.Equal(t, "my_deck.json", JSONFileName("my deck", language.English))
}
