package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "de", want: "German (de)"},
		{code: "en", want: "English (en)"},
		{code: "fr", want: "French (fr)"},
		{code: "not a code", want: "not a code"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageName(tt.code))
		})
	}
}

func TestBuildLanguageSelectionPrompt(t *testing.T) {
	prompt := BuildLanguageSelectionPrompt("Albert Einstein", "en", 3, []LanguageOption{
		{Language: "de", Title: "Albert Einstein"},
		{Language: "ja", Title: "アルベルト・アインシュタイン"},
	})

	wantContains := []string{
		`Select the 3 most relevant Wikipedia language editions for "Albert Einstein".`,
		"de: Albert Einstein\nja: アルベルト・アインシュタイン",
		"NOT including the source language en",
		`"selected_languages"`,
	}

	for _, want := range wantContains {
		assert.Contains(t, prompt, want)
	}

	assert.NotContains(t, prompt, "{{")
}

func TestBuildTranslationPrompt(t *testing.T) {
	prompt := BuildTranslationPrompt("de", "en", "Ein Text mit {{TITLE}} darin.")

	assert.True(t, strings.HasPrefix(prompt, "Translate from German (de) to English (en)."))
	assert.Contains(t, prompt, "Ein Text mit {{TITLE}} darin.")
	assert.True(t, strings.HasSuffix(prompt, "TRANSLATION:"))
}

func TestBuildSynthesisPrompt(t *testing.T) {
	prompt := BuildSynthesisPrompt("Quark", "en", map[string]string{
		"fr": "texte français",
		"de": "deutscher Text",
	})

	assert.Contains(t, prompt, "I have 2 versions of the Wikipedia article 'Quark'")
	assert.Contains(t, prompt, "[text](/article/en/Article_Name)")
	assert.Contains(t, prompt, "neutral point of view")

	deIdx := strings.Index(prompt, "VERSION FROM DE WIKIPEDIA:\ndeutscher Text")
	frIdx := strings.Index(prompt, "VERSION FROM FR WIKIPEDIA:\ntexte français")

	assert.GreaterOrEqual(t, deIdx, 0)
	assert.Greater(t, frIdx, deIdx)
}
