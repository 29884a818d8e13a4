package llm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	promptTitlePlaceholder      = "{{TITLE}}"
	promptMaxPlaceholder        = "{{MAX}}"
	promptSourcePlaceholder     = "{{SOURCE_LANG}}"
	promptOptionsPlaceholder    = "{{LANG_OPTIONS}}"
	promptFromPlaceholder       = "{{FROM_LANG}}"
	promptToPlaceholder         = "{{TO_LANG}}"
	promptTextPlaceholder       = "{{TEXT}}"
	promptCountPlaceholder      = "{{COUNT}}"
	promptTargetPlaceholder     = "{{TARGET_LANG}}"
	promptTargetCodePlaceholder = "{{TARGET_CODE}}"
	promptVersionsPlaceholder   = "{{VERSIONS}}"
)

const defaultLanguageSelectionPrompt = `Select the {{MAX}} most relevant Wikipedia language editions for "{{TITLE}}".

Choose languages that would provide:
- Unique perspectives and complementary information
- Culturally significant details
- Comprehensive coverage from diverse viewpoints

Available language options (language code: article title):
{{LANG_OPTIONS}}

Select at most {{MAX}} languages, NOT including the source language {{SOURCE_LANG}}.
Use only codes from the list above.

Respond with JSON:
{
  "selected_languages": ["xx", "yy", "zz"],
  "rationale": "brief explanation"
}`

const defaultTranslationPrompt = `Translate from {{FROM_LANG}} to {{TO_LANG}}.
Maintain the original structure and formatting.

TEXT TO TRANSLATE:
{{TEXT}}

TRANSLATION:`

const defaultSynthesisPrompt = `I have {{COUNT}} versions of the Wikipedia article '{{TITLE}}' from different language editions, all translated to {{TARGET_LANG}}.

Your task: synthesize these into a single comprehensive article. Do not worry about length constraints - include all important information.

{{VERSIONS}}
Combine these Wikipedia versions into a single comprehensive article in {{TARGET_LANG}}.

Requirements:
1. Follow Wikipedia's neutral point of view
2. Maintain encyclopedic tone
3. Include all important facts from all language versions
4. Create well-structured sections and subsections
5. Resolve contradictions by noting different perspectives
6. Reference source languages when relevant
7. Include hyperlinks using format: [text](/article/{{TARGET_CODE}}/Article_Name)
   - Generate links liberally for an interconnected knowledge base
   - Use correct capitalization
   - Replace spaces with underscores
   - Handle parentheses carefully: [text](/article/{{TARGET_CODE}}/Name_(disambiguation))

SYNTHESIZED ARTICLE:`

const synthesisVersionFormat = "VERSION FROM %s WIKIPEDIA:\n%s\n\n---\n\n"

// LanguageOption is one available language edition offered to the selector.
type LanguageOption struct {
	Language string
	Title    string
}

// LanguageName returns the English display name for a language code, e.g.
// "German (de)". Unknown codes are returned unchanged.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}

	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}

	return fmt.Sprintf("%s (%s)", name, code)
}

// BuildLanguageSelectionPrompt asks the model to pick the most relevant editions.
func BuildLanguageSelectionPrompt(title, sourceLang string, maxLanguages int, options []LanguageOption) string {
	lines := make([]string, 0, len(options))
	for _, opt := range options {
		lines = append(lines, fmt.Sprintf("%s: %s", opt.Language, opt.Title))
	}

	return strings.NewReplacer(
		promptMaxPlaceholder, strconv.Itoa(maxLanguages),
		promptTitlePlaceholder, title,
		promptSourcePlaceholder, sourceLang,
		promptOptionsPlaceholder, strings.Join(lines, "\n"),
	).Replace(defaultLanguageSelectionPrompt)
}

// BuildTranslationPrompt asks the model to translate text between languages.
func BuildTranslationPrompt(fromLang, toLang, text string) string {
	return strings.NewReplacer(
		promptFromPlaceholder, LanguageName(fromLang),
		promptToPlaceholder, LanguageName(toLang),
		promptTextPlaceholder, text,
	).Replace(defaultTranslationPrompt)
}

// BuildSynthesisPrompt combines the translated versions into one synthesis request.
// Versions are emitted in language-code order so the prompt is deterministic.
func BuildSynthesisPrompt(title, targetLang string, versions map[string]string) string {
	langs := make([]string, 0, len(versions))
	for lang := range versions {
		langs = append(langs, lang)
	}

	sort.Strings(langs)

	var sb strings.Builder

	for _, lang := range langs {
		sb.WriteString(fmt.Sprintf(synthesisVersionFormat, strings.ToUpper(lang), versions[lang]))
	}

	return strings.NewReplacer(
		promptCountPlaceholder, strconv.Itoa(len(versions)),
		promptTitlePlaceholder, title,
		promptTargetPlaceholder, LanguageName(targetLang),
		promptTargetCodePlaceholder, targetLang,
		promptVersionsPlaceholder, sb.String(),
	).Replace(defaultSynthesisPrompt)
}
