package synth

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/core/llm"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

const selectionTemperature = 0.2

type selectionReply struct {
	SelectedLanguages []string `json:"selected_languages"`
	Rationale         string   `json:"rationale"`
}

// SelectLanguages asks the model for the most relevant editions among links.
// Only codes present in links are kept, the source language is excluded and
// at most maxLanguages are returned. When the model fails or keeps nothing,
// the first maxLanguages link languages in alphabetical order are used.
func (p *Pipeline) SelectLanguages(ctx context.Context, title, sourceLang string, links []domain.LangLink, maxLanguages int) []string {
	if maxLanguages <= 0 || len(links) == 0 {
		return nil
	}

	options := make([]llm.LanguageOption, 0, len(links))
	for _, l := range links {
		options = append(options, llm.LanguageOption{Language: l.Language, Title: l.Title})
	}

	resp, err := p.llm.Complete(ctx, llm.Request{
		Task:        llm.TaskTypeLanguageSelect,
		Prompt:      llm.BuildLanguageSelectionPrompt(title, sourceLang, maxLanguages, options),
		MaxTokens:   p.cfg.SelectionMaxTokens,
		Temperature: llm.Float32(selectionTemperature),
		JSON:        true,
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("language selection failed, using alphabetical order")
		return fallbackLanguages(sourceLang, links, maxLanguages)
	}

	selected := filterSelection(resp.Text, sourceLang, links, maxLanguages)
	if len(selected) == 0 {
		p.logger.Warn().Str("reply", resp.Text).Msg("language selection unusable, using alphabetical order")
		return fallbackLanguages(sourceLang, links, maxLanguages)
	}

	return selected
}

func filterSelection(text, sourceLang string, links []domain.LangLink, maxLanguages int) []string {
	object, ok := llm.ExtractJSONObject(text)
	if !ok {
		return nil
	}

	var reply selectionReply
	if err := json.Unmarshal([]byte(object), &reply); err != nil {
		return nil
	}

	available := make(map[string]bool, len(links))
	for _, l := range links {
		available[l.Language] = true
	}

	seen := make(map[string]bool, len(reply.SelectedLanguages))
	selected := make([]string, 0, maxLanguages)

	for _, code := range reply.SelectedLanguages {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == sourceLang || !available[code] || seen[code] {
			continue
		}

		seen[code] = true
		selected = append(selected, code)

		if len(selected) == maxLanguages {
			break
		}
	}

	return selected
}

func fallbackLanguages(sourceLang string, links []domain.LangLink, maxLanguages int) []string {
	observability.LanguageSelectionFallbacks.Inc()

	langs := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))

	for _, l := range links {
		if l.Language == sourceLang || seen[l.Language] {
			continue
		}

		seen[l.Language] = true
		langs = append(langs, l.Language)
	}

	sort.Strings(langs)

	if len(langs) > maxLanguages {
		langs = langs[:maxLanguages]
	}

	return langs
}
