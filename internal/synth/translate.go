package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/core/llm"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
	"github.com/lueurxax/wikisynth/internal/platform/worker"
)

const translationWorkerName = "translate"

// translateAll translates every edition into target on the worker pool.
// Failed translations are dropped.
func (p *Pipeline) translateAll(ctx context.Context, editions map[string]string, target string, logger *zerolog.Logger) map[string]string {
	languages := sortedKeys(editions)

	results, err := worker.Map(ctx, worker.Config{
		Name:   translationWorkerName,
		Limit:  p.cfg.TranslationWorkers,
		Logger: logger,
	}, languages, func(ctx context.Context, lang string) (string, error) {
		return p.Translate(ctx, editions[lang], lang, target)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("translation interrupted")
	}

	for _, r := range results {
		if r.Err != nil {
			observability.TranslationFailures.WithLabelValues(r.Key).Inc()
		}
	}

	return worker.Collect(results)
}

// Translate streams a translation of text from one language into another.
// Text already in the target language is returned as is.
func (p *Pipeline) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}

	resp, err := p.llm.Stream(ctx, llm.Request{
		Task:      llm.TaskTypeTranslate,
		Prompt:    llm.BuildTranslationPrompt(from, to, truncateRunes(text, p.cfg.MaxArticleChars)),
		MaxTokens: p.cfg.TranslationMaxTokens,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", from, to, err)
	}

	translated := strings.TrimSpace(resp.Text)
	if translated == "" {
		return "", fmt.Errorf("translate %s->%s: %w", from, to, apperrors.ErrEmptyResponse)
	}

	return translated, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}

		count++
	}

	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
