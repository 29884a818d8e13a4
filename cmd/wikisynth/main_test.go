package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/platform/config"
	"github.com/lueurxax/wikisynth/internal/synth"
)

func testCommandContext(t *testing.T) *commandContext {
	t.Helper()

	cfg := &config.Config{
		AppEnv:   "production",
		LogLevel: "error",
		Cache: config.CacheConfig{
			Dir:       "/cache",
			Extension: ".md",
			LockDir:   filepath.Join(t.TempDir(), "locks"),
		},
		Match: config.MatchConfig{Enabled: true, SimilarityThreshold: 0.95, Timeout: time.Second},
		Synthesis: config.SynthesisConfig{
			MaxTranslations:    2,
			TranslationWorkers: 2,
		},
		Wiki: config.WikiConfig{
			BaseURLTemplate: "http://127.0.0.1:0/%s/api.php",
			PageSize:        1000,
		},
	}

	return &commandContext{
		loadConfig: func() (*config.Config, error) { return cfg, nil },
		fs:         afero.NewMemMapFs(),
		logOutput:  io.Discard,
	}
}

func execute(t *testing.T, c *commandContext, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCommand(c)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand(testCommandContext(t))

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t, []string{"synthesize", "resolve", "providers", "serve"}, names)
}

func TestSynthesizeRequiresArgs(t *testing.T) {
	_, err := execute(t, testCommandContext(t), "synthesize", "Albert Einstein")
	require.Error(t, err)
}

func TestSynthesizeServesCachedArticle(t *testing.T) {
	c := testCommandContext(t)
	require.NoError(t, afero.WriteFile(c.fs, "/cache/en/Albert_Einstein.md", []byte("# Albert Einstein"), 0o644))

	out, err := execute(t, c, "synthesize", "Albert Einstein", "en")
	require.NoError(t, err)
	assert.Equal(t, "# Albert Einstein\n", out)
}

func TestSynthesizeWritesOutputFile(t *testing.T) {
	c := testCommandContext(t)
	require.NoError(t, afero.WriteFile(c.fs, "/cache/en/Albert_Einstein.md", []byte("# Albert Einstein"), 0o644))

	out, err := execute(t, c, "synthesize", "Albert Einstein", "en", "--output", "/tmp/einstein.md")
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := afero.ReadFile(c.fs, "/tmp/einstein.md")
	require.NoError(t, err)
	assert.Equal(t, "# Albert Einstein\n", string(written))
}

func TestResolveCommandPrintsDecision(t *testing.T) {
	c := testCommandContext(t)
	require.NoError(t, afero.WriteFile(c.fs, "/cache/en/Albert_Einstein.md", []byte("body"), 0o644))

	out, err := execute(t, c, "resolve", "albert einstein", "en")
	require.NoError(t, err)

	assert.Contains(t, out, "Albert_Einstein")
	assert.Contains(t, out, string(domain.OutcomeDeterministic))
	assert.Contains(t, out, "true")
}

func TestProvidersCommand(t *testing.T) {
	out, err := execute(t, testCommandContext(t), "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "mock")
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, 1)

	assert.Contains(t, got, "A")
	assert.Contains(t, got, "3")
	assert.Equal(t, "", renderTable(nil, nil))
}

func TestSummarize(t *testing.T) {
	got := summarize(synth.Result{
		RunID:     "r1",
		Source:    domain.SourceSynthesized,
		Entry:     domain.CachedEntry{Location: "/cache/en/X.md"},
		Languages: []string{"de", "en"},
	})

	assert.Equal(t, "source=synthesized run_id=r1 location=/cache/en/X.md languages=de,en", got)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger("production", "warn", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.False(t, strings.Contains(buf.String(), "hidden"))
	assert.Contains(t, buf.String(), `"message":"shown"`)

	buf.Reset()

	fallback := newLogger("production", "not-a-level", &buf)
	fallback.Debug().Msg("debug")
	assert.Empty(t, buf.String())
}
