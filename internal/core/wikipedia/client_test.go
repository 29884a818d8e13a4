package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
)

const einsteinHTML = `<div class="mw-parser-output">
<p><b>Albert Einstein</b> was a German-born theoretical physicist.<sup class="reference"><a href="#cite_note-1">[1]</a></sup></p>
<h2>Life<span class="mw-editsection">[edit]</span></h2>
<p>Einstein was born in Ulm in 1879. He studied in Zurich and worked at the patent office in Bern.</p>
<p>In 1905 he published four groundbreaking papers on the photoelectric effect, Brownian motion and special relativity.</p>
</div>`

type fakeWiki struct {
	parseCalls  atomic.Int32
	searchCalls atomic.Int32
	failures    atomic.Int32
	userAgent   atomic.Value
}

func (f *fakeWiki) handler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.userAgent.Store(r.Header.Get("User-Agent"))

		if f.failures.Load() > 0 {
			f.failures.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))

		w.Header().Set("Content-Type", "application/json")

		switch q.Get("action") {
		case "parse":
			f.parseCalls.Add(1)
			assert.Equal(t, "text|langlinks|displaytitle", q.Get("prop"))
			assert.Equal(t, "2", q.Get("formatversion"))
			assert.Equal(t, "1", q.Get("redirects"))

			if q.Get("page") != "Albert Einstein" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "missingtitle", "info": "The page you specified doesn't exist."},
				})

				return
			}

			_ = json.NewEncoder(w).Encode(map[string]any{
				"parse": map[string]any{
					"title":        "Albert Einstein",
					"pageid":       736,
					"displaytitle": "Albert Einstein",
					"text":         einsteinHTML,
					"langlinks": []map[string]string{
						{"lang": "de", "title": "Albert Einstein", "url": "https://de.wikipedia.org/wiki/Albert_Einstein"},
						{"lang": "fr", "title": "Albert Einstein", "url": "https://fr.wikipedia.org/wiki/Albert_Einstein"},
					},
				},
			})
		case "opensearch":
			f.searchCalls.Add(1)
			_ = json.NewEncoder(w).Encode([]any{
				q.Get("search"),
				[]string{"Einstein family", "Albert Einstein", "Einstein (crater)"},
				[]string{"", "", ""},
				[]string{"u1", "u2", "u3"},
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
}

func newTestClient(t *testing.T, wiki *fakeWiki, pageSize int) *Client {
	t.Helper()

	srv := httptest.NewServer(wiki.handler(t))
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURLTemplate: srv.URL + "/%s/api.php",
		UserAgent:       "wikisynth-test/1.0",
		RPS:             1000,
		Timeout:         5 * time.Second,
		PageSize:        pageSize,
		MaxRetries:      2,
	}, nil)
	c.retryDelay = time.Millisecond

	return c
}

func TestSearchFirstPage(t *testing.T) {
	wiki := &fakeWiki{}
	c := newTestClient(t, wiki, 20000)

	got, err := c.Search(context.Background(), "Albert Einstein", "en", 0)
	require.NoError(t, err)

	assert.True(t, got.Found)
	assert.Equal(t, "Albert Einstein", got.Title)
	assert.Equal(t, 1, got.TotalPages)
	assert.Contains(t, got.Content, "German-born theoretical physicist")
	assert.Contains(t, got.Content, "Life")
	assert.NotContains(t, got.Content, "[1]")
	assert.NotContains(t, got.Content, "[edit]")
	require.Len(t, got.LangLinks, 2)
	assert.Equal(t, "de", got.LangLinks[0].Language)
	assert.Equal(t, "wikisynth-test/1.0", wiki.userAgent.Load())
}

func TestSearchMissingArticle(t *testing.T) {
	c := newTestClient(t, &fakeWiki{}, 20000)

	got, err := c.Search(context.Background(), "No Such Article", "en", 0)
	require.NoError(t, err)

	assert.False(t, got.Found)
	assert.NotEmpty(t, got.Error)
}

func TestSearchInvalidLanguage(t *testing.T) {
	c := newTestClient(t, &fakeWiki{}, 20000)

	_, err := c.Search(context.Background(), "Albert Einstein", "evil.com/x", 0)
	require.ErrorIs(t, err, apperrors.ErrInvalidLanguage)
}

func TestSearchPageOutOfRange(t *testing.T) {
	c := newTestClient(t, &fakeWiki{}, 20000)

	got, err := c.Search(context.Background(), "Albert Einstein", "en", 3)
	require.NoError(t, err)

	assert.False(t, got.Found)
	assert.Equal(t, 1, got.TotalPages)
}

func TestFetchArticlePaginates(t *testing.T) {
	wiki := &fakeWiki{}
	c := newTestClient(t, wiki, 60)

	first, err := c.Search(context.Background(), "Albert Einstein", "en", 0)
	require.NoError(t, err)
	require.Greater(t, first.TotalPages, 1)

	article, err := c.FetchArticle(context.Background(), "Albert Einstein", "en")
	require.NoError(t, err)

	assert.False(t, article.Partial)
	assert.Equal(t, "Albert Einstein", article.Title)
	assert.Contains(t, article.Text, "German-born theoretical physicist")
	assert.Contains(t, article.Text, "special relativity")
	assert.Len(t, article.LangLinks, 2)
	assert.Equal(t, int32(2), wiki.parseCalls.Load(), "pages after the first come from the parsed article")
}

func TestFetchArticleNotFound(t *testing.T) {
	c := newTestClient(t, &fakeWiki{}, 20000)

	_, err := c.FetchArticle(context.Background(), "No Such Article", "en")
	require.ErrorIs(t, err, ErrArticleNotFound)
	assert.True(t, IsNotFound(err))
}

func TestRetriesTransientFailures(t *testing.T) {
	wiki := &fakeWiki{}
	wiki.failures.Store(2)

	c := newTestClient(t, wiki, 20000)

	got, err := c.Search(context.Background(), "Albert Einstein", "en", 0)
	require.NoError(t, err)
	assert.True(t, got.Found)
}

func TestRetriesGiveUp(t *testing.T) {
	wiki := &fakeWiki{}
	wiki.failures.Store(10)

	c := newTestClient(t, wiki, 20000)

	_, err := c.Search(context.Background(), "Albert Einstein", "en", 0)
	require.ErrorIs(t, err, ErrServerError)
}

func TestFindTitle(t *testing.T) {
	wiki := &fakeWiki{}
	c := newTestClient(t, wiki, 20000)

	got, err := c.FindTitle(context.Background(), "albert einstien", "en")
	require.NoError(t, err)

	assert.Equal(t, "Albert Einstein", got)
	assert.Equal(t, int32(1), wiki.searchCalls.Load())
}

func TestValidLanguage(t *testing.T) {
	for _, ok := range []string{"en", "de", "simple", "zh-yue", "be-tarask"} {
		assert.True(t, ValidLanguage(ok), ok)
	}

	for _, bad := range []string{"", "e", "EN", "en.evil", "../x", strings.Repeat("a", 30)} {
		assert.False(t, ValidLanguage(bad), bad)
	}
}

func TestExtractTextFallsBackToFullText(t *testing.T) {
	got := extractText(einsteinHTML, nil)

	assert.Contains(t, got, "Einstein was born in Ulm")
	assert.NotContains(t, got, "mw-editsection")
}
