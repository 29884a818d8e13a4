package wikipedia

import (
	"time"

	"github.com/lueurxax/wikisynth/internal/core/domain"
)

// Config holds configuration for the MediaWiki client.
type Config struct {
	// BaseURLTemplate is the api.php URL with %s for the language code,
	// e.g. "https://%s.wikipedia.org/w/api.php".
	BaseURLTemplate string
	// UserAgent identifies the client to the API.
	UserAgent string
	// RPS is the request rate across all language editions.
	RPS float64
	// Timeout is the HTTP request timeout.
	Timeout time.Duration
	// PageSize is the page length in runes.
	PageSize int
	// MaxRetries bounds retries of transient failures.
	MaxRetries int
	// SearchLimit is the number of opensearch suggestions considered by FindTitle.
	SearchLimit int
}

// PageResult is one page of an article.
type PageResult struct {
	Found      bool              `json:"found"`
	Title      string            `json:"title,omitempty"`
	Content    string            `json:"content,omitempty"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	LangLinks  []domain.LangLink `json:"language_links,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Article is a fully paginated article.
type Article struct {
	Title     string
	Language  string
	Text      string
	LangLinks []domain.LangLink
	// Partial is set when a later page failed and Text holds only the pages read so far.
	Partial bool
}

// parseResponse is the action=parse reply with formatversion=2.
type parseResponse struct {
	Parse *struct {
		Title        string `json:"title"`
		PageID       int64  `json:"pageid"`
		DisplayTitle string `json:"displaytitle"`
		Text         string `json:"text"`
		LangLinks    []struct {
			Lang     string `json:"lang"`
			Title    string `json:"title"`
			URL      string `json:"url"`
			LangName string `json:"langname"`
		} `json:"langlinks"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// parsedArticle is a cleaned article before pagination.
type parsedArticle struct {
	title     string
	pages     []string
	langLinks []domain.LangLink
}
