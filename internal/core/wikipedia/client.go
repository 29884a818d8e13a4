// Package wikipedia provides a client for the MediaWiki action API.
//
// The Client is used for:
//   - Fetching rendered articles with their interlanguage links (action=parse)
//   - Paginating long articles into rune-bounded pages
//   - Resolving loose titles through title suggestions (action=opensearch)
//
// The client handles rate limiting, retries with backoff and JSON decoding.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

const (
	defaultBaseURLTemplate = "https://%s.wikipedia.org/w/api.php"
	defaultUserAgent       = "wikisynth/1.0 (multilingual article synthesizer)"
	defaultTimeout         = 30 * time.Second
	defaultRPS             = 5
	defaultPageSize        = 20000
	defaultMaxRetries      = 3
	defaultSearchLimit     = 5
	defaultRetryDelay      = 500 * time.Millisecond
	limiterBurst           = 5
	maxResponseBodySize    = 20 * 1024 * 1024 // 20MB
	errBodyReadLimit       = 512
	headerUserAgent        = "User-Agent"
	headerAccept           = "Accept"
	contentTypeJSON        = "application/json"

	actionParse      = "parse"
	actionOpenSearch = "opensearch"

	statusOK    = "ok"
	statusError = "error"

	errStatusFmt     = "%w: status %d, body: %s"
	errAPIFmt        = "%w: %s: %s"
	errLanguageFmt   = "%w: %q"
	errNotFoundFmt   = "%w: %s:%s"
	logKeyTitle      = "title"
	logKeyLanguage   = "language"
	logKeyPage       = "page"
	logKeyAction     = "action"
	logKeyTotalPages = "total_pages"
)

var languagePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{1,19}$`)

// Client talks to the MediaWiki API of any language edition.
type Client struct {
	baseURLTemplate string
	userAgent       string
	httpClient      *http.Client
	limiter         *rate.Limiter
	pageSize        int
	maxRetries      int
	searchLimit     int
	retryDelay      time.Duration
	logger          *zerolog.Logger

	mu   sync.Mutex
	last *memoEntry
}

type memoEntry struct {
	key     string
	article *parsedArticle
}

// New creates a new MediaWiki client with the given configuration.
func New(cfg Config, logger *zerolog.Logger) *Client {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	c := &Client{
		baseURLTemplate: cfg.BaseURLTemplate,
		userAgent:       cfg.UserAgent,
		pageSize:        cfg.PageSize,
		maxRetries:      cfg.MaxRetries,
		searchLimit:     cfg.SearchLimit,
		retryDelay:      defaultRetryDelay,
		logger:          logger,
	}

	if c.baseURLTemplate == "" {
		c.baseURLTemplate = defaultBaseURLTemplate
	}

	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}

	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}

	if c.maxRetries < 0 {
		c.maxRetries = defaultMaxRetries
	}

	if c.searchLimit <= 0 {
		c.searchLimit = defaultSearchLimit
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}

	c.httpClient = &http.Client{Timeout: timeout}
	c.limiter = rate.NewLimiter(rate.Limit(rps), limiterBurst)

	return c
}

// ValidLanguage reports whether code looks like a Wikipedia edition code.
func ValidLanguage(code string) bool {
	return languagePattern.MatchString(code)
}

// endpoint returns the api.php URL for a language edition.
func (c *Client) endpoint(language string) (string, error) {
	if !ValidLanguage(language) {
		return "", fmt.Errorf(errLanguageFmt, apperrors.ErrInvalidLanguage, language)
	}

	return fmt.Sprintf(c.baseURLTemplate, language), nil
}

// getJSON performs a GET against the API and decodes the reply into out.
// Throttling, server errors and transport failures are retried with
// exponential backoff.
func (c *Client) getJSON(ctx context.Context, language, action string, params url.Values, out any) error {
	endpoint, err := c.endpoint(language)
	if err != nil {
		return err
	}

	params.Set("action", action)
	params.Set("format", "json")

	reqURL := endpoint + "?" + params.Encode()
	start := time.Now()

	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryDelay)) //nolint:gosec // maxRetries is non-negative

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		retryable, err := c.doGet(ctx, reqURL, out)
		if err != nil && retryable {
			c.logger.Debug().Err(err).Str(logKeyAction, action).Msg("retrying wikipedia request")
			return retry.RetryableError(err)
		}

		return err
	})

	observability.WikiRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

	status := statusOK
	if err != nil {
		status = statusError
	}

	observability.WikiRequests.WithLabelValues(action, status).Inc()

	return err
}

// doGet runs one request. retryable reports whether a failure is transient.
func (c *Client) doGet(ctx context.Context, reqURL string, out any) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerUserAgent, c.userAgent)
	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyReadLimit))

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return true, fmt.Errorf(errStatusFmt, ErrServerError, resp.StatusCode, string(body))
		}

		return false, fmt.Errorf(errStatusFmt, ErrBadRequest, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	return false, nil
}

// memoized returns the last parsed article when it matches key.
func (c *Client) memoized(key string) (*parsedArticle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.last.key == key {
		return c.last.article, true
	}

	return nil, false
}

func (c *Client) remember(key string, article *parsedArticle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = &memoEntry{key: key, article: article}
}

func (c *Client) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.last.key == key {
		c.last = nil
	}
}

func memoKey(language, title string) string {
	return language + ":" + title
}

func isNotFoundCode(code string) bool {
	switch code {
	case "missingtitle", "invalidtitle", "nosuchpageid", "pagecannotexist":
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err means the article does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrArticleNotFound)
}
