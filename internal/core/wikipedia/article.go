package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/lueurxax/wikisynth/internal/cachematch"
	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/platform/htmlutils"
)

const (
	parseProps       = "text|langlinks|displaytitle"
	errPageRange     = "page %d out of range (total %d)"
	minReadableShare = 0.9
)

// Search returns one page of an article. A missing article is reported with
// Found=false and a nil error; transport and API failures return an error.
func (c *Client) Search(ctx context.Context, title, language string, page int) (PageResult, error) {
	article, err := c.parsed(ctx, title, language)
	if err != nil {
		if errors.Is(err, ErrArticleNotFound) {
			return PageResult{Found: false, Page: page, Error: err.Error()}, nil
		}

		return PageResult{Found: false, Page: page, Error: err.Error()}, err
	}

	total := len(article.pages)
	if page < 0 || page >= total {
		return PageResult{Found: false, Title: article.title, Page: page, TotalPages: total, Error: fmt.Sprintf(errPageRange, page, total)}, nil
	}

	return PageResult{
		Found:      true,
		Title:      article.title,
		Content:    article.pages[page],
		Page:       page,
		TotalPages: total,
		LangLinks:  article.langLinks,
	}, nil
}

// FetchArticle reads every page of an article in order. When a later page
// fails the pages read so far are returned with Partial set.
func (c *Client) FetchArticle(ctx context.Context, title, language string) (Article, error) {
	article := Article{Title: title, Language: language}

	c.forget(memoKey(language, title))

	var text strings.Builder

	for page := 0; ; page++ {
		result, err := c.Search(ctx, title, language, page)
		if err == nil && !result.Found {
			err = fmt.Errorf(errNotFoundFmt, ErrArticleNotFound, language, title)
		}

		if err != nil {
			if page == 0 {
				return Article{}, err
			}

			c.logger.Warn().Err(err).Str(logKeyTitle, title).Str(logKeyLanguage, language).Int(logKeyPage, page).
				Msg("returning partial article")

			article.Partial = true

			break
		}

		if page == 0 {
			article.Title = result.Title
			article.LangLinks = result.LangLinks
		}

		text.WriteString(result.Content)

		if page >= result.TotalPages-1 {
			break
		}

		c.logger.Debug().Str(logKeyTitle, title).Int(logKeyPage, page+1).Int(logKeyTotalPages, result.TotalPages).
			Msg("retrieved article page")
	}

	article.Text = text.String()

	return article, nil
}

// FindTitle resolves a loose query to the closest existing article title in
// one edition using title suggestions.
func (c *Client) FindTitle(ctx context.Context, query, language string) (string, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", fmt.Sprint(c.searchLimit))
	params.Set("namespace", "0")
	params.Set("redirects", "resolve")

	var raw []json.RawMessage
	if err := c.getJSON(ctx, language, actionOpenSearch, params, &raw); err != nil {
		return "", err
	}

	if len(raw) < 2 {
		return "", fmt.Errorf(errNotFoundFmt, ErrArticleNotFound, language, query)
	}

	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil || len(titles) == 0 {
		return "", fmt.Errorf(errNotFoundFmt, ErrArticleNotFound, language, query)
	}

	best, bestScore := titles[0], -1.0

	for _, t := range titles {
		if score := cachematch.Score(query, t); score > bestScore {
			best, bestScore = t, score
		}
	}

	return best, nil
}

// parsed fetches and cleans an article, reusing the last result for repeated
// page requests on the same title.
func (c *Client) parsed(ctx context.Context, title, language string) (*parsedArticle, error) {
	key := memoKey(language, title)
	if article, ok := c.memoized(key); ok {
		return article, nil
	}

	params := url.Values{}
	params.Set("page", title)
	params.Set("prop", parseProps)
	params.Set("redirects", "1")
	params.Set("formatversion", "2")

	var resp parseResponse
	if err := c.getJSON(ctx, language, actionParse, params, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		if isNotFoundCode(resp.Error.Code) {
			return nil, fmt.Errorf(errNotFoundFmt, ErrArticleNotFound, language, title)
		}

		return nil, fmt.Errorf(errAPIFmt, ErrAPIError, resp.Error.Code, resp.Error.Info)
	}

	if resp.Parse == nil {
		return nil, fmt.Errorf(errNotFoundFmt, ErrArticleNotFound, language, title)
	}

	pageURL, err := url.Parse(c.articleURL(language, resp.Parse.Title))
	if err != nil {
		pageURL = &url.URL{}
	}

	links := make([]domain.LangLink, 0, len(resp.Parse.LangLinks))
	for _, l := range resp.Parse.LangLinks {
		links = append(links, domain.LangLink{Language: l.Lang, Title: l.Title})
	}

	article := &parsedArticle{
		title:     resp.Parse.Title,
		pages:     htmlutils.SplitText(extractText(resp.Parse.Text, pageURL), c.pageSize),
		langLinks: links,
	}

	c.remember(key, article)

	return article, nil
}

func (c *Client) articleURL(language, title string) string {
	endpoint, err := c.endpoint(language)
	if err != nil {
		return ""
	}

	base := strings.TrimSuffix(endpoint, "/w/api.php")

	return base + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// extractText turns rendered article HTML into plain text. Readability picks
// the main content; when it drops more than a tenth of the text the cleaned
// page is used whole.
func extractText(rendered string, pageURL *url.URL) string {
	cleaned, err := htmlutils.CleanHTML(rendered)
	if err != nil {
		return ""
	}

	full := htmlutils.ToText(cleaned)

	if pageURL == nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), pageURL)
	if err != nil {
		return full
	}

	mainText := htmlutils.ToText(article.Content)
	if float64(len(mainText)) < minReadableShare*float64(len(full)) {
		return full
	}

	return mainText
}
