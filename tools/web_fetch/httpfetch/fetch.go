package httpfetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/quarrylabs/quarry/tools/web_fetch/models"
)

// Fetch retrieves a page over plain HTTP and extracts the readable article
// text. Cheaper than headless rendering and good enough for pages that do not
// require JavaScript.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
}

func (f Fetch) Exec(ctx context.Context, pageURL string) (models.Result, error) {
	if strings.TrimSpace(pageURL) == "" {
		return models.Result{}, errors.New("invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return models.Result{URL: pageURL, Status: 599}, nil
	}
	req.Header.Set("User-Agent", "quarry/1.0 (+https://github.com/quarrylabs/quarry)")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.Result{URL: pageURL, Status: 599, RenderMS: int(time.Since(t0) / time.Millisecond)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Result{URL: pageURL, Status: resp.StatusCode, RenderMS: int(time.Since(t0) / time.Millisecond)}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return models.Result{URL: pageURL, Status: 599, RenderMS: int(time.Since(t0) / time.Millisecond)}, nil
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), mustParseURL(pageURL))
	if err != nil {
		// Unextractable page, fall back to the raw body so label scans still work.
		text := string(body)
		if len(text) > f.MaxChars {
			text = text[:f.MaxChars]
		}
		return models.Result{
			URL:      pageURL,
			Text:     strings.TrimSpace(text),
			Status:   resp.StatusCode,
			RenderMS: int(time.Since(t0) / time.Millisecond),
		}, nil
	}

	text := article.TextContent
	if len(text) > f.MaxChars {
		text = text[:f.MaxChars]
	}

	return models.Result{
		URL:      pageURL,
		Title:    strings.TrimSpace(article.Title),
		Text:     strings.TrimSpace(text),
		Status:   resp.StatusCode,
		RenderMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
