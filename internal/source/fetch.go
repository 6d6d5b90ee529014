package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrSourceUnavailable covers transport failures, timeouts, non-2xx
// responses and wrong content types. Retryable: a later fetch of the same
// URL may succeed.
var ErrSourceUnavailable = errors.New("question source unavailable")

// Fetcher retrieves the raw CSV body of a question source. Narrow
// interface so the cache can be tested without network access.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (string, error)
}

// HTTPFetcher fetches published spreadsheet CSV exports over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch GETs the source and validates that the response is CSV. A
// cache-busting timestamp param is appended so intermediaries don't serve
// a stale sheet export.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bustCache(sourceURL), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: fetch returned %s", ErrSourceUnavailable, resp.Status)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "text/csv") {
		return "", fmt.Errorf("%w: unexpected content type %q", ErrSourceUnavailable, ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return string(body), nil
}

func bustCache(sourceURL string) string {
	sep := "?"
	if strings.Contains(sourceURL, "?") {
		sep = "&"
	}
	return sourceURL + sep + "_=" + url.QueryEscape(strconv.FormatInt(time.Now().UnixMilli(), 10))
}
