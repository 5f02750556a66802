package utils

import (
	"context"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var shortHosts = []string{"amzn.in", "amzn.to", "amzn.eu", "dl.flipkart.com", "fkrt.it", "bit.ly", "myntr.it", "tinyurl.com"}

var resolveClient = &http.Client{Timeout: 15 * time.Second}

// IsShortURL reports whether rawURL points at a known link shortener
func IsShortURL(rawURL string) bool {
	u, err := neturl.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range shortHosts {
		if host == h {
			return true
		}
	}
	return false
}

// ResolveShortenedURL follows redirects to find the final URL. Non-short
// URLs are returned unchanged without a network call.
func ResolveShortenedURL(ctx context.Context, url string) (string, error) {
	if !IsShortURL(url) {
		return url, nil
	}

	resp, err := resolve(ctx, http.MethodHead, url)
	if err != nil || resp.StatusCode != http.StatusOK {
		// Some shorteners reject HEAD
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = resolve(ctx, http.MethodGet, url)
		if err != nil {
			return url, err
		}
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}

func resolve(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	return resolveClient.Do(req)
}
