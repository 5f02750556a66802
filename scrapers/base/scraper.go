package base

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/logger"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Renderer loads a page in a real browser tab and returns its HTML
type Renderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// Strategy is one way of turning a URL into a document
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, url string) (*goquery.Document, error)
}

// BaseScraper handles common scraping logic
type BaseScraper struct {
	Client     *http.Client
	Renderer   Renderer // Shared browser tab; nil means a throwaway ChromeDP instance
	Strategies []Strategy
	Log        *logger.Logger

	ChromeDriverPath string
	Ports            *PortManager // Required by the selenium strategy
}

// Options configures NewBaseScraper
type Options struct {
	Renderer         Renderer
	ChromeDriverPath string
	UseSelenium      bool
	Log              *logger.Logger
}

// NewBaseScraper creates a new BaseScraper instance
func NewBaseScraper(opts Options) *BaseScraper {
	log := opts.Log
	if log == nil {
		log = logger.Default
	}
	b := &BaseScraper{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		Renderer:         opts.Renderer,
		Log:              log,
		ChromeDriverPath: opts.ChromeDriverPath,
	}

	b.Strategies = []Strategy{
		{Name: "http", Fetch: b.FetchDocumentHTTP},
		{Name: "chromedp", Fetch: b.FetchDocumentChromeDP},
	}
	if opts.UseSelenium {
		b.Ports = NewPortManager(seleniumBasePort, seleniumPortRange)
		b.Strategies = append(b.Strategies, Strategy{Name: "selenium", Fetch: b.FetchDocumentSelenium})
	}
	return b
}

// FetchDocument fetches the URL using each strategy in order and returns the
// first document that is not a block page and passes validator.
func (b *BaseScraper) FetchDocument(ctx context.Context, url string, validator func(*goquery.Document) bool) (*goquery.Document, error) {
	log := b.logger().WithField("url", url)

	var lastErr error
	for _, s := range b.Strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.Fetch(ctx, url)
		if err != nil {
			log.Debug().Err(err).Str("strategy", s.Name).Msg("Fetch failed")
			lastErr = err
			continue
		}
		if !isValidDocument(doc) || (validator != nil && !validator(doc)) {
			log.Debug().Str("strategy", s.Name).Msg("Fetched content failed validation, trying next strategy")
			lastErr = apperrors.ErrBlocked
			continue
		}

		log.Debug().Str("strategy", s.Name).Msg("Fetch succeeded")
		return doc, nil
	}

	if lastErr == nil {
		lastErr = apperrors.ErrBlocked
	}
	return nil, fmt.Errorf("all strategies failed for %s: %w", url, lastErr)
}

func (b *BaseScraper) logger() *logger.Logger {
	if b.Log == nil {
		return logger.Default
	}
	return b.Log
}

func isValidDocument(doc *goquery.Document) bool {
	title := strings.TrimSpace(doc.Find("title").Text())
	body := strings.TrimSpace(doc.Find("body").Text())

	lowerTitle := strings.ToLower(title)
	if strings.Contains(lowerTitle, "robot check") ||
		strings.Contains(lowerTitle, "captcha") ||
		strings.Contains(lowerTitle, "access denied") {
		return false
	}

	return len(body) > 200
}

// FetchDocumentHTTP fetches the URL and returns a GoQuery document via standard HTTP
func (b *BaseScraper) FetchDocumentHTTP(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Common headers to mimic a real browser
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"macOS"`)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")

	res, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return goquery.NewDocumentFromReader(res.Body)
}
