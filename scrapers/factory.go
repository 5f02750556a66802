package scrapers

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/scrapers/ajio"
	"github.com/raushankrgupta/shopbot/scrapers/amazon"
	"github.com/raushankrgupta/shopbot/scrapers/base"
	"github.com/raushankrgupta/shopbot/scrapers/flipkart"
	"github.com/raushankrgupta/shopbot/scrapers/myntra"
	"github.com/raushankrgupta/shopbot/scrapers/snapdeal"
	"github.com/raushankrgupta/shopbot/scrapers/tatacliq"
	"github.com/raushankrgupta/shopbot/utils"
)

// Registry holds the site extractors in their fixed visiting order
type Registry struct {
	scrapers []Scraper
}

// NewRegistry registers every supported site. All extractors share one
// BaseScraper so they also share the browser tab and HTTP client.
func NewRegistry(opts base.Options) *Registry {
	b := base.NewBaseScraper(opts)
	return NewRegistryWith(
		amazon.NewAmazonScraper(b),
		flipkart.NewFlipkartScraper(b),
		myntra.NewMyntraScraper(b),
		tatacliq.NewTataCliqScraper(b),
		ajio.NewAjioScraper(b),
		snapdeal.NewSnapdealScraper(b),
	)
}

// NewRegistryWith builds a registry from explicit scrapers, keeping their order
func NewRegistryWith(s ...Scraper) *Registry {
	return &Registry{scrapers: s}
}

// All returns the scrapers in fixed order
func (r *Registry) All() []Scraper {
	out := make([]Scraper, len(r.scrapers))
	copy(out, r.scrapers)
	return out
}

// Names returns the site keys in fixed order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scrapers))
	for _, s := range r.scrapers {
		names = append(names, s.Name())
	}
	return names
}

// ByName looks a scraper up by its site key, case-insensitively
func (r *Registry) ByName(name string) (Scraper, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range r.scrapers {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrNoScraper, name)
}

// ForURL returns the appropriate scraper and the resolved URL
func (r *Registry) ForURL(ctx context.Context, url string) (Scraper, string, error) {
	// Resolve shortened URLs (e.g., amzn.in, bit.ly)
	resolvedURL, err := utils.ResolveShortenedURL(ctx, url)
	if err != nil {
		return nil, url, fmt.Errorf("error resolving url: %w", err)
	}

	for _, s := range r.scrapers {
		if s.CanScrape(resolvedURL) {
			return s, resolvedURL, nil
		}
	}

	return nil, resolvedURL, fmt.Errorf("%w for url: %s", apperrors.ErrNoScraper, resolvedURL)
}
