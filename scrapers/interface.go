package scrapers

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/models"
)

// Scraper defines the interface for all site extractors
type Scraper interface {
	// Name is the lowercase site key used in intents, cache keys and results
	Name() string
	// CanScrape checks if the scraper can handle the given URL
	CanScrape(url string) bool
	// SearchURL builds the site's search results URL for query
	SearchURL(query string) string
	// LoginURL is where the browser is sent to sign in
	LoginURL() string
	// CartURL is the site's cart page
	CartURL() string
	// Search fetches the results page and extracts at most limit products
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// PageParser reads products from a page of the site that is already loaded
type PageParser interface {
	Parse(doc *goquery.Document, limit int) []models.Product
}
