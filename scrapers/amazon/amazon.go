package amazon

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/scrapers/base"
)

const (
	Name    = "amazon"
	BaseURL = "https://www.amazon.in"
)

var selectors = base.CardSelectors{
	Cards: []string{
		`div[data-component-type='s-search-result']`,
		`div.s-result-item[data-asin]:not([data-asin=''])`,
	},
	Title: []string{
		"h2 a span",
		"h2 span",
		".a-size-medium.a-color-base.a-text-normal",
		".a-size-base-plus.a-color-base.a-text-normal",
	},
	Price: []string{
		".a-price:not(.a-text-price) .a-offscreen",
		".a-price .a-offscreen",
		".a-price-whole",
		".a-color-price",
	},
	Rating: []string{
		".a-icon-star-small .a-icon-alt",
		"i.a-icon-star-mini .a-icon-alt",
		".a-icon-alt",
		"[aria-label*='out of 5 stars']",
	},
	Image: []string{"img.s-image", "img"},
	Link: []string{
		"h2 a",
		"a.a-link-normal.s-no-outline",
		"a.a-link-normal[href*='/dp/']",
		"a[href]",
	},
}

// AmazonScraper handles the search results page for Amazon India
type AmazonScraper struct {
	*base.BaseScraper
}

func NewAmazonScraper(b *base.BaseScraper) *AmazonScraper {
	return &AmazonScraper{BaseScraper: b}
}

func (s *AmazonScraper) Name() string { return Name }

func (s *AmazonScraper) CanScrape(u string) bool {
	return strings.Contains(u, "amazon.") || strings.Contains(u, "amzn.")
}

func (s *AmazonScraper) SearchURL(query string) string {
	return BaseURL + "/s?k=" + url.QueryEscape(query)
}

func (s *AmazonScraper) LoginURL() string {
	return BaseURL + "/gp/sign-in.html"
}

func (s *AmazonScraper) CartURL() string {
	return BaseURL + "/gp/cart/view.html"
}

func (s *AmazonScraper) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	doc, err := s.FetchDocument(ctx, s.SearchURL(query), isResultsPage)
	if err != nil {
		return nil, apperrors.NewScrape(Name, "fetch", err)
	}
	return Parse(doc, limit), nil
}

func isResultsPage(doc *goquery.Document) bool {
	if base.FindCards(doc, selectors.Cards).Length() > 0 {
		return true
	}
	return strings.Contains(doc.Find("body").Text(), "No results for")
}

func (s *AmazonScraper) Parse(doc *goquery.Document, limit int) []models.Product {
	return Parse(doc, limit)
}

// Parse extracts product cards from an Amazon search page
func Parse(doc *goquery.Document, limit int) []models.Product {
	products := base.ExtractCards(doc, Name, BaseURL, selectors, limit)
	for i := range products {
		// Sponsored links go through /sspa/click; keep only the product path
		products[i].URL = cleanURL(products[i].URL)
	}
	return products
}

func cleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.Contains(u.Path, "/sspa/click") {
		if target := u.Query().Get("url"); target != "" {
			return cleanURL(base.AbsoluteURL(BaseURL, target))
		}
	}
	if i := strings.Index(u.Path, "/ref="); i > 0 {
		u.Path = u.Path[:i]
	}
	u.RawQuery = ""
	return u.String()
}
