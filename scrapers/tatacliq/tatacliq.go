package tatacliq

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
	Name    = "tatacliq"
	BaseURL = "https://www.tatacliq.com"
)

// TataCliq renders results client-side, so the HTTP strategy usually fails
// validation and the browser tab does the work.
var selectors = base.CardSelectors{
	Cards:  []string{"div.ProductModule__base", "div.Grid__element"},
	Title:  []string{"h2.ProductDescription__description", ".ProductDescription__description", "h2"},
	Price:  []string{".ProductDescription__discount h3", ".ProductDescription__priceHolder h3", "h3"},
	Rating: []string{".ProductInfo__ratingText", ".ProductInfo__rating", ".RatingAndReviewComponent__rating"},
	Image:  []string{"img.Image__actual", "img"},
	Link:   []string{"a[href*='/p-']", "a[href]"},
}

type TataCliqScraper struct {
	*base.BaseScraper
}

func NewTataCliqScraper(b *base.BaseScraper) *TataCliqScraper {
	return &TataCliqScraper{BaseScraper: b}
}

func (s *TataCliqScraper) Name() string { return Name }

func (s *TataCliqScraper) CanScrape(u string) bool {
	return strings.Contains(u, "tatacliq.com")
}

func (s *TataCliqScraper) SearchURL(query string) string {
	return BaseURL + "/search/?searchCategory=all&text=" + url.QueryEscape(query)
}

func (s *TataCliqScraper) LoginURL() string {
	return BaseURL + "/login"
}

func (s *TataCliqScraper) CartURL() string {
	return BaseURL + "/cart"
}

func (s *TataCliqScraper) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	doc, err := s.FetchDocument(ctx, s.SearchURL(query), func(doc *goquery.Document) bool {
		return base.FindCards(doc, selectors.Cards).Length() > 0
	})
	if err != nil {
		return nil, apperrors.NewScrape(Name, "fetch", err)
	}
	return Parse(doc, limit), nil
}

func (s *TataCliqScraper) Parse(doc *goquery.Document, limit int) []models.Product {
	return Parse(doc, limit)
}

// Parse extracts product cards from a TataCliq search page
func Parse(doc *goquery.Document, limit int) []models.Product {
	var products []models.Product
	base.FindCards(doc, selectors.Cards).EachWithBreak(func(i int, card *goquery.Selection) bool {
		p, ok := base.ExtractCard(card, Name, BaseURL, selectors)
		if !ok {
			return true
		}
		if brand := base.FirstText(card, ".ProductDescription__boldText", "h3.ProductDescription__brand"); brand != "" && !strings.HasPrefix(p.Title, brand) {
			p.Title = brand + " " + p.Title
		}
		products = append(products, p)
		return limit <= 0 || len(products) < limit
	})
	return products
}
