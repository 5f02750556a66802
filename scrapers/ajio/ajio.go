package ajio

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
	Name    = "ajio"
	BaseURL = "https://www.ajio.com"
)

var selectors = base.CardSelectors{
	Cards:      []string{"div.rilrtl-products-list__item", "div.item"},
	Title:      []string{"div.nameCls", ".contentHolder .name"},
	Price:      []string{"span.price strong", "span.price", ".offer-pricess"},
	Rating:     []string{"p._3I65V", "._1I3JT", ".rating"},
	Image:      []string{"img.rilrtl-lazy-img", "img"},
	ImageAttrs: []string{"src", "data-src"},
	Link:       []string{"a.rilrtl-products-list__link", "a[href]"},
}

type AjioScraper struct {
	*base.BaseScraper
}

func NewAjioScraper(b *base.BaseScraper) *AjioScraper {
	return &AjioScraper{BaseScraper: b}
}

func (s *AjioScraper) Name() string { return Name }

func (s *AjioScraper) CanScrape(u string) bool {
	return strings.Contains(u, "ajio.com")
}

func (s *AjioScraper) SearchURL(query string) string {
	return BaseURL + "/search/?text=" + url.QueryEscape(query)
}

func (s *AjioScraper) LoginURL() string {
	return BaseURL + "/login"
}

func (s *AjioScraper) CartURL() string {
	return BaseURL + "/cart"
}

func (s *AjioScraper) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	doc, err := s.FetchDocument(ctx, s.SearchURL(query), func(doc *goquery.Document) bool {
		return base.FindCards(doc, selectors.Cards).Length() > 0
	})
	if err != nil {
		return nil, apperrors.NewScrape(Name, "fetch", err)
	}
	return Parse(doc, limit), nil
}

func (s *AjioScraper) Parse(doc *goquery.Document, limit int) []models.Product {
	return Parse(doc, limit)
}

// Parse extracts product cards from an Ajio search page
func Parse(doc *goquery.Document, limit int) []models.Product {
	var products []models.Product
	base.FindCards(doc, selectors.Cards).EachWithBreak(func(i int, card *goquery.Selection) bool {
		p, ok := base.ExtractCard(card, Name, BaseURL, selectors)
		if !ok {
			return true
		}
		if brand := base.FirstText(card, "div.brand", ".contentHolder .brand"); brand != "" {
			p.Title = brand + " " + p.Title
		}
		products = append(products, p)
		return limit <= 0 || len(products) < limit
	})
	return products
}
