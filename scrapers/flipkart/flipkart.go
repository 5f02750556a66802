package flipkart

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
	Name    = "flipkart"
	BaseURL = "https://www.flipkart.com"
)

// Flipkart renames its hashed classes every few months. Old names stay in
// the chains after the new ones.
var selectors = base.CardSelectors{
	Cards: []string{"div[data-id]", "div._1AtVbE div._13oc-S > div", "div.cPHDOP div.slAVV4"},
	Title: []string{
		"div.KzDlHZ",  // list layout
		"div._4rR01T", // list layout, old
		"a.WKTcLC",    // grid layout
		"a.wjcEIp",    // grid layout
		"a.IRpwTa",    // grid layout, old
		"a.s1Q9rs",    // grid layout, old
	},
	TitleAttrs: []string{"title"},
	Price:      []string{"div.Nx9bqj", "div._30jeq3", "div._25b18c div"},
	Rating:     []string{"div.XQDdHH", "div._3LWZlK", "span[id^='productRating']"},
	Image:      []string{"img.DByuf4", "img._53J4C-", "img._396cs4", "img._2r_T1I", "img"},
	Link:       []string{"a.CGtC98", "a._1fQZEK", "a.rPDeLR", "a._2rpwqI", "a.wjcEIp", "a.s1Q9rs", "a[href*='/p/']"},
}

var brandSelectors = []string{"div.syl9yP", "div._2WkVRV"}

type FlipkartScraper struct {
	*base.BaseScraper
}

func NewFlipkartScraper(b *base.BaseScraper) *FlipkartScraper {
	return &FlipkartScraper{BaseScraper: b}
}

func (s *FlipkartScraper) Name() string { return Name }

func (s *FlipkartScraper) CanScrape(u string) bool {
	return strings.Contains(u, "flipkart.com") || strings.Contains(u, "dl.flipkart.com")
}

func (s *FlipkartScraper) SearchURL(query string) string {
	return BaseURL + "/search?q=" + url.QueryEscape(query)
}

func (s *FlipkartScraper) LoginURL() string {
	return BaseURL + "/account/login"
}

func (s *FlipkartScraper) CartURL() string {
	return BaseURL + "/viewcart"
}

func (s *FlipkartScraper) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	doc, err := s.FetchDocument(ctx, s.SearchURL(query), func(doc *goquery.Document) bool {
		return base.FindCards(doc, selectors.Cards).Length() > 0 ||
			strings.Contains(doc.Find("body").Text(), "Sorry, no results found")
	})
	if err != nil {
		return nil, apperrors.NewScrape(Name, "fetch", err)
	}
	return Parse(doc, limit), nil
}

func (s *FlipkartScraper) Parse(doc *goquery.Document, limit int) []models.Product {
	return Parse(doc, limit)
}

// Parse extracts product cards from a Flipkart search page
func Parse(doc *goquery.Document, limit int) []models.Product {
	var products []models.Product
	base.FindCards(doc, selectors.Cards).EachWithBreak(func(i int, card *goquery.Selection) bool {
		p, ok := base.ExtractCard(card, Name, BaseURL, selectors)
		if !ok {
			return true
		}

		// Grid cards split brand and name
		if brand := base.FirstText(card, brandSelectors...); brand != "" && !strings.HasPrefix(p.Title, brand) {
			p.Title = brand + " " + p.Title
		}
		p.URL = stripTracking(p.URL)
		products = append(products, p)
		return limit <= 0 || len(products) < limit
	})
	return products
}

func stripTracking(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	kept := url.Values{}
	if pid := q.Get("pid"); pid != "" {
		kept.Set("pid", pid)
	}
	u.RawQuery = kept.Encode()
	return u.String()
}
