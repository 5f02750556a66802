package snapdeal

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/scrapers/base"
)

const (
	Name    = "snapdeal"
	BaseURL = "https://www.snapdeal.com"
)

var selectors = base.CardSelectors{
	Cards:      []string{"div.product-tuple-listing", "section.js-section div.col-xs-6"},
	Title:      []string{"p.product-title", ".product-desc-rating p"},
	TitleAttrs: []string{"title"},
	Price:      []string{"span.product-price", "span.lfloat.product-price", ".product-price-row span"},
	Image:      []string{"img.product-image", "picture img", "img"},
	ImageAttrs: []string{"src", "data-src", "srcset"},
	Link:       []string{"a.dp-widget-link", "a[href*='/product/']"},
}

// Star widths look like "width:84%"
var widthRe = regexp.MustCompile(`width:\s*([\d.]+)%`)

type SnapdealScraper struct {
	*base.BaseScraper
}

func NewSnapdealScraper(b *base.BaseScraper) *SnapdealScraper {
	return &SnapdealScraper{BaseScraper: b}
}

func (s *SnapdealScraper) Name() string { return Name }

func (s *SnapdealScraper) CanScrape(u string) bool {
	return strings.Contains(u, "snapdeal.com")
}

func (s *SnapdealScraper) SearchURL(query string) string {
	return BaseURL + "/search?keyword=" + url.QueryEscape(query)
}

func (s *SnapdealScraper) LoginURL() string {
	return BaseURL + "/login"
}

func (s *SnapdealScraper) CartURL() string {
	return BaseURL + "/cart"
}

func (s *SnapdealScraper) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	doc, err := s.FetchDocument(ctx, s.SearchURL(query), func(doc *goquery.Document) bool {
		return base.FindCards(doc, selectors.Cards).Length() > 0 ||
			strings.Contains(doc.Find("body").Text(), "Sorry, we couldn't find")
	})
	if err != nil {
		return nil, apperrors.NewScrape(Name, "fetch", err)
	}
	return Parse(doc, limit), nil
}

func (s *SnapdealScraper) Parse(doc *goquery.Document, limit int) []models.Product {
	return Parse(doc, limit)
}

// Parse extracts product cards from a Snapdeal search page
func Parse(doc *goquery.Document, limit int) []models.Product {
	var products []models.Product
	base.FindCards(doc, selectors.Cards).EachWithBreak(func(i int, card *goquery.Selection) bool {
		p, ok := base.ExtractCard(card, Name, BaseURL, selectors)
		if !ok {
			return true
		}
		if v := card.Find("span.product-price").AttrOr("display-price", ""); v != "" {
			p.Price = base.NormalizePrice(v)
		}
		p.Rating = starRating(card)
		products = append(products, p)
		return limit <= 0 || len(products) < limit
	})
	return products
}

// starRating converts the filled-stars bar width into a 0-5 rating
func starRating(card *goquery.Selection) string {
	style := card.Find("div.filled-stars").AttrOr("style", "")
	m := widthRe.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct <= 0 {
		return ""
	}
	return strconv.FormatFloat(pct/20, 'f', 1, 64)
}
