package myntra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/scrapers/base"
)

const (
	Name    = "myntra"
	BaseURL = "https://www.myntra.com"
)

const stateMarker = "window.__myx ="

var selectors = base.CardSelectors{
	Cards:  []string{"li.product-base", "ul.results-base > li"},
	Title:  []string{"h4.product-product", "div.product-productMetaInfo h4"},
	Price:  []string{"span.product-discountedPrice", "div.product-price span", "div.product-price"},
	Rating: []string{"div.product-ratingsContainer span", "div.product-ratingsContainer"},
	Image:  []string{"picture img", "img.img-responsive", "img"},
	Link:   []string{"a[data-refreshpage]", "a[href]"},
}

type MyntraScraper struct {
	*base.BaseScraper
}

func NewMyntraScraper(b *base.BaseScraper) *MyntraScraper {
	return &MyntraScraper{BaseScraper: b}
}

func (s *MyntraScraper) Name() string { return Name }

func (s *MyntraScraper) CanScrape(u string) bool {
	return strings.Contains(u, "myntra.com")
}

// SearchURL uses Myntra's slug form: /red-shoes?rawQuery=red%20shoes
func (s *MyntraScraper) SearchURL(query string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(query)), "-")
	return BaseURL + "/" + url.PathEscape(slug) + "?rawQuery=" + url.QueryEscape(query)
}

func (s *MyntraScraper) LoginURL() string {
	return BaseURL + "/login"
}

func (s *MyntraScraper) CartURL() string {
	return BaseURL + "/checkout/cart"
}

func (s *MyntraScraper) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	doc, err := s.FetchDocument(ctx, s.SearchURL(query), func(doc *goquery.Document) bool {
		return stateJSON(doc) != "" || base.FindCards(doc, selectors.Cards).Length() > 0
	})
	if err != nil {
		return nil, apperrors.NewScrape(Name, "fetch", err)
	}
	return Parse(doc, limit), nil
}

type searchState struct {
	SearchData struct {
		Results struct {
			Products []stateProduct `json:"products"`
		} `json:"results"`
	} `json:"searchData"`
}

type stateProduct struct {
	ProductName    string          `json:"productName"`
	Product        string          `json:"product"`
	Brand          string          `json:"brand"`
	Price          json.Number     `json:"price"`
	Rating         json.Number     `json:"rating"`
	SearchImage    string          `json:"searchImage"`
	LandingPageURL string          `json:"landingPageUrl"`
	Images         []stateImageRef `json:"images"`
}

type stateImageRef struct {
	Src string `json:"src"`
}

func (s *MyntraScraper) Parse(doc *goquery.Document, limit int) []models.Product {
	return Parse(doc, limit)
}

// Parse prefers the embedded search state and falls back to the rendered grid
func Parse(doc *goquery.Document, limit int) []models.Product {
	if raw := stateJSON(doc); raw != "" {
		if products, err := parseState(raw, limit); err == nil && len(products) > 0 {
			return products
		}
	}
	return parseHTML(doc, limit)
}

// stateJSON returns the object assigned to window.__myx, if any script has it
func stateJSON(doc *goquery.Document) string {
	var jsonStr string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, stateMarker)
		if idx < 0 {
			return true
		}
		sub := strings.TrimSpace(text[idx+len(stateMarker):])
		jsonStr = strings.TrimSuffix(sub, ";")
		return false
	})
	return jsonStr
}

func parseState(raw string, limit int) ([]models.Product, error) {
	var state searchState
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("decode myntra state: %w", err)
	}

	var products []models.Product
	for _, sp := range state.SearchData.Results.Products {
		title := sp.ProductName
		if title == "" {
			title = strings.TrimSpace(sp.Brand + " " + sp.Product)
		}
		if title == "" {
			continue
		}

		image := sp.SearchImage
		if image == "" && len(sp.Images) > 0 {
			image = sp.Images[0].Src
		}

		p := models.Product{
			Site:  Name,
			Title: title,
			Image: base.AbsoluteURL(BaseURL, image),
			URL:   base.AbsoluteURL(BaseURL+"/", sp.LandingPageURL),
		}
		if sp.Price != "" {
			p.Price = base.NormalizePrice(sp.Price.String())
		}
		if r, err := strconv.ParseFloat(sp.Rating.String(), 64); err == nil && r > 0 {
			p.Rating = strconv.FormatFloat(r, 'f', 1, 64)
		}

		products = append(products, p)
		if limit > 0 && len(products) >= limit {
			break
		}
	}
	return products, nil
}

func parseHTML(doc *goquery.Document, limit int) []models.Product {
	var products []models.Product
	base.FindCards(doc, selectors.Cards).EachWithBreak(func(i int, card *goquery.Selection) bool {
		p, ok := base.ExtractCard(card, Name, BaseURL+"/", selectors)
		if !ok {
			return true
		}
		if brand := base.FirstText(card, "h3.product-brand"); brand != "" {
			p.Title = brand + " " + p.Title
		}
		products = append(products, p)
		return limit <= 0 || len(products) < limit
	})
	return products
}
