package base

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/models"
)

// CardSelectors lists, per field, CSS selectors tried in order inside one
// search result card. The first non-empty match wins.
type CardSelectors struct {
	Cards      []string // Result card containers; the first selector with matches is used
	Title      []string
	TitleAttrs []string // Attributes read from the title element when its text is empty
	Price      []string
	Rating     []string
	Image      []string
	ImageAttrs []string // Defaults to src, data-src, srcset
	Link       []string
}

var defaultImageAttrs = []string{"src", "data-src", "srcset"}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	priceRe  = regexp.MustCompile(`(₹|Rs\.?|INR)\s?[\d,]+(\.\d{1,2})?`)
	numberRe = regexp.MustCompile(`[\d,]+(\.\d+)?`)
	ratingRe = regexp.MustCompile(`\d(\.\d)?`)
)

// FindCards returns the matches of the first card selector that finds anything
func FindCards(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		cards := doc.Find(sel)
		if cards.Length() > 0 {
			return cards
		}
	}
	return doc.Selection.Slice(0, 0)
}

// ExtractCards walks the result cards and maps each to a Product. Cards
// without a title are skipped and at most limit products are returned.
func ExtractCards(doc *goquery.Document, site, baseURL string, sel CardSelectors, limit int) []models.Product {
	var products []models.Product
	FindCards(doc, sel.Cards).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if p, ok := ExtractCard(card, site, baseURL, sel); ok {
			products = append(products, p)
		}
		return limit <= 0 || len(products) < limit
	})
	return products
}

// ExtractCard maps a single result card. ok is false when no title is found.
func ExtractCard(card *goquery.Selection, site, baseURL string, sel CardSelectors) (models.Product, bool) {
	title := FirstText(card, sel.Title...)
	if title == "" && len(sel.TitleAttrs) > 0 {
		title = FirstAttr(card, sel.TitleAttrs, sel.Title...)
	}
	if title == "" {
		return models.Product{}, false
	}

	imageAttrs := sel.ImageAttrs
	if len(imageAttrs) == 0 {
		imageAttrs = defaultImageAttrs
	}

	p := models.Product{
		Site:   site,
		Title:  title,
		Price:  NormalizePrice(FirstText(card, sel.Price...)),
		Rating: NormalizeRating(FirstText(card, sel.Rating...)),
		Image:  AbsoluteURL(baseURL, firstSrc(FirstAttr(card, imageAttrs, sel.Image...))),
		URL:    AbsoluteURL(baseURL, FirstAttr(card, []string{"href"}, sel.Link...)),
	}
	if p.Price == "" {
		p.Price = PriceFromText(card.Text())
	}
	return p, true
}

// FirstText returns the first non-empty, whitespace-collapsed text among selectors
func FirstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		text := CleanText(s.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// FirstAttr returns the first non-empty attribute value among selectors and
// attrs. An empty selector means the selection itself. Inline data: URIs
// (lazy-load placeholders) are skipped.
func FirstAttr(s *goquery.Selection, attrs []string, selectors ...string) string {
	for _, sel := range selectors {
		node := s
		if sel != "" {
			node = s.Find(sel).First()
		}
		if node.Length() == 0 {
			continue
		}
		for _, attr := range attrs {
			if v := strings.TrimSpace(node.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}
	return ""
}

// CleanText collapses runs of whitespace and trims
func CleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// AbsoluteURL resolves ref against base; data URIs and empty refs become ""
func AbsoluteURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if r.IsAbs() {
		return r.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// firstSrc takes the first candidate of a srcset value
func firstSrc(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], ",")
}

// NormalizePrice keeps the first price-like token and renders it as ₹<amount>
func NormalizePrice(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	if m := priceRe.FindString(s); m != "" {
		s = m
	}
	num := strings.Trim(numberRe.FindString(s), ",.")
	if num == "" {
		return ""
	}
	return "₹" + num
}

// PriceFromText is the regex fallback over a whole card's text
func PriceFromText(s string) string {
	return NormalizePrice(priceRe.FindString(s))
}

// NormalizeRating reduces "4.3 out of 5 stars" style text to "4.3"
func NormalizeRating(s string) string {
	m := ratingRe.FindString(CleanText(s))
	if m == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(m, 64); err != nil || v > 5 {
		return ""
	}
	return m
}

// ParsePrice turns "₹1,299.00" into 1299. ok is false when no number is present.
func ParsePrice(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
