package myntra

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statePage = `<html><head><script>
window.__myx = {"searchData":{"results":{"totalCount":2,"products":[
 {"productName":"HRX by Hrithik Roshan Men Running Shoes","brand":"HRX","price":1499,"mrp":3999,"rating":4.31,
  "searchImage":"http://assets.myntassets.com/assets/images/1/shoe.jpg","landingPageUrl":"sports-shoes/hrx/hrx-men-running-shoes/123/buy"},
 {"product":"Sneakers","brand":"Puma","price":2599,"rating":0,"images":[{"src":"http://assets.myntassets.com/2.jpg"}],
  "landingPageUrl":"casual-shoes/puma/456/buy"}
]}}};
</script></head><body></body></html>`

const gridPage = `<html><body><ul class="results-base">
<li class="product-base">
  <a data-refreshpage="true" href="tshirts/roadster/roadster-men-tshirt/789/buy">
    <picture><img src="https://assets.myntassets.com/tshirt.jpg"></picture>
    <div class="product-ratingsContainer"><span>4.1</span></div>
    <div class="product-productMetaInfo">
      <h3 class="product-brand">Roadster</h3>
      <h4 class="product-product">Men Pure Cotton T-shirt</h4>
      <div class="product-price"><span class="product-discountedPrice">Rs. 449</span><span class="product-strike">Rs. 899</span></div>
    </div>
  </a>
</li>
</ul></body></html>`

func load(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseState(t *testing.T) {
	products := Parse(load(t, statePage), 10)
	require.Len(t, products, 2)

	assert.Equal(t, "HRX by Hrithik Roshan Men Running Shoes", products[0].Title)
	assert.Equal(t, "₹1499", products[0].Price)
	assert.Equal(t, "4.3", products[0].Rating)
	assert.Equal(t, "http://assets.myntassets.com/assets/images/1/shoe.jpg", products[0].Image)
	assert.Equal(t, "https://www.myntra.com/sports-shoes/hrx/hrx-men-running-shoes/123/buy", products[0].URL)

	assert.Equal(t, "Puma Sneakers", products[1].Title)
	assert.Equal(t, "", products[1].Rating)
	assert.Equal(t, "http://assets.myntassets.com/2.jpg", products[1].Image)
}

func TestParseStateLimit(t *testing.T) {
	assert.Len(t, Parse(load(t, statePage), 1), 1)
}

func TestParseHTMLFallback(t *testing.T) {
	products := Parse(load(t, gridPage), 10)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "Roadster Men Pure Cotton T-shirt", p.Title)
	assert.Equal(t, "₹449", p.Price)
	assert.Equal(t, "4.1", p.Rating)
	assert.Equal(t, "https://www.myntra.com/tshirts/roadster/roadster-men-tshirt/789/buy", p.URL)
}

func TestBrokenStateFallsBackToHTML(t *testing.T) {
	html := strings.Replace(gridPage, "<body>", `<body><script>window.__myx = {broken</script>`, 1)
	assert.Len(t, Parse(load(t, html), 10), 1)
}

func TestSearchURL(t *testing.T) {
	s := NewMyntraScraper(nil)
	assert.Equal(t, "https://www.myntra.com/red-running-shoes?rawQuery=Red+Running+shoes", s.SearchURL("Red Running shoes"))
}
