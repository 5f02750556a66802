package base

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/logger"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var filler = strings.Repeat("lorem ipsum dolor sit amet ", 20)

func page(title, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s<p>%s</p></body></html>", title, body, filler)
}

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestPortManager(t *testing.T) {
	pm := NewPortManager(5000, 2)

	p1, err := pm.GetPort()
	require.NoError(t, err)
	p2, err := pm.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 5000, p1)
	assert.Equal(t, 5001, p2)

	_, err = pm.GetPort()
	assert.Error(t, err)

	pm.ReleasePort(p1)
	pm.ReleasePort(9999)
	p3, err := pm.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 5000, p3)
}

func TestPortManagerConcurrent(t *testing.T) {
	pm := NewPortManager(6000, 8)
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[int]bool{}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := pm.GetPort()
			assert.NoError(t, err)
			mu.Lock()
			seen[p] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 8)
}

func TestIsValidDocument(t *testing.T) {
	assert.True(t, isValidDocument(docFrom(t, page("Shoes", "results"))))
	assert.False(t, isValidDocument(docFrom(t, page("Amazon.in Robot Check", ""))))
	assert.False(t, isValidDocument(docFrom(t, page("Access Denied", ""))))
	assert.False(t, isValidDocument(docFrom(t, "<html><body>tiny</body></html>")))
}

func TestFetchDocumentHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page("ok", `<div id="x">hello</div>`))
	}))
	defer srv.Close()

	b := &BaseScraper{Client: srv.Client(), Log: logger.Nop()}

	doc, err := b.FetchDocumentHTTP(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Find("#x").Text())

	_, err = b.FetchDocumentHTTP(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestFetchDocumentFallsBack(t *testing.T) {
	var order []string
	b := &BaseScraper{Log: logger.Nop()}
	b.Strategies = []Strategy{
		{Name: "first", Fetch: func(ctx context.Context, url string) (*goquery.Document, error) {
			order = append(order, "first")
			return nil, errors.New("connection reset")
		}},
		{Name: "second", Fetch: func(ctx context.Context, url string) (*goquery.Document, error) {
			order = append(order, "second")
			return docFrom(t, page("Robot Check", "")), nil
		}},
		{Name: "third", Fetch: func(ctx context.Context, url string) (*goquery.Document, error) {
			order = append(order, "third")
			return docFrom(t, page("Results", `<div class="card">x</div>`)), nil
		}},
	}

	doc, err := b.FetchDocument(context.Background(), "https://example.com", func(d *goquery.Document) bool {
		return d.Find(".card").Length() > 0
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(".card").Length())
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestFetchDocumentAllBlocked(t *testing.T) {
	b := &BaseScraper{Log: logger.Nop()}
	b.Strategies = []Strategy{
		{Name: "only", Fetch: func(ctx context.Context, url string) (*goquery.Document, error) {
			return docFrom(t, page("Results", "")), nil
		}},
	}

	_, err := b.FetchDocument(context.Background(), "https://example.com", func(d *goquery.Document) bool { return false })
	assert.ErrorIs(t, err, apperrors.ErrBlocked)
}

func TestFetchDocumentCancelled(t *testing.T) {
	called := false
	b := &BaseScraper{Log: logger.Nop()}
	b.Strategies = []Strategy{{Name: "only", Fetch: func(ctx context.Context, url string) (*goquery.Document, error) {
		called = true
		return nil, nil
	}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.FetchDocument(ctx, "https://example.com", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

type stubRenderer struct{ html string }

func (s stubRenderer) RenderHTML(ctx context.Context, url string) (string, error) {
	return s.html, nil
}

func TestFetchDocumentChromeDPUsesRenderer(t *testing.T) {
	b := &BaseScraper{Renderer: stubRenderer{html: `<html><body><h1>rendered</h1></body></html>`}}
	doc, err := b.FetchDocumentChromeDP(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "rendered", doc.Find("h1").Text())
}

func TestExtractCards(t *testing.T) {
	html := `<html><body>
		<div class="card">
			<a class="link" href="/p/1"><span class="name">  Blue
				Shirt </span></a>
			<span class="price">Rs. 1,299</span>
			<span class="stars">4.3 out of 5 stars</span>
			<img src="data:image/gif;base64,AAAA" data-src="//img.example.com/1.jpg">
		</div>
		<div class="card">
			<span class="price">₹10</span>
		</div>
		<div class="card">
			<a class="link" href="https://other.example.com/p/2"><img class="pic" alt="Red Shirt" srcset="https://img.example.com/2.jpg 1x, https://img.example.com/2@2x.jpg 2x"></a>
			<p>Deal price ₹899 today</p>
		</div>
		<div class="card"><span class="name">Third</span></div>
	</body></html>`

	sel := CardSelectors{
		Cards:      []string{".missing", ".card"},
		Title:      []string{".name", "img.pic"},
		TitleAttrs: []string{"alt"},
		Price:      []string{".price"},
		Rating:     []string{".stars"},
		Image:      []string{"img"},
		Link:       []string{"a.link"},
	}

	products := ExtractCards(docFrom(t, html), "example", "https://www.example.com/search?q=x", sel, 2)
	require.Len(t, products, 2)

	assert.Equal(t, "example", products[0].Site)
	assert.Equal(t, "Blue Shirt", products[0].Title)
	assert.Equal(t, "₹1,299", products[0].Price)
	assert.Equal(t, "4.3", products[0].Rating)
	assert.Equal(t, "https://img.example.com/1.jpg", products[0].Image)
	assert.Equal(t, "https://www.example.com/p/1", products[0].URL)

	assert.Equal(t, "Red Shirt", products[1].Title)
	assert.Equal(t, "₹899", products[1].Price)
	assert.Equal(t, "", products[1].Rating)
	assert.Equal(t, "https://img.example.com/2.jpg", products[1].Image)
	assert.Equal(t, "https://other.example.com/p/2", products[1].URL)
}

func TestExtractCardsNoMatches(t *testing.T) {
	products := ExtractCards(docFrom(t, "<html><body></body></html>"), "x", "https://x", CardSelectors{Cards: []string{".card"}}, 5)
	assert.Empty(t, products)
}

func TestNormalizePrice(t *testing.T) {
	tests := map[string]string{
		"₹1,299":              "₹1,299",
		"Rs. 499":             "₹499",
		"INR 2,000.50":        "₹2,000.50",
		"1,099.":              "₹1,099",
		"₹549₹99945% off":     "₹549",
		"Price not available": "",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePrice(in), in)
	}
}

func TestNormalizeRating(t *testing.T) {
	assert.Equal(t, "4.3", NormalizeRating("4.3 out of 5 stars"))
	assert.Equal(t, "4", NormalizeRating(" 4 ★ "))
	assert.Equal(t, "", NormalizeRating("no ratings"))
	assert.Equal(t, "", NormalizeRating("9.1"))
}

func TestParsePrice(t *testing.T) {
	v, ok := ParsePrice("₹1,299.00")
	assert.True(t, ok)
	assert.Equal(t, 1299.0, v)

	_, ok = ParsePrice("₹")
	assert.False(t, ok)
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://www.ajio.com/p/1", AbsoluteURL("https://www.ajio.com/search/?text=x", "/p/1"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", AbsoluteURL("https://www.ajio.com", "//cdn.example.com/a.jpg"))
	assert.Equal(t, "", AbsoluteURL("https://www.ajio.com", "data:image/png;base64,xx"))
	assert.Equal(t, "", AbsoluteURL("https://www.ajio.com", " "))
}

func TestNewBaseScraperStrategies(t *testing.T) {
	names := func(b *BaseScraper) []string {
		var out []string
		for _, s := range b.Strategies {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"http", "chromedp"}, names(NewBaseScraper(Options{})))

	b := NewBaseScraper(Options{UseSelenium: true})
	assert.Equal(t, []string{"http", "chromedp", "selenium"}, names(b))
	require.NotNil(t, b.Ports)
}

func TestFetchDocumentSeleniumNeedsPorts(t *testing.T) {
	_, err := (&BaseScraper{}).FetchDocumentSelenium(context.Background(), "https://example.com")
	assert.Error(t, err)
}

func TestSettleDelay(t *testing.T) {
	fractional := false
	for i := 0; i < 50; i++ {
		d := settleDelay()
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 5*time.Second)
		if d%time.Second != 0 {
			fractional = true
		}
	}
	assert.True(t, fractional)
}
