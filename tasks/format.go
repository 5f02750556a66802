package tasks

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/raushankrgupta/shopbot/models"
	"github.com/raushankrgupta/shopbot/scrapers/base"
)

// Format renders products as a numbered plain-text list
func Format(products []models.Product) string {
	if len(products) == 0 {
		return "No products found."
	}

	var sb strings.Builder
	for i, p := range products {
		fmt.Fprintf(&sb, "%d. %s", i+1, p.Title)
		if p.Price != "" {
			fmt.Fprintf(&sb, " - %s", p.Price)
		}
		if p.Rating != "" {
			fmt.Fprintf(&sb, " (%s★)", p.Rating)
		}
		if p.Site != "" {
			fmt.Fprintf(&sb, " [%s]", p.Site)
		}
		if p.URL != "" {
			fmt.Fprintf(&sb, "\n   %s", p.URL)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

// SortByPrice returns a copy ordered by ascending price. Products without a
// readable price keep their relative order at the end.
func SortByPrice(products []models.Product) []models.Product {
	sorted := append([]models.Product(nil), products...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, iok := base.ParsePrice(sorted[i].Price)
		pj, jok := base.ParsePrice(sorted[j].Price)
		switch {
		case iok && jok:
			return pi < pj
		default:
			return iok && !jok
		}
	})
	return sorted
}

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<h2>Results for "{{.Query}}"</h2>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>#</th><th>Product</th><th>Price</th><th>Rating</th><th>Site</th></tr>
{{range $i, $p := .Products}}<tr><td>{{inc $i}}</td><td>{{if $p.URL}}<a href="{{$p.URL}}">{{$p.Title}}</a>{{else}}{{$p.Title}}{{end}}</td><td>{{$p.Price}}</td><td>{{$p.Rating}}</td><td>{{$p.Site}}</td></tr>
{{else}}<tr><td colspan="5">No products found.</td></tr>
{{end}}</table>
`))

// FormatHTML renders products as an HTML table for email
func FormatHTML(query string, products []models.Product) (string, error) {
	var sb strings.Builder
	err := emailTmpl.Execute(&sb, struct {
		Query    string
		Products []models.Product
	}{query, products})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
