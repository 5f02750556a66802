package intent

import (
	"regexp"
	"slices"
	"strings"

	"github.com/raushankrgupta/shopbot/models"
)

var (
	urlRe   = regexp.MustCompile(`https?://\S+`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	wordRe  = regexp.MustCompile(`[\p{L}\p{N}'\-]+`)
)

var (
	loginWords   = []string{"login", "log in", "sign in", "signin"}
	cartWords    = []string{"cart", "basket"}
	compareWords = []string{"compare", "cheapest", "lowest price", "best price", "all sites", "everywhere"}
	emailWords   = []string{"email", "e-mail", "mail"}
	searchWords  = []string{"search", "find", "look for", "show me", "buy", "need", "want", "get me"}
)

// Words that never belong in a product query
var fillerWords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "on": true, "in": true, "at": true, "from": true,
	"me": true, "my": true, "please": true, "pls": true, "i": true, "to": true, "of": true, "and": true,
	"search": true, "find": true, "look": true, "show": true, "buy": true, "need": true, "want": true, "get": true,
	"compare": true, "price": true, "prices": true, "cheapest": true, "lowest": true, "best": true,
	"all": true, "sites": true, "site": true, "everywhere": true, "across": true, "with": true,
	"email": true, "e-mail": true, "mail": true, "send": true, "results": true, "them": true, "it": true,
}

// Heuristic classifies text with keyword rules. It is used when no model is
// configured or the model cannot be reached.
func Heuristic(text string, sites []string, defaultSite string) models.Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	words := wordRe.FindAllString(lower, -1)
	site := mentionedSite(words, sites)

	if u := urlRe.FindString(text); u != "" {
		return models.Intent{Task: models.TaskOpenPage, URL: strings.TrimRight(u, ".,;!?)"), Site: site}
	}

	if email := emailRe.FindString(text); email != "" || hasPhrase(words, emailWords) {
		rest := emailRe.ReplaceAllString(lower, " ")
		return models.Intent{Task: models.TaskEmailResults, Email: email, Query: extractQuery(rest, sites)}
	}

	if hasPhrase(words, loginWords) {
		return models.Intent{Task: models.TaskLogin, Site: orDefault(site, defaultSite)}
	}

	if hasPhrase(words, cartWords) {
		return models.Intent{Task: models.TaskViewCart, Site: orDefault(site, defaultSite)}
	}

	query := extractQuery(lower, sites)
	if hasPhrase(words, compareWords) && query != "" {
		return models.Intent{Task: models.TaskComparePrices, Query: query}
	}

	if query != "" && (site != "" || hasPhrase(words, searchWords)) {
		return models.Intent{Task: models.TaskSearchProduct, Site: orDefault(site, defaultSite), Query: query}
	}

	return models.Intent{Task: models.TaskGeneralChat}
}

func mentionedSite(words []string, sites []string) string {
	for _, w := range words {
		for _, s := range sites {
			if w == s {
				return s
			}
		}
	}
	return ""
}

func extractQuery(lower string, sites []string) string {
	isSite := make(map[string]bool, len(sites))
	for _, s := range sites {
		isSite[s] = true
	}

	var kept []string
	for _, w := range wordRe.FindAllString(lower, -1) {
		if fillerWords[w] || isSite[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// hasPhrase reports whether any phrase appears in words as whole,
// consecutive words
func hasPhrase(words []string, phrases []string) bool {
	for _, p := range phrases {
		want := strings.Fields(p)
		for i := 0; i+len(want) <= len(words); i++ {
			if slices.Equal(words[i:i+len(want)], want) {
				return true
			}
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
