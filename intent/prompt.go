package intent

import (
	"fmt"
	"strings"

	"github.com/raushankrgupta/shopbot/models"
)

const promptTemplate = `You are the intent classifier of a shopping assistant that drives a web browser.
Classify the user's message into exactly one task and reply with a single JSON object and nothing else.

Tasks:
- search_product: search one shop for a product. Needs "query"; "site" if the user names a shop.
- compare_prices: search all shops and compare prices. Needs "query".
- login: open a shop's login page so the user can sign in. Needs "site".
- view_cart: open a shop's cart. Needs "site".
- open_page: open a product or shop URL. Needs "url".
- email_results: email search results. Needs "email"; "query" if the user names a product.
- general_chat: anything else. Put a short friendly answer in "reply".

Shops: %s. Use these names in lowercase for "site". Default shop: %s.

JSON shape:
{"task": "<task>", "site": "", "query": "", "url": "", "email": "", "reply": ""}

User message:
%s
`

func buildPrompt(text string, sites []string, defaultSite string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(sites, ", "), defaultSite, text)
}

func taskNames() []string {
	names := make([]string, len(models.TaskTypes))
	for i, t := range models.TaskTypes {
		names[i] = string(t)
	}
	return names
}
