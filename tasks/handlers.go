package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/shopbot/browser"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/scrapers"
	"github.com/raushankrgupta/shopbot/utils"
)

func (d *Dispatcher) searchProduct(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	if in.Query == "" {
		return nil, fmt.Errorf("%w: search needs a product to look for", apperrors.ErrInvalidIntent)
	}

	res, err := d.deps.Searcher.SearchSite(ctx, in.Site, in.Query)
	if err != nil {
		return nil, err
	}
	d.remember(sessionID, lastSearch{site: in.Site, query: in.Query})

	resp := &models.ChatResponse{
		Reply:    fmt.Sprintf("Found %d products for %q on %s.\n%s", len(res.Products), in.Query, in.Site, Format(res.Products)),
		Products: res.Products,
		Data:     map[string]interface{}{"site": in.Site, "cached": res.Cached},
	}
	d.persist(ctx, res, resp)
	return resp, nil
}

func (d *Dispatcher) comparePrices(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	if in.Query == "" {
		return nil, fmt.Errorf("%w: compare needs a product to look for", apperrors.ErrInvalidIntent)
	}

	res, err := d.deps.Searcher.SearchAll(ctx, in.Query, d.opts.Threshold)
	if err != nil {
		return nil, err
	}
	d.remember(sessionID, lastSearch{query: in.Query, compare: true})

	products := SortByPrice(res.Products)
	resp := &models.ChatResponse{
		Reply: fmt.Sprintf("Compared %d products for %q across %s, cheapest first.\n%s",
			len(products), in.Query, strings.Join(res.Sites, ", "), Format(products)),
		Products: products,
		Data:     map[string]interface{}{"sites": res.Sites, "cached": res.Cached},
	}
	if len(res.Errors) > 0 {
		resp.Data["errors"] = res.Errors
	}
	d.persist(ctx, res, resp)
	return resp, nil
}

func (d *Dispatcher) login(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	b, err := d.browser()
	if err != nil {
		return nil, err
	}
	s, err := d.deps.Registry.ByName(in.Site)
	if err != nil {
		return nil, err
	}

	if err := b.LoadCookies(ctx); err != nil {
		d.log.Warn().Err(err).Msg("Could not restore session cookies")
	}
	if err := b.Navigate(ctx, s.LoginURL()); err != nil {
		return nil, apperrors.NewScrape(s.Name(), "navigate", err)
	}

	current, err := b.CurrentURL(ctx)
	if err == nil && !browser.IsLoginURL(current) {
		return &models.ChatResponse{
			Reply: fmt.Sprintf("You are already signed in to %s.", s.Name()),
			Data:  map[string]interface{}{"site": s.Name(), "url": current, "logged_in": true},
		}, nil
	}

	d.log.Info().Str("site", s.Name()).Dur("timeout", d.opts.LoginWait).Msg("Waiting for the user to sign in")
	current, err = b.WaitForLogin(ctx, d.opts.LoginWait, d.opts.LoginPoll)
	if err != nil {
		return nil, apperrors.NewScrape(s.Name(), "login", err)
	}

	if err := b.SaveCookies(ctx); err != nil {
		d.log.Warn().Err(err).Msg("Could not save session cookies")
	}
	return &models.ChatResponse{
		Reply: fmt.Sprintf("Signed in to %s. The session has been saved.", s.Name()),
		Data:  map[string]interface{}{"site": s.Name(), "url": current, "logged_in": true},
	}, nil
}

func (d *Dispatcher) viewCart(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	b, err := d.browser()
	if err != nil {
		return nil, err
	}
	s, err := d.deps.Registry.ByName(in.Site)
	if err != nil {
		return nil, err
	}

	if err := b.Navigate(ctx, s.CartURL()); err != nil {
		return nil, apperrors.NewScrape(s.Name(), "navigate", err)
	}
	current, err := b.CurrentURL(ctx)
	if err != nil {
		return nil, apperrors.NewScrape(s.Name(), "cart", err)
	}

	if browser.IsLoginURL(current) {
		return &models.ChatResponse{
			Reply: fmt.Sprintf("%s wants you to sign in before showing the cart. Say \"login to %s\" first.", s.Name(), s.Name()),
			Data:  map[string]interface{}{"site": s.Name(), "url": current, "login_required": true},
		}, nil
	}

	title, _ := b.Title(ctx)
	return &models.ChatResponse{
		Reply: fmt.Sprintf("Opened your %s cart: %s", s.Name(), title),
		Data: map[string]interface{}{
			"site":           s.Name(),
			"url":            current,
			"title":          title,
			"is_checkout":    browser.IsCheckoutURL(current),
			"login_required": false,
		},
	}, nil
}

func (d *Dispatcher) openPage(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	if in.URL == "" {
		return nil, fmt.Errorf("%w: no URL to open", apperrors.ErrInvalidIntent)
	}
	b, err := d.browser()
	if err != nil {
		return nil, err
	}

	target, err := utils.ResolveShortenedURL(ctx, in.URL)
	if err != nil {
		d.log.Warn().Err(err).Str("url", in.URL).Msg("Could not resolve short URL, opening as is")
		target = in.URL
	}
	if err := b.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}

	current, err := b.CurrentURL(ctx)
	if err != nil {
		current = target
	}
	title, _ := b.Title(ctx)

	data := map[string]interface{}{
		"url":         current,
		"title":       title,
		"is_login":    browser.IsLoginURL(current),
		"is_checkout": browser.IsCheckoutURL(current),
	}

	var products []models.Product
	if s, _, err := d.deps.Registry.ForURL(ctx, current); err == nil {
		data["site"] = s.Name()
		if p, ok := s.(scrapers.PageParser); ok && data["is_login"] == false && data["is_checkout"] == false {
			products = d.pageProducts(ctx, b, p)
		}
	}

	reply := fmt.Sprintf("Opened %s", title)
	switch {
	case data["is_login"] == true:
		reply += " (this is a sign-in page)"
	case data["is_checkout"] == true:
		reply += " (this is a cart or checkout page)"
	case len(products) > 0:
		reply += "\n\n" + Format(products)
	}
	return &models.ChatResponse{Reply: reply, Products: products, Data: data}, nil
}

// pageProducts lists the products shown on the open page. Failures only
// mean an empty list.
func (d *Dispatcher) pageProducts(ctx context.Context, b Browser, p scrapers.PageParser) []models.Product {
	if err := b.Scroll(ctx); err != nil {
		d.log.Debug().Err(err).Msg("Scroll failed")
	}
	html, err := b.HTML(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("Could not read page HTML")
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return p.Parse(doc, d.opts.Threshold)
}

func (d *Dispatcher) emailResults(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("%w: no email address given", apperrors.ErrInvalidIntent)
	}
	if d.deps.Mailer == nil {
		return nil, fmt.Errorf("email: %w", apperrors.ErrNotConfigured)
	}

	search, ok := d.lastFor(sessionID)
	if in.Query != "" {
		search = lastSearch{site: in.Site, query: in.Query, compare: in.Site == ""}
		ok = true
	}
	if !ok {
		return nil, fmt.Errorf("%w: nothing to email yet, search for something first", apperrors.ErrInvalidIntent)
	}

	var res *models.SearchResult
	var err error
	if search.compare {
		res, err = d.deps.Searcher.SearchAll(ctx, search.query, d.opts.Threshold)
		if res != nil {
			res.Products = SortByPrice(res.Products)
		}
	} else {
		res, err = d.deps.Searcher.SearchSite(ctx, search.site, search.query)
	}
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Shopbot results for %q", search.query)
	html, err := FormatHTML(search.query, res.Products)
	if err != nil {
		return nil, err
	}
	if err := d.deps.Mailer.Send(ctx, in.Email, subject, Format(res.Products), html); err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}

	return &models.ChatResponse{
		Reply:    fmt.Sprintf("Sent %d results for %q to %s.", len(res.Products), search.query, in.Email),
		Products: res.Products,
		Data:     map[string]interface{}{"email": in.Email},
	}, nil
}

func (d *Dispatcher) generalChat(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	reply := in.Reply
	if reply == "" {
		reply = d.help()
	}
	return &models.ChatResponse{Reply: reply}, nil
}

func (d *Dispatcher) help() string {
	var sites []string
	if d.deps.Registry != nil {
		sites = d.deps.Registry.Names()
	}
	return "I can search a shop (\"find running shoes on flipkart\"), compare prices across shops " +
		"(\"compare prices for airpods\"), sign you in (\"login to amazon\"), show your cart, open a product link " +
		"or email you the last results. Shops: " + strings.Join(sites, ", ") + "."
}

func (d *Dispatcher) browser() (Browser, error) {
	if d.deps.Browser == nil {
		return nil, fmt.Errorf("browser: %w", apperrors.ErrNotConfigured)
	}
	return d.deps.Browser, nil
}

func (d *Dispatcher) remember(sessionID string, s lastSearch) {
	if sessionID == "" {
		return
	}
	d.last[sessionID] = s
}

func (d *Dispatcher) lastFor(sessionID string) (lastSearch, bool) {
	s, ok := d.last[sessionID]
	return s, ok
}

// persist records and exports a result. Failures only get logged.
func (d *Dispatcher) persist(ctx context.Context, res *models.SearchResult, resp *models.ChatResponse) {
	if d.deps.Recorder != nil && !res.Cached {
		if err := d.deps.Recorder.SaveSearch(ctx, res); err != nil {
			d.log.Warn().Err(err).Msg("Could not record search result")
		}
	}
	if d.deps.Exporter != nil {
		link, err := d.deps.Exporter.Export(ctx, res)
		switch {
		case err == nil:
			resp.Data["export_url"] = link
		case errors.Is(err, context.Canceled):
		default:
			d.log.Warn().Err(err).Msg("Could not export search result")
		}
	}
}
