package browser

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/raushankrgupta/shopbot/logger"
)

const scrollScript = `window.scrollTo(0, document.body.scrollHeight / 2)`

// Options describes how the shared browser is launched
type Options struct {
	Headless    bool
	UserAgent   string
	SessionFile string        // Flat JSON cookie dump, loaded on start and saved after login
	PageTimeout time.Duration // Upper bound for a single navigation
}

// Session owns one Chrome instance with a single tab. Every tab operation
// takes mu, so only one task drives the page at a time.
type Session struct {
	opts Options
	log  *logger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New launches Chrome and opens the tab
func New(opts Options, log *logger.Logger) (*Session, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = time.Minute
	}
	if log == nil {
		log = logger.Default
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1366, 900),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		// Headed mode so a person can type credentials during login
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	headers := map[string]interface{}{
		"Accept-Language":           "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests": "1",
	}
	// The first Run starts the browser process
	if err := chromedp.Run(ctx, network.Enable(), network.SetExtraHTTPHeaders(network.Headers(headers))); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s := &Session{
		opts: opts,
		log:  log.WithField("component", "browser"),
		ctx:  ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
	}
	s.log.Info().Bool("headless", opts.Headless).Msg("Browser started")
	return s, nil
}

// run executes actions on the tab, bounded by the caller's context and the page timeout
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tctx, cancel := context.WithTimeout(s.ctx, s.opts.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(tctx, actions...)
}

// Navigate opens url in the tab and waits for the body
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.log.Debug().Str("url", url).Msg("Navigating")
	if err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the tab's location
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := s.run(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

// Title returns the document title
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// HTML returns the outer HTML of the current page
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// Scroll moves halfway down the page so lazy-loaded images start fetching
func (s *Session) Scroll(ctx context.Context) error {
	return s.run(ctx,
		chromedp.Evaluate(scrollScript, nil),
		chromedp.Sleep(time.Second),
	)
}

// RenderHTML navigates to url, lets client-side rendering settle, scrolls once
// to trigger lazy images and returns the page HTML.
func (s *Session) RenderHTML(ctx context.Context, url string) (string, error) {
	var html string
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(time.Duration(1500+rand.Intn(1500))*time.Millisecond),
		chromedp.Evaluate(scrollScript, nil),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// WaitForLogin polls the tab URL until it leaves the login pages
func (s *Session) WaitForLogin(ctx context.Context, timeout, poll time.Duration) (string, error) {
	return waitForLogin(ctx, timeout, poll, s.CurrentURL)
}

// Close saves the cookie session and shuts the browser down
func (s *Session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.SaveCookies(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to save cookies on close")
	}
	s.cancel()
	s.log.Info().Msg("Browser closed")
}
