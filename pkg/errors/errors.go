package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNoScraper is returned when no site extractor matches a name or URL
	ErrNoScraper = errors.New("no scraper found")
	// ErrUnknownTask is returned by the dispatcher for task types it has no handler for
	ErrUnknownTask = errors.New("unknown task")
	// ErrInvalidIntent is returned when the model output cannot be turned into an intent
	ErrInvalidIntent = errors.New("invalid intent")
	// ErrLoginTimeout is returned when the browser is still on a login page after the wait
	ErrLoginTimeout = errors.New("timed out waiting for login")
	// ErrBlocked is returned when every fetch strategy hit a captcha or an empty page
	ErrBlocked = errors.New("page blocked or empty")
	// ErrNotConfigured is returned when an optional integration is used without its settings
	ErrNotConfigured = errors.New("not configured")
)

// ScrapeError wraps a failure of one site extractor
type ScrapeError struct {
	Site string
	Op   string
	Err  error
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Site, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrape creates a new ScrapeError
func NewScrape(site, op string, err error) *ScrapeError {
	return &ScrapeError{Site: site, Op: op, Err: err}
}
