package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/scrapers"
)

// Browser is the shared tab the page-level tasks drive
type Browser interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Scroll(ctx context.Context) error
	LoadCookies(ctx context.Context) error
	SaveCookies(ctx context.Context) error
	WaitForLogin(ctx context.Context, timeout, poll time.Duration) (string, error)
}

// Searcher runs product searches
type Searcher interface {
	SearchSite(ctx context.Context, site, query string) (*models.SearchResult, error)
	SearchAll(ctx context.Context, query string, threshold int) (*models.SearchResult, error)
}

// Mailer sends one email
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Exporter uploads a search result and returns a link to it
type Exporter interface {
	Export(ctx context.Context, res *models.SearchResult) (string, error)
}

// Recorder persists search results
type Recorder interface {
	SaveSearch(ctx context.Context, res *models.SearchResult) error
}

// Deps are the collaborators of a Dispatcher. Browser, Mailer, Exporter and
// Recorder may be nil.
type Deps struct {
	Browser  Browser
	Searcher Searcher
	Registry *scrapers.Registry
	Mailer   Mailer
	Exporter Exporter
	Recorder Recorder
}

// Options tunes the handlers
type Options struct {
	Threshold int
	LoginWait time.Duration
	LoginPoll time.Duration
	// TaskTimeout bounds one handler run once it holds the browser. Zero
	// means no bound beyond the caller's context.
	TaskTimeout time.Duration
	Log         *logger.Logger
}

type handlerFunc func(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error)

// lastSearch is what email_results re-runs
type lastSearch struct {
	site    string
	query   string
	compare bool
}

// Dispatcher routes intents to the fixed task handlers. Only one task runs
// at a time because they all share one browser tab.
type Dispatcher struct {
	deps     Deps
	opts     Options
	log      *logger.Logger
	slot     chan struct{}
	handlers map[models.TaskType]handlerFunc
	last     map[string]lastSearch
}

// NewDispatcher wires the seven task handlers
func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	log := opts.Log
	if log == nil {
		log = logger.Default
	}
	if opts.Threshold < 1 {
		opts.Threshold = 20
	}
	if opts.LoginWait <= 0 {
		opts.LoginWait = 2 * time.Minute
	}
	if opts.LoginPoll <= 0 {
		opts.LoginPoll = 2 * time.Second
	}

	d := &Dispatcher{
		deps: deps,
		opts: opts,
		log:  log.WithField("component", "dispatcher"),
		slot: make(chan struct{}, 1),
		last: make(map[string]lastSearch),
	}
	d.handlers = map[models.TaskType]handlerFunc{
		models.TaskSearchProduct: d.searchProduct,
		models.TaskComparePrices: d.comparePrices,
		models.TaskLogin:         d.login,
		models.TaskViewCart:      d.viewCart,
		models.TaskOpenPage:      d.openPage,
		models.TaskEmailResults:  d.emailResults,
		models.TaskGeneralChat:   d.generalChat,
	}
	return d
}

// Dispatch runs the handler for in.Task
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error) {
	h, ok := d.handlers[in.Task]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTask, in.Task)
	}

	// Wait for the browser, giving up when the caller does
	select {
	case d.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a running task: %w", ctx.Err())
	}
	defer func() { <-d.slot }()

	if d.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.TaskTimeout)
		defer cancel()
	}

	log := d.log.WithFields(logger.Fields{"task": string(in.Task), "session_id": sessionID})
	start := time.Now()

	resp, err := h(ctx, sessionID, in)
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Task failed")
		return nil, err
	}

	resp.SessionID = sessionID
	resp.Task = in.Task
	log.Info().Dur("duration", time.Since(start)).Int("products", len(resp.Products)).Msg("Task finished")
	return resp, nil
}
