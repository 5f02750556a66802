package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/models"
	"github.com/raushankrgupta/shopbot/scrapers"
	"github.com/raushankrgupta/shopbot/services/cache"
)

// AllSites is the cache key segment used for aggregated searches
const AllSites = "all"

// Options configures an Aggregator
type Options struct {
	Limit    int           // Products requested from each site
	CacheTTL time.Duration // Zero disables caching
	Log      *logger.Logger
}

// Aggregator runs searches against one site or all sites in registry order
type Aggregator struct {
	registry *scrapers.Registry
	cache    cache.Service
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// New creates an Aggregator. A nil cache disables result caching.
func New(registry *scrapers.Registry, c cache.Service, opts Options) *Aggregator {
	if c == nil {
		c = cache.NopService{}
	}
	log := opts.Log
	if log == nil {
		log = logger.Default
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	return &Aggregator{
		registry: registry,
		cache:    c,
		opts:     opts,
		log:      log.WithField("component", "aggregator"),
		now:      time.Now,
	}
}

// CacheKey builds the cache key for a site (or AllSites) and query
func CacheKey(site, query string) string {
	return "search:" + site + ":" + NormalizeQuery(query)
}

// NormalizeQuery lowercases and collapses whitespace
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// SearchSite runs query on a single site
func (a *Aggregator) SearchSite(ctx context.Context, site, query string) (*models.SearchResult, error) {
	s, err := a.registry.ByName(site)
	if err != nil {
		return nil, err
	}

	key := CacheKey(s.Name(), query)
	if res, ok := a.cached(ctx, key); ok {
		return res, nil
	}

	products, err := s.Search(ctx, query, a.opts.Limit)
	if err != nil {
		return nil, err
	}

	res := &models.SearchResult{
		Query:     query,
		Sites:     []string{s.Name()},
		Products:  products,
		CreatedAt: a.now(),
	}
	a.store(ctx, key, res)
	return res, nil
}

// SearchAll visits sites in registry order, accumulating products until at
// least threshold have been collected or every site has been tried. A failing
// site is recorded in Errors and the loop moves on.
func (a *Aggregator) SearchAll(ctx context.Context, query string, threshold int) (*models.SearchResult, error) {
	if threshold < 1 {
		threshold = 1
	}

	key := CacheKey(AllSites, query)
	if res, ok := a.cached(ctx, key); ok && len(res.Products) >= threshold {
		return res, nil
	}

	res := &models.SearchResult{
		Query:     query,
		Products:  []models.Product{},
		CreatedAt: a.now(),
	}

	for _, s := range a.registry.All() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if len(res.Products) >= threshold {
			break
		}

		log := a.log.WithField("site", s.Name())
		res.Sites = append(res.Sites, s.Name())

		products, err := s.Search(ctx, query, a.opts.Limit)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			log.Warn().Err(err).Msg("Site search failed")
			if res.Errors == nil {
				res.Errors = map[string]string{}
			}
			res.Errors[s.Name()] = err.Error()
			continue
		}

		log.Debug().Int("count", len(products)).Msg("Site search finished")
		res.Products = append(res.Products, products...)
	}

	if len(res.Products) == 0 && len(res.Errors) == len(res.Sites) && len(res.Sites) > 0 {
		return res, fmt.Errorf("every site failed for %q", query)
	}

	a.store(ctx, key, res)
	return res, nil
}

func (a *Aggregator) cached(ctx context.Context, key string) (*models.SearchResult, bool) {
	if a.opts.CacheTTL <= 0 {
		return nil, false
	}
	b, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			a.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}

	var res models.SearchResult
	if err := json.Unmarshal(b, &res); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return nil, false
	}
	res.Cached = true
	return &res, true
}

func (a *Aggregator) store(ctx context.Context, key string, res *models.SearchResult) {
	if a.opts.CacheTTL <= 0 || len(res.Products) == 0 {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, b, a.opts.CacheTTL); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
