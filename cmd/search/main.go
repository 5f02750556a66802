// Command search runs one site or the aggregator for a query and prints the
// result as JSON. It uses plain HTTP first and a throwaway headless Chrome
// when a site needs rendering.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/raushankrgupta/shopbot/aggregator"
	"github.com/raushankrgupta/shopbot/config"
	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/models"
	"github.com/raushankrgupta/shopbot/scrapers"
	"github.com/raushankrgupta/shopbot/scrapers/base"
	"github.com/raushankrgupta/shopbot/tasks"
)

func main() {
	config.LoadConfig()

	site := flag.String("site", "", "site to search (empty searches all sites in order)")
	threshold := flag.Int("threshold", config.AggregateThreshold, "stop the all-site search after this many products")
	limit := flag.Int("limit", config.SearchLimit, "products per site")
	selenium := flag.Bool("selenium", false, "add chromedriver as a last fetch strategy")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	logger.Init(config.LogLevel, false)
	log := logger.Default

	query := flag.Arg(0)
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: search [-site amazon] [-threshold 20] \"query\"")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	registry := scrapers.NewRegistry(base.Options{
		ChromeDriverPath: config.ChromeDriverPath,
		UseSelenium:      *selenium,
		Log:              log,
	})
	agg := aggregator.New(registry, nil, aggregator.Options{Limit: *limit, Log: log})

	var res *models.SearchResult
	var err error
	if *site != "" {
		res, err = agg.SearchSite(ctx, *site, query)
	} else {
		res, err = agg.SearchAll(ctx, query, *threshold)
		if res != nil {
			res.Products = tasks.SortByPrice(res.Products)
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("Search failed")
		if res == nil {
			os.Exit(1)
		}
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
