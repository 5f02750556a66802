package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/shopbot/aggregator"
	"github.com/raushankrgupta/shopbot/api"
	"github.com/raushankrgupta/shopbot/browser"
	"github.com/raushankrgupta/shopbot/config"
	"github.com/raushankrgupta/shopbot/intent"
	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/scrapers"
	"github.com/raushankrgupta/shopbot/scrapers/base"
	"github.com/raushankrgupta/shopbot/services/cache"
	"github.com/raushankrgupta/shopbot/store"
	"github.com/raushankrgupta/shopbot/tasks"
	"github.com/raushankrgupta/shopbot/utils"
)

func main() {
	config.LoadConfig()
	logger.Init(config.LogLevel, config.IsProduction())
	log := logger.Default

	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Browser
	sess, err := browser.New(browser.Options{
		Headless:    config.BrowserHeadless,
		UserAgent:   config.BrowserUserAgent,
		SessionFile: config.SessionFile,
		PageTimeout: config.PageTimeout,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start browser")
	}
	defer sess.Close()

	if err := sess.LoadCookies(ctx); err != nil {
		log.Warn().Err(err).Str("file", config.SessionFile).Msg("Could not restore session cookies")
	}

	// Scrapers
	_, statErr := os.Stat(config.ChromeDriverPath)
	registry := scrapers.NewRegistry(base.Options{
		Renderer:         sess,
		ChromeDriverPath: config.ChromeDriverPath,
		UseSelenium:      statErr == nil,
		Log:              log,
	})
	if _, err := registry.ByName(config.DefaultSite); err != nil {
		log.Fatal().Err(err).Msg("DEFAULT_SITE is not a supported site")
	}

	// Cache
	cacheSvc, err := cache.New(cache.Options{
		Backend:      config.CacheBackend,
		RedisAddr:    config.RedisAddr,
		RedisDB:      config.RedisDB,
		MemcacheAddr: config.MemcacheAddr,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cache")
	}
	defer cacheSvc.Close()

	cacheTTL := config.CacheTTL
	if config.CacheBackend == "none" {
		cacheTTL = 0
	}
	agg := aggregator.New(registry, cacheSvc, aggregator.Options{
		Limit:    config.SearchLimit,
		CacheTTL: cacheTTL,
		Log:      log,
	})

	// Persistence
	var st store.Store = store.Nop{}
	if config.MongoURI != "" {
		ms, err := store.NewMongoStore(ctx, config.MongoURI, config.MongoDB)
		if err != nil {
			log.Warn().Err(err).Msg("MongoDB unavailable, chat history will not be stored")
		} else {
			log.Info().Str("db", config.MongoDB).Msg("Connected to MongoDB")
			st = ms
		}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(closeCtx)
	}()

	deps := tasks.Deps{
		Browser:  sess,
		Searcher: agg,
		Registry: registry,
		Recorder: st,
	}

	if config.AWSBucketName != "" {
		bucket, err := utils.NewS3Bucket(ctx, config.AWSRegion, config.AWSBucketName)
		if err != nil {
			log.Warn().Err(err).Msg("S3 unavailable, results will not be exported")
		} else {
			deps.Exporter = store.NewExporter(bucket, config.ExportImages)
		}
	}

	if config.SendGridAPIKey != "" {
		mailer, err := utils.NewSendGridMailer(config.SendGridAPIKey, config.EmailFrom, log)
		if err != nil {
			log.Warn().Err(err).Msg("Email disabled")
		} else {
			deps.Mailer = mailer
		}
	}

	// Intent classification
	var model intent.Model
	if gm, err := intent.NewGeminiModel(ctx, config.GeminiAPIKey, config.GeminiModel); err != nil {
		log.Warn().Err(err).Msg("Gemini unavailable, using keyword intent rules")
	} else {
		defer gm.Close()
		model = gm
	}
	classifier := intent.NewClassifier(model, registry.Names(), config.DefaultSite, log)

	sites := len(registry.Names())
	dispatcher := tasks.NewDispatcher(deps, tasks.Options{
		Threshold:   config.AggregateThreshold,
		LoginWait:   config.LoginWait,
		LoginPoll:   config.LoginPoll,
		TaskTimeout: config.TaskTimeout(sites),
		Log:         log,
	})

	handler := api.NewHandler(classifier, dispatcher, st, registry.Names(), log)
	requestTimeout := config.RequestTimeout(sites)
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           utils.DeadlineMiddleware(requestTimeout)(api.NewRouter(handler, config.JWTSecret, log)),
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room to write the timeout reply after the request deadline
		WriteTimeout: requestTimeout + 10*time.Second,
	}

	go func() {
		log.Info().Str("port", config.Port).Strs("sites", registry.Names()).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
