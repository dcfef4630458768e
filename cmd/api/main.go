package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aniladanir/lead-finder-service/internal/cache"
	redisCache "github.com/aniladanir/lead-finder-service/internal/cache/redis"
	"github.com/aniladanir/lead-finder-service/internal/domain"
	httpHandler "github.com/aniladanir/lead-finder-service/internal/handler/http"
	"github.com/aniladanir/lead-finder-service/internal/persistant/postgresql"
	"github.com/aniladanir/lead-finder-service/internal/provider"
	leadRepo "github.com/aniladanir/lead-finder-service/internal/repository/lead"
	"github.com/aniladanir/lead-finder-service/internal/service"
	"gorm.io/gorm"
)

var (
	configFile = flag.String("config", "config.json", "config file path")
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// parse flags
	flag.Parse()

	// parse config
	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// initialize external dependencies
	db, rClient, err := initExternalDependencies(notifyCtx, config)
	if err != nil {
		log.Fatalf("failed to initialize external dependencies: %v", err)
	}

	// init lead repository
	leadRepository := leadRepo.NewLeadRepository(db, rClient)

	// init search service with the process wide response cache
	registry := initProviders(config)
	if len(registry.Names()) == 0 {
		logger.Warn("no search provider is configured")
	}
	searcher := service.NewSearchService(
		registry,
		cache.NewMemory[[]domain.SearchResult](config.CacheTTL),
		logger.With(slog.String("component", "searcher")),
	)

	// init lead service
	leadManager, err := service.NewLeadService(
		leadRepository,
		logger.With(slog.String("component", "leadManager")),
		config.LeadWebhookURL,
		&config.WebhookMaxRetry,
		config.WebhookTimeout,
	)
	if err != nil {
		log.Fatalf("failed to initiate lead service: %v", err)
	}

	// init http handler
	httpHandler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		searcher,
		leadManager,
		logger.With(slog.String("component", "httpHandler")),
	)

	logger.Info("lead finder started", "port", config.HttpPort, "providers", registry.Names(), "cacheTTL", config.CacheTTL.String())

	wg := sync.WaitGroup{}
	// run http handler
	wg.Go(func() {
		if err := httpHandler.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server encountered with an error and closed", "error", err.Error())
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		httpHandler.Shutdown(shutDownCtx)
		rClient.Close()
		postgresql.Close(db)
	})

	wg.Wait()
	os.Exit(0)
}

func initExternalDependencies(ctx context.Context, config *Config) (db *gorm.DB, rCache *redisCache.RedisCache, err error) {
	// initialize database
	db, err = postgresql.Initialize(ctx, config.DbConnString, []any{&domain.Lead{}})
	if err != nil {
		return
	}

	// initialize cache
	rCache, err = redisCache.NewRedisCache(ctx, config.RedisAddr)

	return
}

// initProviders enables every provider whose credential is configured
func initProviders(config *Config) *provider.Registry {
	client := &http.Client{
		Timeout: config.UpstreamTimeout,
	}

	providers := make([]provider.Provider, 0, 4)
	if config.YelpAPIKey != "" {
		providers = append(providers, provider.NewYelp(config.YelpBaseURL, config.YelpAPIKey, client))
	}
	if config.GoogleAPIKey != "" {
		providers = append(providers, provider.NewGooglePlaces(config.GoogleBaseURL, config.GoogleAPIKey, client))
	}
	if config.YellowPagesAPIKey != "" {
		providers = append(providers, provider.NewYellowPages(config.YellowPagesBaseURL, config.YellowPagesAPIKey, client))
	}
	if config.MakeSearchWebhookURL != "" {
		providers = append(providers, provider.NewMakeWebhook(config.MakeSearchWebhookURL, client))
	}

	return provider.NewRegistry(providers...)
}
