package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifelink/internal/audit"
	audithandler "lifelink/internal/audit/handler"
	"lifelink/internal/donor"
	donorhandler "lifelink/internal/donor/handler"
	"lifelink/internal/eligibility"
	httprouter "lifelink/internal/http"
	"lifelink/internal/match"
	"lifelink/internal/notify"
	notifyhandler "lifelink/internal/notify/handler"
	notifymetrics "lifelink/internal/notify/metrics"
	"lifelink/internal/platform/config"
	"lifelink/internal/platform/httpserver"
	"lifelink/internal/platform/logger"
	"lifelink/internal/platform/postgres"
	"lifelink/internal/platform/redis"
	"lifelink/internal/requisition"
	reqcache "lifelink/internal/requisition/cache"
	reqhandler "lifelink/internal/requisition/handler"
	reqmetrics "lifelink/internal/requisition/metrics"
	"lifelink/internal/response"
	responsehandler "lifelink/internal/response/handler"
	"lifelink/internal/sweeper"
	"lifelink/internal/transport"
)

// main wires stores, services, and background loops, then runs the HTTP
// server until interrupted. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when DATABASE_URL is set, memory otherwise.
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		donorStore    donor.Store
		reqStore      requisition.Store
		notifyStore   notify.Store
		responseStore response.Store
		auditStore    audit.Store
	)
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		donorStore = donor.NewPostgres(db)
		reqStore = requisition.NewPostgres(db)
		notifyStore = notify.NewPostgresStore(db)
		responseStore = response.NewPostgresStore(db)
		auditStore = audit.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		donorStore = donor.NewInMemoryStore()
		reqStore = requisition.NewInMemoryStore()
		notifyStore = notify.NewInMemoryStore()
		responseStore = response.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	auditPub := audit.NewPublisher(1024, log)
	auditWorker := audit.NewWorker(auditStore, auditPub.Inbox(), log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	directory, err := donor.NewDirectory(donorStore,
		donor.WithLogger(log),
		donor.WithEvaluator(eligibility.New(cfg.DonationCooldown)),
	)
	if err != nil {
		log.Error("donor directory init failed", "error", err)
		os.Exit(1)
	}

	reqOpts := []requisition.Option{
		requisition.WithLogger(log),
		requisition.WithMetrics(reqmetrics.New()),
		requisition.WithAuditPublisher(auditPub),
		requisition.WithPolicy(requisition.FulfillmentPolicy{Auto: cfg.AutoFulfill}),
	}
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		discoverCache, err := reqcache.New(redisClient, cfg.DiscoverCacheTTL, log)
		if err != nil {
			log.Error("discover cache init failed", "error", err)
			os.Exit(1)
		}
		reqOpts = append(reqOpts, requisition.WithDiscoverCache(discoverCache))
		log.Info("discover feed caching enabled", "ttl", cfg.DiscoverCacheTTL)
	}

	reqService, err := requisition.New(reqStore, directory, reqOpts...)
	if err != nil {
		log.Error("requisition service init failed", "error", err)
		os.Exit(1)
	}

	notifyService, err := notify.New(notifyStore, transport.NewLogDispatcher(log),
		notify.WithLogger(log),
		notify.WithMetrics(notifymetrics.New()),
		notify.WithAuditPublisher(auditPub),
		notify.WithWorkers(cfg.NotifyWorkers),
	)
	if err != nil {
		log.Error("notification service init failed", "error", err)
		os.Exit(1)
	}

	matcher, err := match.New(directory, reqService, notifyService,
		match.WithLogger(log),
		match.WithFanOutLimit(cfg.FanOutLimit),
	)
	if err != nil {
		log.Error("matcher init failed", "error", err)
		os.Exit(1)
	}

	aggregator, err := response.New(responseStore, reqService, notifyService,
		response.WithLogger(log),
		response.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("response aggregator init failed", "error", err)
		os.Exit(1)
	}

	sweep, err := sweeper.New(reqService, cfg.SweepInterval,
		sweeper.WithLogger(log),
	)
	if err != nil {
		log.Error("sweeper init failed", "error", err)
		os.Exit(1)
	}
	go sweep.Run(ctx)

	health := func() error {
		if db != nil {
			if err := db.PingContext(context.Background()); err != nil {
				return err
			}
		}
		if redisClient != nil {
			return redisClient.Health(context.Background())
		}
		return nil
	}

	router := httprouter.NewRouter(health,
		donorhandler.New(directory, log),
		reqhandler.New(reqService, matcher, log),
		responsehandler.New(aggregator, log),
		notifyhandler.New(notifyService, log),
		audithandler.New(auditStore, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("lifelink listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
