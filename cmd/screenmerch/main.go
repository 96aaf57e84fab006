package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/checkout"
	"github.com/andreasstove999/screenmerch-go/internal/clients"
	"github.com/andreasstove999/screenmerch-go/internal/config"
	"github.com/andreasstove999/screenmerch-go/internal/db"
	"github.com/andreasstove999/screenmerch-go/internal/events"
	httpapi "github.com/andreasstove999/screenmerch-go/internal/http"
	"github.com/andreasstove999/screenmerch-go/internal/logging"
	"github.com/andreasstove999/screenmerch-go/internal/payment"
	"github.com/andreasstove999/screenmerch-go/internal/screenshot"
	"github.com/andreasstove999/screenmerch-go/internal/sequence"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
	"github.com/andreasstove999/screenmerch-go/internal/storage"
)

type eventPublisher interface {
	checkout.EventPublisher
	screenshot.UpgradeNotifier
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database.DSN, logger); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	cartRepo := cart.NewPostgresRepository(pool)
	checkoutRepo := checkout.NewPostgresRepository(pool)

	probes := []httpapi.HealthProbe{
		{Name: "postgres", Check: pool.Ping},
	}

	// --- session state ---
	var store screenshot.StateStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis connect", zap.Error(err))
		}
		store = screenshot.NewRedisStore(rdb, cfg.Redis.SessionTTL)
		probes = append(probes, httpapi.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	} else {
		logger.Warn("REDIS_ADDR not set, capture sessions are kept in memory")
		store = screenshot.NewMemoryStore().WithTTL(cfg.Redis.SessionTTL)
	}

	// --- AMQP ---
	var publisher eventPublisher = events.NoopPublisher{}
	var conn *amqp.Connection
	if cfg.Rabbit.PublishEvents {
		conn, err = events.Dial(cfg.Rabbit.URL)
		if err != nil {
			logger.Fatal("rabbitmq connect", zap.Error(err))
		}
		pub, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{})
		if err != nil {
			logger.Fatal("start publisher", zap.Error(err))
		}
		publisher = pub
	}

	// --- object storage ---
	var objects screenshot.ObjectStore
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Storage(ctx, storage.Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Fatal("s3 client", zap.Error(err))
		}
		objects = s3
	}

	// Base HTTP client (shared)
	sharedHTTP := &http.Client{Timeout: cfg.UpstreamTimeout}

	// --- capture ---
	var capturer capture.Capturer
	if cfg.Capture.RemoteURL != "" {
		base, err := clients.NewClient("capture-service", cfg.Capture.RemoteURL, capture.NewHTTPClient())
		if err != nil {
			logger.Fatal("capture client", zap.Error(err))
		}
		capturer = capture.NewClient(base)
	} else {
		capturer = capture.NewService(capture.FFmpegGrabber{Path: cfg.Capture.FFmpegPath}, sharedHTTP, cfg.Capture.PrintDPI, logger).
			WithRenderTimeout(cfg.Capture.UpgradeTimeout)
	}

	upgrader := screenshot.NewUpgrader(capturer, store, logger, screenshot.UpgraderOptions{
		Timeout:  cfg.Capture.UpgradeTimeout,
		Objects:  objects,
		Notifier: publisher,
	})
	chain := capture.NewChain(capturer, cfg.Capture.PrintDPI, logger)
	screenshots := screenshot.NewService(store, chain, upgrader, cfg.Capture.MaxScreenshots, logger)

	// --- shipping ---
	var quoter shipping.Quoter
	if cfg.Shipping.RemoteURL != "" {
		base, err := clients.NewClient("shipping-service", cfg.Shipping.RemoteURL, sharedHTTP)
		if err != nil {
			logger.Fatal("shipping client", zap.Error(err))
		}
		quoter = shipping.NewClient(base)
	} else {
		var printful *clients.Client
		if cfg.Shipping.PrintfulAPIKey != "" {
			printful, err = clients.NewClient("printful", cfg.Shipping.PrintfulURL, sharedHTTP)
			if err != nil {
				logger.Fatal("printful client", zap.Error(err))
			}
			printful.Header.Set("Authorization", "Bearer "+cfg.Shipping.PrintfulAPIKey)
		}
		quoter = shipping.NewCalculator(printful, logger)
	}

	// --- payment + checkout ---
	var provider payment.Provider = payment.Offline{}
	if cfg.Payment.APIURL != "" {
		base, err := clients.NewClient("payment-provider", cfg.Payment.APIURL, sharedHTTP)
		if err != nil {
			logger.Fatal("payment client", zap.Error(err))
		}
		provider = payment.NewClient(base, cfg.Payment.APIKey)
	} else {
		logger.Warn("PAYMENT_API_URL not set, checkout sessions are created offline")
	}

	checkoutSvc := checkout.NewService(quoter, provider, checkoutRepo, publisher, checkout.ServiceOptions{
		SuccessURL: cfg.Payment.SuccessURL,
		CancelURL:  cfg.Payment.CancelURL,
	}, logger)

	var submitter checkout.Submitter = checkoutSvc
	if cfg.Payment.CheckoutRemoteURL != "" {
		base, err := clients.NewClient("checkout-service", cfg.Payment.CheckoutRemoteURL, sharedHTTP)
		if err != nil {
			logger.Fatal("checkout client", zap.Error(err))
		}
		submitter = checkout.NewClient(base)
	}
	assembler := checkout.NewAssembler(quoter, submitter, checkout.NewSessionStateClearer(cartRepo, screenshots), logger)

	// --- HTTP ---
	h := httpapi.NewHandler(httpapi.Deps{
		Screenshots: screenshots,
		Capturer:    capturer,
		Carts:       cartRepo,
		Assembler:   assembler,
		Checkout:    checkoutSvc,
		Quoter:      quoter,
		Probes:      probes,
		Logger:      logger,
	})
	r := httpapi.NewRouter(h, logger, httpapi.RouterOptions{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		// captures can take a while; leave headroom above the upstream timeout
		RequestTimeout: 2 * cfg.UpstreamTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("fatal error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()

	// in-flight upgrades finish before the publisher goes away
	upgrader.Wait()
	if err := publisher.Close(); err != nil {
		logger.Warn("close publisher", zap.Error(err))
	}
	if conn != nil {
		_ = conn.Close()
	}

	logger.Info("shutdown complete")
}
