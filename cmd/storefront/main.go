package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/config"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	kafkaAdapter "digital-storefront/internal/infra/adapters/kafka"
	payAdapters "digital-storefront/internal/infra/adapters/payment"
	tele "digital-storefront/internal/infra/adapters/telegram"
	"digital-storefront/internal/infra/api"
	"digital-storefront/internal/infra/db/migrations"
	pg "digital-storefront/internal/infra/db/postgres"
	"digital-storefront/internal/infra/events"
	"digital-storefront/internal/infra/logging"
	"digital-storefront/internal/infra/metrics"
	red "digital-storefront/internal/infra/redis"
	"digital-storefront/internal/infra/sched"
	"digital-storefront/internal/infra/security"
	"digital-storefront/internal/infra/worker"
	"digital-storefront/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose output)")
	supportToken := flag.String("support-token", "", "print a support bearer token for the given agent id and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	auth := api.NewAuthManager(cfg.Auth)
	if *supportToken != "" {
		tok, err := auth.Sign(model.Actor{UserID: *supportToken, Role: model.RoleSupport}, cfg.Auth.SessionTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("sign support token")
		}
		fmt.Println(tok)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.MigrationURL); err != nil {
			logger.Fatal().Err(err).Msg("migrations")
		}
		logger.Info().Msg("database migrations applied")
	}
	pool, err := pg.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Encryption ----
	sealer, err := security.NewSealer(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("sealer")
	}
	if cfg.Security.EncryptionKey == "" {
		logger.Warn().Msg("security.encryption_key not set; delivered secrets are stored unsealed")
	}

	// ---- Repositories ----
	products := pg.NewProductRepoCacheDecorator(pg.NewProductRepo(pool), redisClient, cfg.Redis.CacheTTL, logger)
	orders := pg.NewOrderRepo(pool, sealer)
	balances := pg.NewBalanceRepo(pool)
	tickets := pg.NewTicketRepo(pool)
	tm := pg.NewTxManager(pool)

	carts := red.NewCartRepo(redisClient, cfg.Redis.CartTTL)
	lastOrders := red.NewLastOrderRepo(redisClient, cfg.Redis.CartTTL, sealer)
	locker := red.NewLocker(redisClient)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Events ----
	bus := events.NewBus(logger, events.NewLogSink(logger), events.MetricsSink{})
	var producer *kafkaAdapter.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkaAdapter.NewProducer(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("kafka producer")
		}
		bus.Subscribe(producer)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka sink enabled")
	}

	// ---- Support notifications ----
	notifier := supportNotifier(cfg.Support, logger)
	workers := worker.NewPool(cfg.Fulfillment.NotificationWorkers, logger)
	workers.Start(ctx)
	dispatcher := worker.NewNotifyDispatcher(workers, notifier, 10*time.Second, logger)

	// ---- Use cases ----
	resolver := usecase.NewDeliveryResolver(usecase.DeliveryPolicy{
		SLAMinutes:       cfg.Fulfillment.SLAMinutes,
		InviteSLAMinutes: cfg.Fulfillment.InviteSLAMinutes,
		CredentialDomain: cfg.Fulfillment.CredentialDomain,
		DownloadBaseURL:  cfg.Fulfillment.DownloadBaseURL,
		Seed:             []byte(cfg.Security.DeliverySeed),
	})
	orderUC := usecase.NewOrderUseCase(orders, balances, tm, payAdapters.NewNoopPaymentGateway(), resolver, bus, dispatcher, logger, cfg.Runtime.Dev)
	sessions := usecase.NewSessionLocks()
	checkout := usecase.NewCheckoutOrchestrator(carts, lastOrders, balances, orderUC, locker, bus, usecase.CheckoutOptions{
		LockTTL:       cfg.Checkout.LockTTL,
		SubmitTimeout: cfg.Checkout.SubmitLimit,
		Sessions:      sessions,
	}, logger)

	deps := api.Deps{
		Auth:     auth,
		Catalog:  usecase.NewCatalogUseCase(products),
		Cart:     usecase.NewCartUseCase(carts, products, bus, sessions, logger),
		Checkout: checkout,
		Orders:   orderUC,
		Tickets:  usecase.NewTicketUseCase(tickets, orders, dispatcher, logger),
		Balances: usecase.NewBalanceUseCase(balances, logger),
		Limiter:  limiter,
		Health: func(ctx context.Context) error {
			return errors.Join(pool.Ping(ctx), redisClient.Ping(ctx))
		},
	}

	// ---- SLA watchdog ----
	window := time.Duration(cfg.Fulfillment.SLAMinutes) * time.Minute
	watchdog := sched.NewSLAWatchdog(cfg.Fulfillment.WatchdogInterval, window, orderUC, dispatcher, logger)
	go func() {
		if err := watchdog.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("sla watchdog stopped")
		}
	}()

	// ---- HTTP server ----
	srv := api.NewServer(*cfg, deps, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	workers.Stop()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error().Err(err).Msg("kafka producer close")
		}
	}
	logger.Info().Msg("bye")
}

func supportNotifier(cfg config.SupportConfig, logger *zerolog.Logger) adapter.SupportNotifier {
	if cfg.TelegramToken == "" {
		logger.Warn().Msg("support.telegram_token not set; support alerts are only logged")
		return tele.NewNoopNotifier(logger)
	}
	n, err := tele.NewSupportNotifier(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram notifier")
	}
	return n
}
