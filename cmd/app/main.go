package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/Domenick1991/servicebooking/api"
	"github.com/Domenick1991/servicebooking/config"
	"github.com/Domenick1991/servicebooking/internal/auth"
	"github.com/Domenick1991/servicebooking/internal/bootstrap"
	"github.com/Domenick1991/servicebooking/internal/cache"
	"github.com/Domenick1991/servicebooking/internal/email"
	"github.com/Domenick1991/servicebooking/internal/kafka"
	"github.com/Domenick1991/servicebooking/internal/lock"
	"github.com/Domenick1991/servicebooking/internal/outbound"
	"github.com/Domenick1991/servicebooking/internal/repository"
	"github.com/Domenick1991/servicebooking/internal/service/booking"
	"github.com/Domenick1991/servicebooking/internal/service/dispatch"
	"github.com/Domenick1991/servicebooking/internal/service/notification"
	"github.com/Domenick1991/servicebooking/internal/service/professionals"
	"github.com/Domenick1991/servicebooking/internal/service/rating"
	"github.com/Domenick1991/servicebooking/internal/service/review"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := newLogger(cfg.Log)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	return logger
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.Database.ConnString())
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	g, gctx := errgroup.WithContext(ctx)

	cacheMetrics := cache.NewMetrics(reg)
	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Cache.TTL(), cacheMetrics)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis not reachable, reads will fall through to the database", zap.Error(err))
		}
		store = redisCache
	default:
		memory := cache.NewMemoryCache(cfg.Cache.TTL(), cache.WithMetrics(cacheMetrics))
		g.Go(func() error {
			memory.Run(gctx, cfg.Cache.SweepInterval())
			return nil
		})
		store = memory
	}
	loader := cache.NewLoader(store, logger, cacheMetrics)

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
	}

	outMetrics := outbound.NewMetrics(reg)
	var sender outbound.Sender
	if cfg.Outbound.Mode == config.OutboundModeKafka {
		sender = outbound.NewKafkaSender(producer, cfg.Kafka.OutboundTopic)
	} else {
		sender = newDirectSender(cfg.Outbound, logger, outMetrics)
	}
	dispatcher := outbound.NewDispatcher(sender, cfg.Outbound.Workers, cfg.Outbound.QueueSize, logger, outMetrics)

	userRepo := repository.NewUserRepository(pool)
	proRepo := repository.NewProfessionalRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	prefRepo := repository.NewPreferenceRepository(pool)

	tz := cfg.Notification.DefaultTimezone
	invalidator := dispatch.NewInvalidator(loader)
	gate := notification.NewGate(prefRepo, tz, logger, reg)
	notificationService := notification.NewNotificationService(
		notificationRepo, prefRepo, userRepo, gate, dispatcher, invalidator, loader, tz, logger)
	aggregator := rating.NewAggregator(proRepo, reviewRepo, lock.NewKeyed(), logger)
	orchestrator := dispatch.NewOrchestrator(invalidator, notificationService, aggregator, logger)

	var bookingOpts []booking.BookingServiceOption
	if producer != nil {
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}
	bookingService := booking.NewBookingService(bookingRepo, proRepo, orchestrator, loader, logger, bookingOpts...)
	reviewService := review.NewReviewService(reviewRepo, bookingRepo, orchestrator, loader, logger)
	professionalService := professionals.NewProfessionalService(proRepo, loader)

	resolver := auth.NewResolver(auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer), userRepo)
	router := api.NewRouter(api.Handlers{
		Bookings:      api.NewBookingHandler(bookingService),
		Reviews:       api.NewReviewHandler(reviewService),
		Notifications: api.NewNotificationHandler(notificationService),
		Professionals: api.NewProfessionalHandler(professionalService),
	}, resolver, reg, logger)

	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return bootstrap.Run(gctx, cfg.HTTP, router, logger) })
	return g.Wait()
}

// newDirectSender delivers from this process: SMTP when configured, otherwise log lines.
func newDirectSender(cfg config.OutboundConfig, logger *zap.Logger, metrics *outbound.Metrics) outbound.Sender {
	logTransport := outbound.NewLogTransport(logger)
	var mail outbound.EmailSender = logTransport
	if cfg.SMTP.Addr != "" {
		mail = email.NewSender(cfg.SMTP)
	}
	transport := outbound.Combine(mail, logTransport)
	return outbound.NewTransportSender(outbound.NewBreakerTransport(transport, cfg.Breaker, logger, metrics))
}
