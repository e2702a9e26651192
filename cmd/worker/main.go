package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/servicebooking/config"
	"github.com/Domenick1991/servicebooking/internal/bootstrap"
	"github.com/Domenick1991/servicebooking/internal/email"
	"github.com/Domenick1991/servicebooking/internal/kafka"
	"github.com/Domenick1991/servicebooking/internal/outbound"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// The worker drains the outbound topic and performs the email and SMS calls.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatal("worker needs kafka.brokers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := outbound.NewMetrics(reg)

	logTransport := outbound.NewLogTransport(logger)
	var mail outbound.EmailSender = logTransport
	if cfg.Outbound.SMTP.Addr != "" {
		mail = email.NewSender(cfg.Outbound.SMTP)
	}
	transport := outbound.NewBreakerTransport(outbound.Combine(mail, logTransport), cfg.Outbound.Breaker, logger, metrics)
	handler := outbound.HandleKafkaMessage(outbound.NewTransportSender(transport), logger, metrics)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OutboundTopic, logger)
	defer consumer.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsCfg := config.HTTPConfig{Address: cfg.Worker.MetricsAddress, ShutdownSeconds: cfg.HTTP.ShutdownSeconds}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Consume(gctx, handler) })
	g.Go(func() error { return bootstrap.Run(gctx, metricsCfg, mux, logger) })

	if err := g.Wait(); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
	logger.Info("worker stopped")
}
