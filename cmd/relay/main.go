package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/audit"
	"github.com/xela07ax/payfail-relay/internal/infra"
	"github.com/xela07ax/payfail-relay/internal/relay"
	"github.com/xela07ax/payfail-relay/internal/server"
	"github.com/xela07ax/payfail-relay/internal/sinks/airtable"
	"github.com/xela07ax/payfail-relay/internal/sinks/gmail"
	"github.com/xela07ax/payfail-relay/internal/stripe"
	"github.com/xela07ax/payfail-relay/internal/transport"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	metrics := relay.NewMetrics(reg)

	// 3. Журнал операций (единственное разделяемое состояние процесса)
	trail := audit.NewTrail(logger)

	// 4. Внешние коллабораторы
	// Каждый синк получает свой ReliableClient (лимитер + предохранитель),
	// чтобы проблемы одного сервиса не выбивали второй
	base := &http.Client{Timeout: 15 * time.Second}
	mailTransport := transport.NewReliableClient("gmail", base, cfg.Relay, metrics.ObserveBreaker)
	storeTransport := transport.NewReliableClient("airtable", base, cfg.Relay, metrics.ObserveBreaker)

	sender := gmail.NewSender(cfg.Gmail, mailTransport, logger)
	store := airtable.NewClient(cfg.Airtable, cfg.Relay, storeTransport, logger)

	// 5. Сборка ядра (Dependency Injection)
	dispatcher := relay.NewDispatcher(sender, cfg.Gmail.AlertTo, trail, metrics, logger)
	recorder := relay.NewRecorder(store, trail, metrics, logger)
	pipeline := relay.NewPipeline(dispatcher, recorder, trail, metrics, logger)

	// 6. HTTP Server
	verifier := stripe.NewVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.Tolerance)
	handler := server.NewServer(logger, verifier, pipeline, trail,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("payfail-relay started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("payfail-relay stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("payfail-relay exited properly")
}
