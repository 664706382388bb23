// Package billingbackoffice собирает основное приложение: хранилище,
// кэш, брокер уведомлений, сервисы и HTTP-сервер.
package billingbackoffice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/billing-backoffice/internal/cache"
	"github.com/magabrotheeeer/billing-backoffice/internal/config"
	jwtlib "github.com/magabrotheeeer/billing-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/migrations"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/billing-backoffice/internal/services/auth"
	billingservice "github.com/magabrotheeeer/billing-backoffice/internal/services/billing"
	exportservice "github.com/magabrotheeeer/billing-backoffice/internal/services/export"
	notifyservice "github.com/magabrotheeeer/billing-backoffice/internal/services/notify"
	reconcileservice "github.com/magabrotheeeer/billing-backoffice/internal/services/reconcile"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage/memory"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage/postgres"
)

// App инкапсулирует HTTP-сервер и внешние соединения приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *postgres.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение по конфигу. Брокер уведомлений опционален:
// при недоступном RabbitMQ приостановки не публикуются, остальные
// операции работают в полном объёме.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	decimal.MarshalJSONWithoutQuotes = true

	app := &App{logger: logger}

	var ledger storage.Ledger
	switch cfg.Storage.Backend {
	case "memory":
		ledger = memory.New()
	case "postgres", "":
		db, err := postgres.New(cfg.Storage.ConnectionString)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(db.DB, cfg.Storage.MigrationsPath); err != nil {
			return nil, err
		}
		if err = postgres.CheckDatabaseReady(db); err != nil {
			return nil, err
		}
		app.db = db
		ledger = db
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis is unavailable, reports are computed on every call", sl.Err(err))
		cacheRedis = nil
	}

	var publisher reconcileservice.EventPublisher
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Warn("rabbitmq is unavailable, suspension notifications are disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			conn.Close()
			return nil, err
		}
		app.conn = conn
		app.ch = ch
		publisher = notifyservice.NewPublisher(ch, logger)
	}

	billingCfg, err := billingservice.ParseConfig(cfg.Billing)
	if err != nil {
		return nil, err
	}

	maker := jwtlib.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(ledger, maker, logger)
	billingEngine := billingservice.NewEngine(ledger, billingCfg, logger)
	reconcileService := reconcileservice.New(ledger, publisher, logger)

	var reportCache exportservice.Cache
	if cacheRedis != nil {
		reportCache = cacheRedis
	}
	exportService := exportservice.New(ledger, reportCache, logger)
	billingService := &billingWithCacheReset{engine: billingEngine, reports: exportService}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, maker, authService, billingService, reconcileService, exportService)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// billingWithCacheReset сбрасывает кэш отчёта по выручке после запуска
// биллинга, создавшего счета.
type billingWithCacheReset struct {
	engine  *billingservice.Engine
	reports *exportservice.Service
}

func (b *billingWithCacheReset) GenerateMonthlyBilling(ctx context.Context, billingDate time.Time) (*models.BillingRunResult, error) {
	result, err := b.engine.GenerateMonthlyBilling(ctx, billingDate)
	if err == nil && len(result.Invoices) > 0 {
		b.reports.InvalidateRevenue(result.BillingDate)
	}
	return result, err
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.ch != nil {
			_ = a.ch.Close()
		}
		if a.conn != nil {
			_ = a.conn.Close()
		}
		if a.db != nil {
			a.db.DB.Close()
		}
		return err
	}
}
