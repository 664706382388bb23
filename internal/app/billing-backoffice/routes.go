// Package billingbackoffice предоставляет маршруты для основного приложения.
package billingbackoffice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/bank/paymentupdates"
	billingrun "github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/billing/run"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/export/accounting"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/export/directdebits"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/health"
	invoicelist "github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/invoice/list"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/handlers/report/revenue"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/middlewarectx"
	jwtlib "github.com/magabrotheeeer/billing-backoffice/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/billing-backoffice/internal/services/auth"
	exportservice "github.com/magabrotheeeer/billing-backoffice/internal/services/export"
	reconcileservice "github.com/magabrotheeeer/billing-backoffice/internal/services/reconcile"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, maker jwtlib.Maker,
	authService *authservice.Service, billingService billingrun.Service,
	reconcileService *reconcileservice.Service, exportService *exportservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией и проверкой прав доступа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.AccessMiddleware(logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/billing/monthly", billingrun.New(logger, billingService).ServeHTTP)
			r.Post("/bank/payment-updates", paymentupdates.New(logger, reconcileService).ServeHTTP)
			r.Get("/exports/banking/direct-debits", directdebits.New(logger, exportService).ServeHTTP)
			r.Get("/exports/accounting/monthly-invoices", accounting.New(logger, exportService).ServeHTTP)
			r.Get("/reports/revenue/monthly", revenue.New(logger, exportService).ServeHTTP)
			r.Get("/invoices", invoicelist.New(logger, exportService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
