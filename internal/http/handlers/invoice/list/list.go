// Package list реализует HTTP-обработчик списка счетов
// с фильтрами по пользователю, подписке и статусу.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-backoffice/internal/http/response"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// Service описывает интерфейс сервиса экспорта счетов.
type Service interface {
	ListInvoiceDetails(ctx context.Context, filter models.InvoiceFilter) ([]*models.InvoiceDetails, error)
}

// Handler управляет HTTP-запросами списка счетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список счетов с данными клиента
// @Description Возвращает счета с информацией о клиенте и подписке.
// @Description Поддерживает фильтры userId, subscriptionId и status.
// @Tags Invoices
// @Produce  json
// @Param userId query string false "Идентификатор пользователя"
// @Param subscriptionId query string false "Идентификатор подписки"
// @Param status query string false "Статус счета: PENDING, SENT, PAID, FAILED"
// @Success 200 {object} map[string]any "Список счетов"
// @Failure 400 {object} response.ErrorResponse "Некорректный статус"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выборке счетов"
// @Router /invoices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.invoice.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var filter models.InvoiceFilter
	if raw := r.URL.Query().Get("userId"); raw != "" {
		filter.UserID = &raw
	}
	if raw := r.URL.Query().Get("subscriptionId"); raw != "" {
		filter.SubscriptionID = &raw
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.InvoiceStatus(raw)
		if !status.Valid() {
			log.Error("invalid invoice status filter", slog.String("status", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid status, expected PENDING, SENT, PAID or FAILED"))
			return
		}
		filter.Status = &status
	}

	details, err := h.service.ListInvoiceDetails(r.Context(), filter)
	if err != nil {
		log.Error("failed to list invoices", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list invoices"))
		return
	}

	log.Info("invoices listed", slog.Int("count", len(details)))
	render.JSON(w, r, response.OK(details))
}
