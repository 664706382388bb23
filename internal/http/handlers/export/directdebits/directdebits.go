// Package directdebits реализует HTTP-обработчик банковской выгрузки
// поручений на списание за месяц, предшествующий дате исполнения.
package directdebits

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-backoffice/internal/http/response"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// Service описывает интерфейс сервиса экспорта.
type Service interface {
	ExportDirectDebits(ctx context.Context, executionDate time.Time) ([]*models.DirectDebitOrder, error)
}

// Handler управляет HTTP-запросами банковской выгрузки.
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
// @Summary Выгрузка банковских поручений
// @Description Строит поручения на списание по счетам месяца, предшествующего дате исполнения.
// @Tags Exports
// @Produce  json
// @Param executionDate query string true "Дата исполнения в формате YYYY-MM-DD"
// @Success 200 {object} map[string]any "Список поручений"
// @Failure 400 {object} response.ErrorResponse "Некорректная дата"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выгрузке"
// @Router /exports/banking/direct-debits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.export.directdebits"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	executionDate, err := month.ParseDate(r.URL.Query().Get("executionDate"))
	if err != nil {
		log.Error("invalid execution date", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid executionDate, expected YYYY-MM-DD"))
		return
	}

	orders, err := h.service.ExportDirectDebits(r.Context(), executionDate)
	if err != nil {
		log.Error("failed to export direct debits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export direct debits"))
		return
	}

	log.Info("direct debits exported", slog.Int("orders", len(orders)))
	render.JSON(w, r, response.OK(orders))
}
