// Package revenue реализует HTTP-обработчик отчета по выручке
// за диапазон месяцев.
package revenue

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

// Service описывает интерфейс сервиса отчетности.
type Service interface {
	MonthlyRevenue(ctx context.Context, from, to time.Time) ([]models.MonthlyRevenue, error)
}

// Handler управляет HTTP-запросами отчета по выручке.
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
// @Summary Отчет по выручке за диапазон месяцев
// @Description Возвращает суммы выручки без НДС, НДС и с НДС по каждому месяцу диапазона.
// @Description Без параметров берется текущий календарный год.
// @Tags Reports
// @Produce  json
// @Param from query string false "Начальный месяц в формате YYYY-MM"
// @Param to query string false "Конечный месяц в формате YYYY-MM"
// @Success 200 {object} map[string]any "Выручка по месяцам"
// @Failure 400 {object} response.ErrorResponse "Некорректный диапазон"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при построении отчета"
// @Router /reports/revenue/monthly [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.revenue"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var from, to time.Time
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = month.ParseKey(raw)
		if err != nil {
			log.Error("invalid from month", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid from, expected YYYY-MM"))
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = month.ParseKey(raw)
		if err != nil {
			log.Error("invalid to month", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid to, expected YYYY-MM"))
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		log.Error("revenue range is inverted")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("to must not precede from"))
		return
	}

	rows, err := h.service.MonthlyRevenue(r.Context(), from, to)
	if err != nil {
		log.Error("failed to build revenue report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build revenue report"))
		return
	}

	log.Info("revenue report built", slog.Int("months", len(rows)))
	render.JSON(w, r, response.OK(rows))
}
