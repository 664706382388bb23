// Package accounting реализует HTTP-обработчик бухгалтерского экспорта
// счетов за месяц: три строки проводки на каждый счёт.
package accounting

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
	AccountingLines(ctx context.Context, billingMonth time.Time) ([]models.AccountingLine, error)
}

// Handler управляет HTTP-запросами бухгалтерского экспорта.
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
// @Summary Бухгалтерский экспорт счетов месяца
// @Description Возвращает строки проводок по счетам указанного месяца биллинга:
// @Description дебет клиента (411), кредит услуги (706), кредит НДС (445).
// @Tags Exports
// @Produce  json
// @Param billingMonth query string true "Месяц биллинга в формате YYYY-MM"
// @Success 200 {object} map[string]any "Строки проводок"
// @Failure 400 {object} response.ErrorResponse "Некорректный месяц"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при экспорте"
// @Router /exports/accounting/monthly-invoices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.export.accounting"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	billingMonth, err := month.ParseKey(r.URL.Query().Get("billingMonth"))
	if err != nil {
		log.Error("invalid billing month", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid billingMonth, expected YYYY-MM"))
		return
	}

	lines, err := h.service.AccountingLines(r.Context(), billingMonth)
	if err != nil {
		log.Error("failed to build accounting export", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build accounting export"))
		return
	}

	log.Info("accounting export built", slog.Int("lines", len(lines)))
	render.JSON(w, r, response.OK(lines))
}
