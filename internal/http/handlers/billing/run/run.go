// Package run реализует HTTP-обработчик запуска месячного биллинга.
//
// Обработчик принимает необязательную дату биллинга, валидирует её,
// вызывает движок биллинга и возвращает дату запуска со списком
// созданных счетов.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/billing-backoffice/internal/http/response"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// Service описывает интерфейс движка биллинга.
type Service interface {
	GenerateMonthlyBilling(ctx context.Context, billingDate time.Time) (*models.BillingRunResult, error)
}

// Handler управляет HTTP-запросами запуска биллинга.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запустить месячный биллинг
// @Description Выставляет счета всем активным подпискам за месяц указанной даты.
// @Description Пустое тело запроса означает текущую дату.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body models.DummyBillingRun false "Дата биллинга"
// @Success 200 {object} map[string]any "Результат запуска биллинга"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при запуске биллинга"
// @Router /billing/monthly [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.run"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBillingRun
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var billingDate time.Time
	if req.BillingDate != "" {
		var err error
		billingDate, err = month.ParseDate(req.BillingDate)
		if err != nil {
			log.Error("invalid billing date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid billing date"))
			return
		}
	}

	result, err := h.service.GenerateMonthlyBilling(r.Context(), billingDate)
	if err != nil {
		log.Error("failed to run monthly billing", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not run monthly billing"))
		return
	}

	log.Info("monthly billing run completed", slog.Int("invoices", len(result.Invoices)))
	render.JSON(w, r, response.OK(result))
}
