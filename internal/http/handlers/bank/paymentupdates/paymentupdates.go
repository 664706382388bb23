// Package paymentupdates реализует HTTP-обработчик приёма банковских исходов
// платежей (аналог банковского webhook) и их применения к счетам.
package paymentupdates

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/billing-backoffice/internal/http/response"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// Service описывает интерфейс сервиса сверки платежей.
type Service interface {
	ApplyPaymentUpdates(ctx context.Context, updates []models.PaymentUpdate) (int, error)
}

// Handler управляет HTTP-запросами применения платёжных обновлений.
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
// @Summary Применить банковские исходы платежей
// @Description Принимает массив обновлений {invoiceId, status} и применяет их к счетам.
// @Description Возвращает число успешно применённых обновлений.
// @Tags Bank
// @Accept  json
// @Produce  json
// @Param request body []models.DummyPaymentUpdate true "Обновления платежей"
// @Success 200 {object} map[string]any "Число применённых обновлений"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при сверке"
// @Router /bank/payment-updates [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bank.paymentupdates"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req []models.DummyPaymentUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	updates := make([]models.PaymentUpdate, 0, len(req))
	for _, item := range req {
		if err := h.validate.Struct(item); err != nil {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
			return
		}
		updates = append(updates, models.PaymentUpdate{
			InvoiceID: item.InvoiceID,
			Outcome:   models.PaymentOutcome(item.Status),
		})
	}

	updatedCount, err := h.service.ApplyPaymentUpdates(r.Context(), updates)
	if err != nil {
		log.Error("failed to apply payment updates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not apply payment updates"))
		return
	}

	log.Info("payment updates applied", slog.Int("updated_count", updatedCount))
	render.JSON(w, r, response.OK(map[string]any{
		"updatedCount": updatedCount,
	}))
}
