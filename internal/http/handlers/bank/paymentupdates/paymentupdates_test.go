package paymentupdates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ApplyPaymentUpdates(ctx context.Context, updates []models.PaymentUpdate) (int, error) {
	args := m.Called(ctx, updates)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPaymentUpdatesHandler_ServeHTTP(t *testing.T) {
	const invoiceID = "7f6f47a6-4c3e-4672-bd4e-abde2ab0bd02"

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*ServiceMock)
		wantStatusCode int
		wantSuccess    bool
		wantMessage    string
		wantCount      float64
	}{
		{
			name:        "valid batch",
			requestBody: `[{"invoiceId":"` + invoiceID + `","status":"EXECUTED"}]`,
			setupMock: func(s *ServiceMock) {
				s.On("ApplyPaymentUpdates", mock.Anything, []models.PaymentUpdate{
					{InvoiceID: invoiceID, Outcome: models.OutcomeExecuted},
				}).Return(1, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantSuccess:    true,
			wantCount:      1,
		},
		{
			name:        "empty batch",
			requestBody: `[]`,
			setupMock: func(s *ServiceMock) {
				s.On("ApplyPaymentUpdates", mock.Anything, []models.PaymentUpdate{}).
					Return(0, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantSuccess:    true,
			wantCount:      0,
		},
		{
			name:           "malformed json",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
			wantMessage:    "invalid request body",
		},
		{
			name:           "invoice id is not a uuid",
			requestBody:    `[{"invoiceId":"42","status":"EXECUTED"}]`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantSuccess:    false,
			wantMessage:    "field InvoiceID can contain only uuid",
		},
		{
			name:           "unknown status rejected",
			requestBody:    `[{"invoiceId":"` + invoiceID + `","status":"CHARGEBACK"}]`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantSuccess:    false,
			wantMessage:    "field Status has value outside the allowed set",
		},
		{
			name:        "service error",
			requestBody: `[{"invoiceId":"` + invoiceID + `","status":"REJECTED"}]`,
			setupMock: func(s *ServiceMock) {
				s.On("ApplyPaymentUpdates", mock.Anything, mock.Anything).
					Return(0, errors.New("db error")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantSuccess:    false,
			wantMessage:    "could not apply payment updates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(service)
			}
			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/bank/payment-updates",
				bytes.NewReader([]byte(tt.requestBody)))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantSuccess, got["success"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, got["message"])
			}
			if tt.wantSuccess {
				payload, ok := got["payload"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, tt.wantCount, payload["updatedCount"])
			}

			service.AssertExpectations(t)
		})
	}
}
