package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-backoffice/internal/config"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ListSubscriptionsByStatus(ctx context.Context, status models.SubscriptionStatus) ([]*models.Subscription, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockLedger) CountInvoicesBySubscription(ctx context.Context, subscriptionID string) (int, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedger) HasInvoiceForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	args := m.Called(ctx, subscriptionID, periodStart)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testConfig() Config {
	return Config{
		VATRate:          decimal.RequireFromString("0.20"),
		WelcomePromoCode: "WELCOME",
		WelcomeDiscount:  decimal.RequireFromString("0.5"),
	}
}

func subscription(id, contractCode, amount string, promo *string) *models.Subscription {
	return &models.Subscription{
		ID:            id,
		UserID:        "user-" + id,
		ContractCode:  contractCode,
		StartDate:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyAmount: decimal.RequireFromString(amount),
		PromoCode:     promo,
		Status:        models.SubscriptionActive,
	}
}

func strptr(s string) *string { return &s }

func configBilling(vatRate, promoCode, discount string) config.Billing {
	return config.Billing{
		VATRate:          vatRate,
		WelcomePromoCode: promoCode,
		WelcomeDiscount:  discount,
	}
}

func TestGenerateMonthlyBilling_AmountsAndReference(t *testing.T) {
	billingDate := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	ledger := new(MockLedger)
	sub := subscription("sub1", "C001", "30.00", nil)
	ledger.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionActive).
		Return([]*models.Subscription{sub}, nil).Once()
	ledger.On("HasInvoiceForPeriod", mock.Anything, "sub1", periodStart).Return(false, nil).Once()
	ledger.On("CreateInvoice", mock.Anything, mock.Anything).Return(nil).Once()

	engine := NewEngine(ledger, testConfig(), newNoopLogger())
	result, err := engine.GenerateMonthlyBilling(context.Background(), billingDate)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 1)

	inv := result.Invoices[0]
	assert.Equal(t, "INV-2026-03-C001", inv.Reference)
	assert.Equal(t, billingDate, inv.BillingDate)
	assert.Equal(t, periodStart, inv.PeriodStart)
	assert.Equal(t, periodEnd, inv.PeriodEnd)
	assert.Equal(t, models.InvoicePending, inv.Status)
	assert.NotEmpty(t, inv.ID)

	assert.True(t, inv.AmountExclVat.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, inv.VatAmount.Equal(decimal.RequireFromString("6.00")))
	assert.True(t, inv.AmountInclVat.Equal(decimal.RequireFromString("36.00")))
	// Инвариант счёта: incl = excl + vat.
	assert.True(t, inv.AmountInclVat.Equal(inv.AmountExclVat.Add(inv.VatAmount)))

	ledger.AssertExpectations(t)
	ledger.AssertNotCalled(t, "CountInvoicesBySubscription", mock.Anything, mock.Anything)
}

func TestGenerateMonthlyBilling_TruncatesClockTime(t *testing.T) {
	// Запуск днём последнего числа месяца: дата счёта должна храниться
	// без времени суток, иначе счёт выпадает из диапазона [Start, End].
	billingDate := time.Date(2026, time.June, 30, 14, 0, 0, 0, time.UTC)
	wantDate := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	ledger := new(MockLedger)
	sub := subscription("sub1", "C001", "30.00", nil)
	ledger.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionActive).
		Return([]*models.Subscription{sub}, nil).Once()
	ledger.On("HasInvoiceForPeriod", mock.Anything, "sub1", periodStart).Return(false, nil).Once()
	ledger.On("CreateInvoice", mock.Anything, mock.Anything).Return(nil).Once()

	engine := NewEngine(ledger, testConfig(), newNoopLogger())
	result, err := engine.GenerateMonthlyBilling(context.Background(), billingDate)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 1)

	inv := result.Invoices[0]
	assert.Equal(t, wantDate, inv.BillingDate)
	assert.Equal(t, wantDate, result.BillingDate)
	assert.False(t, inv.BillingDate.After(month.End(billingDate)))

	ledger.AssertExpectations(t)
}

func TestGenerateMonthlyBilling_WelcomeDiscount(t *testing.T) {
	billingDate := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		promo         *string
		priorInvoices int
		amount        string
		expectedExcl  string
		expectedVat   string
		expectedIncl  string
		countCalled   bool
	}{
		{
			name:          "first invoice with welcome code gets half price",
			promo:         strptr("WELCOME"),
			priorInvoices: 0,
			amount:        "30.00",
			expectedExcl:  "15.00",
			expectedVat:   "3.00",
			expectedIncl:  "18.00",
			countCalled:   true,
		},
		{
			name:          "second invoice with welcome code pays full price",
			promo:         strptr("WELCOME"),
			priorInvoices: 1,
			amount:        "30.00",
			expectedExcl:  "30.00",
			expectedVat:   "6.00",
			expectedIncl:  "36.00",
			countCalled:   true,
		},
		{
			name:         "other promo code is ignored",
			promo:        strptr("SUMMER"),
			amount:       "30.00",
			expectedExcl: "30.00",
			expectedVat:  "6.00",
			expectedIncl: "36.00",
		},
		{
			name:          "half cent rounds away from zero",
			promo:         strptr("WELCOME"),
			priorInvoices: 0,
			amount:        "19.99",
			expectedExcl:  "10.00",
			expectedVat:   "2.00",
			expectedIncl:  "12.00",
			countCalled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(MockLedger)
			sub := subscription("sub1", "C001", tt.amount, tt.promo)
			ledger.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionActive).
				Return([]*models.Subscription{sub}, nil).Once()
			ledger.On("HasInvoiceForPeriod", mock.Anything, "sub1", periodStart).Return(false, nil).Once()
			if tt.countCalled {
				ledger.On("CountInvoicesBySubscription", mock.Anything, "sub1").
					Return(tt.priorInvoices, nil).Once()
			}
			ledger.On("CreateInvoice", mock.Anything, mock.Anything).Return(nil).Once()

			engine := NewEngine(ledger, testConfig(), newNoopLogger())
			result, err := engine.GenerateMonthlyBilling(context.Background(), billingDate)
			require.NoError(t, err)
			require.Len(t, result.Invoices, 1)

			inv := result.Invoices[0]
			assert.True(t, inv.AmountExclVat.Equal(decimal.RequireFromString(tt.expectedExcl)),
				"excl: got %s", inv.AmountExclVat)
			assert.True(t, inv.VatAmount.Equal(decimal.RequireFromString(tt.expectedVat)),
				"vat: got %s", inv.VatAmount)
			assert.True(t, inv.AmountInclVat.Equal(decimal.RequireFromString(tt.expectedIncl)),
				"incl: got %s", inv.AmountInclVat)

			ledger.AssertExpectations(t)
		})
	}
}

func TestGenerateMonthlyBilling_SkipsAlreadyBilled(t *testing.T) {
	billingDate := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	ledger := new(MockLedger)
	sub := subscription("sub1", "C001", "30.00", nil)
	ledger.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionActive).
		Return([]*models.Subscription{sub}, nil).Once()
	ledger.On("HasInvoiceForPeriod", mock.Anything, "sub1", periodStart).Return(true, nil).Once()

	engine := NewEngine(ledger, testConfig(), newNoopLogger())
	result, err := engine.GenerateMonthlyBilling(context.Background(), billingDate)
	require.NoError(t, err)
	assert.Empty(t, result.Invoices)

	ledger.AssertExpectations(t)
	ledger.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestGenerateMonthlyBilling_FailureDoesNotBlockOthers(t *testing.T) {
	billingDate := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	ledger := new(MockLedger)
	broken := subscription("sub1", "C001", "30.00", nil)
	healthy := subscription("sub2", "C002", "45.50", nil)
	ledger.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionActive).
		Return([]*models.Subscription{broken, healthy}, nil).Once()
	ledger.On("HasInvoiceForPeriod", mock.Anything, "sub1", periodStart).
		Return(false, errors.New("db error")).Once()
	ledger.On("HasInvoiceForPeriod", mock.Anything, "sub2", periodStart).Return(false, nil).Once()
	ledger.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(inv *models.Invoice) bool {
		return inv.SubscriptionID == "sub2"
	})).Return(nil).Once()

	engine := NewEngine(ledger, testConfig(), newNoopLogger())
	result, err := engine.GenerateMonthlyBilling(context.Background(), billingDate)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 1)
	assert.Equal(t, "INV-2026-03-C002", result.Invoices[0].Reference)

	ledger.AssertExpectations(t)
}

func TestGenerateMonthlyBilling_ListError(t *testing.T) {
	ledger := new(MockLedger)
	ledger.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionActive).
		Return(nil, errors.New("db error")).Once()

	engine := NewEngine(ledger, testConfig(), newNoopLogger())
	_, err := engine.GenerateMonthlyBilling(context.Background(),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(configBilling("0.20", "WELCOME", "0.5"))
	require.NoError(t, err)
	assert.True(t, cfg.VATRate.Equal(decimal.RequireFromString("0.20")))
	assert.Equal(t, "WELCOME", cfg.WelcomePromoCode)

	_, err = ParseConfig(configBilling("twenty percent", "WELCOME", "0.5"))
	assert.Error(t, err)

	_, err = ParseConfig(configBilling("0.20", "WELCOME", "half"))
	assert.Error(t, err)
}
