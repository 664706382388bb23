// Package billing реализует движок месячного биллинга: выборку активных
// подписок, расчёт сумм с приветственной скидкой и НДС и выставление счетов.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/iter"

	"github.com/magabrotheeeer/billing-backoffice/internal/config"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

var invoicesGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "billing_invoices_generated_total",
	Help: "Number of invoices created by monthly billing runs.",
})

// LedgerStore определяет операции хранилища, нужные движку биллинга.
type LedgerStore interface {
	// ListSubscriptionsByStatus возвращает подписки с указанным статусом.
	ListSubscriptionsByStatus(ctx context.Context, status models.SubscriptionStatus) ([]*models.Subscription, error)
	// CountInvoicesBySubscription подсчитывает все счета подписки за её историю.
	CountInvoicesBySubscription(ctx context.Context, subscriptionID string) (int, error)
	// HasInvoiceForPeriod сообщает, выставлен ли подписке счёт за месяц periodStart.
	HasInvoiceForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error)
	// CreateInvoice вставляет новый счёт.
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
}

// Config параметры тарификации движка. Значения приходят из конфигурации
// приложения, а не зашиты в код: тесты подставляют свои.
type Config struct {
	VATRate          decimal.Decimal // Ставка НДС, например 0.20
	WelcomePromoCode string          // Код приветственного предложения
	WelcomeDiscount  decimal.Decimal // Доля скидки от базовой суммы, например 0.5
}

// ParseConfig разбирает строковые значения раздела billing конфига.
func ParseConfig(cfg config.Billing) (Config, error) {
	const op = "billing.ParseConfig"
	vatRate, err := decimal.NewFromString(cfg.VATRate)
	if err != nil {
		return Config{}, fmt.Errorf("%s: invalid vat_rate: %w", op, err)
	}
	discount, err := decimal.NewFromString(cfg.WelcomeDiscount)
	if err != nil {
		return Config{}, fmt.Errorf("%s: invalid welcome_discount: %w", op, err)
	}
	return Config{
		VATRate:          vatRate,
		WelcomePromoCode: cfg.WelcomePromoCode,
		WelcomeDiscount:  discount,
	}, nil
}

// Engine выставляет счета за календарный месяц по активным подпискам.
type Engine struct {
	store LedgerStore
	cfg   Config
	log   *slog.Logger
}

// NewEngine создает новый экземпляр Engine.
func NewEngine(store LedgerStore, cfg Config, log *slog.Logger) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// GenerateMonthlyBilling выставляет по одному счёту каждой активной подписке
// за месяц, в который попадает billingDate. Нулевая дата означает текущую.
// Подписки обрабатываются независимо: ошибка по одной не прерывает остальные,
// результат содержит только созданные этим запуском счета.
// Повторный запуск за уже выставленный месяц подписку пропускает.
func (e *Engine) GenerateMonthlyBilling(ctx context.Context, billingDate time.Time) (*models.BillingRunResult, error) {
	const op = "billing.GenerateMonthlyBilling"
	if billingDate.IsZero() {
		billingDate = time.Now().UTC()
	}
	// Дата счёта хранится без времени суток, иначе счёт за последний день
	// месяца выпадает из диапазона [Start, End] при выгрузках и отчётах.
	billingDate = month.Date(billingDate)
	periodStart := month.Start(billingDate)
	periodEnd := month.End(billingDate)

	subs, err := e.store.ListSubscriptionsByStatus(ctx, models.SubscriptionActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.log.Info("starting monthly billing run",
		slog.String("month", month.Key(billingDate)),
		slog.Int("active_subscriptions", len(subs)))

	results := iter.Map(subs, func(sub **models.Subscription) *models.Invoice {
		inv, err := e.billSubscription(ctx, *sub, billingDate, periodStart, periodEnd)
		if err != nil {
			e.log.Error("failed to bill subscription",
				slog.String("subscription_id", (*sub).ID), sl.Err(err))
			return nil
		}
		return inv
	})
	invoices := lo.Compact(results)

	invoicesGenerated.Add(float64(len(invoices)))
	e.log.Info("monthly billing run finished",
		slog.String("month", month.Key(billingDate)),
		slog.Int("created", len(invoices)),
		slog.Int("skipped_or_failed", len(subs)-len(invoices)))

	return &models.BillingRunResult{
		BillingDate: billingDate,
		Invoices:    invoices,
	}, nil
}

// billSubscription рассчитывает и персистит счёт одной подписки.
// Возвращает nil, nil, если счёт за этот месяц уже существует.
func (e *Engine) billSubscription(ctx context.Context, sub *models.Subscription, billingDate, periodStart, periodEnd time.Time) (*models.Invoice, error) {
	alreadyBilled, err := e.store.HasInvoiceForPeriod(ctx, sub.ID, periodStart)
	if err != nil {
		return nil, err
	}
	if alreadyBilled {
		e.log.Info("subscription already billed for period, skipping",
			slog.String("subscription_id", sub.ID),
			slog.String("month", month.Key(periodStart)))
		return nil, nil
	}

	amountExclVat, err := e.amountExclVat(ctx, sub)
	if err != nil {
		return nil, err
	}
	vatAmount := amountExclVat.Mul(e.cfg.VATRate).Round(2)
	amountInclVat := amountExclVat.Add(vatAmount).Round(2)

	inv := &models.Invoice{
		ID:             uuid.New().String(),
		Reference:      models.InvoiceReference(billingDate, sub.ContractCode),
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		BillingDate:    billingDate,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		AmountExclVat:  amountExclVat,
		VatAmount:      vatAmount,
		AmountInclVat:  amountInclVat,
		Status:         models.InvoicePending,
	}
	if err := e.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	e.log.Info("invoice created",
		slog.String("reference", inv.Reference),
		sl.Amount("amount_incl_vat", inv.AmountInclVat))
	return inv, nil
}

// amountExclVat возвращает базовую сумму подписки с учётом приветственной
// скидки. Скидка применяется только при первом счёте подписки, и это
// проверяется запросом числа счетов на каждом запуске, а не флагом на подписке.
func (e *Engine) amountExclVat(ctx context.Context, sub *models.Subscription) (decimal.Decimal, error) {
	base := sub.MonthlyAmount.Round(2)
	if sub.PromoCode == nil || *sub.PromoCode != e.cfg.WelcomePromoCode {
		return base, nil
	}

	priorInvoices, err := e.store.CountInvoicesBySubscription(ctx, sub.ID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if priorInvoices > 0 {
		return base, nil
	}
	return base.Mul(decimal.NewFromInt(1).Sub(e.cfg.WelcomeDiscount)).Round(2), nil
}
