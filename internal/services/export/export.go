// Package export строит производные представления счетов: банковские
// поручения на списание, бухгалтерские строки, месячную выручку и
// обогащённые списки счетов. Пакет только читает хранилище.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/iter"

	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// LedgerStore определяет операции хранилища, нужные экспортам.
type LedgerStore interface {
	ListInvoicesByBillingRange(ctx context.Context, from, to time.Time) ([]*models.Invoice, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error)
	ReadUser(ctx context.Context, id string) (*models.User, error)
	ReadSubscription(ctx context.Context, id string) (*models.Subscription, error)
}

// Cache описывает методы для кэширования отчётных данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует экспортные операции.
type Service struct {
	store LedgerStore
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service. cache может быть nil,
// тогда отчёты считаются на каждом вызове.
func New(store LedgerStore, cache Cache, log *slog.Logger) *Service {
	return &Service{
		store: store,
		cache: cache,
		log:   log,
	}
}

// ExportDirectDebits строит банковские поручения для счетов месяца,
// предшествующего месяцу executionDate. Включаются только счета в статусах
// PENDING и SENT, чьи владельцы имеют инструмент CARD или SEPA.
// Поручения не персистятся и пересчитываются при каждом вызове.
// Результат отсортирован по номеру счёта.
func (s *Service) ExportDirectDebits(ctx context.Context, executionDate time.Time) ([]*models.DirectDebitOrder, error) {
	const op = "export.ExportDirectDebits"

	billingMonth := month.Previous(executionDate)
	invoices, err := s.store.ListInvoicesByBillingRange(ctx, billingMonth, month.End(billingMonth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	collectible := lo.Filter(invoices, func(inv *models.Invoice, _ int) bool {
		return inv.Status == models.InvoicePending || inv.Status == models.InvoiceSent
	})

	// Владельцы читаются параллельно, порядок счетов сохраняется.
	orders := iter.Map(collectible, func(inv **models.Invoice) *models.DirectDebitOrder {
		return s.orderForInvoice(ctx, *inv, executionDate)
	})
	result := lo.Compact(orders)

	s.log.Info("direct debit export built",
		slog.String("billing_month", month.Key(billingMonth)),
		slog.Int("invoices", len(invoices)),
		slog.Int("orders", len(result)))
	return result, nil
}

// orderForInvoice превращает счёт в поручение. Счёт без пользователя или
// без инструмента списания исключается из выгрузки: это пробел данных,
// а не ошибка вызова.
func (s *Service) orderForInvoice(ctx context.Context, inv *models.Invoice, executionDate time.Time) *models.DirectDebitOrder {
	user, err := s.store.ReadUser(ctx, inv.UserID)
	if err != nil {
		s.log.Warn("invoice excluded from direct debit export: owner lookup failed",
			slog.String("invoice_reference", inv.Reference),
			slog.String("user_id", inv.UserID), sl.Err(err))
		return nil
	}
	if !user.PaymentMethod.Collectible() {
		s.log.Info("invoice excluded from direct debit export: no collectible payment method",
			slog.String("invoice_reference", inv.Reference),
			slog.String("user_id", inv.UserID))
		return nil
	}
	return &models.DirectDebitOrder{
		ID:            uuid.New().String(),
		InvoiceID:     inv.ID,
		UserID:        inv.UserID,
		ExecutionDate: executionDate,
		Amount:        inv.AmountInclVat,
		Status:        models.DirectDebitStatusToSend,
		PaymentMethod: user.PaymentMethod.Type,
	}
}

// ListInvoiceDetails возвращает счета по фильтру, обогащённые подпиской и
// пользователем. Недоступная связанная запись оставляет поле пустым.
func (s *Service) ListInvoiceDetails(ctx context.Context, filter models.InvoiceFilter) ([]*models.InvoiceDetails, error) {
	const op = "export.ListInvoiceDetails"

	invoices, err := s.store.ListInvoices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	details := iter.Map(invoices, func(inv **models.Invoice) *models.InvoiceDetails {
		item := &models.InvoiceDetails{Invoice: *inv}
		sub, err := s.store.ReadSubscription(ctx, (*inv).SubscriptionID)
		if err != nil {
			s.log.Warn("failed to hydrate invoice subscription",
				slog.String("invoice_reference", (*inv).Reference), sl.Err(err))
		} else {
			item.Subscription = sub
		}
		user, err := s.store.ReadUser(ctx, (*inv).UserID)
		if err != nil {
			s.log.Warn("failed to hydrate invoice user",
				slog.String("invoice_reference", (*inv).Reference), sl.Err(err))
		} else {
			item.User = user
		}
		return item
	})
	return details, nil
}
