package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// revenueCacheTTL время жизни кешированного отчёта по выручке.
const revenueCacheTTL = 10 * time.Minute

// MonthlyRevenue агрегирует выставленные суммы по месяцам даты биллинга
// в диапазоне [from, to]. Нулевые границы означают январь и декабрь текущего
// года. Учитываются счета всех статусов: отчёт показывает выставленную
// выручку, а не собранную. Месяцы без счетов опускаются, результат
// отсортирован по ключу месяца.
func (s *Service) MonthlyRevenue(ctx context.Context, from, to time.Time) ([]models.MonthlyRevenue, error) {
	const op = "export.MonthlyRevenue"

	now := time.Now().UTC()
	if from.IsZero() {
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(now.Year(), time.December, 1, 0, 0, 0, 0, time.UTC)
	}
	start := month.Start(from)
	end := month.End(to)

	cacheKey := fmt.Sprintf("revenue:%s:%s", month.Key(start), month.Key(end))
	if s.cache != nil {
		var cached []models.MonthlyRevenue
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read revenue report from cache",
				slog.String("key", cacheKey), sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	invoices, err := s.store.ListInvoicesByBillingRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	groups := lo.GroupBy(invoices, func(inv *models.Invoice) string {
		return month.Key(inv.BillingDate)
	})

	keys := lo.Keys(groups)
	sort.Strings(keys)

	result := make([]models.MonthlyRevenue, 0, len(keys))
	for _, key := range keys {
		var exclVat, vat, inclVat decimal.Decimal
		for _, inv := range groups[key] {
			exclVat = exclVat.Add(inv.AmountExclVat)
			vat = vat.Add(inv.VatAmount)
			inclVat = inclVat.Add(inv.AmountInclVat)
		}
		result = append(result, models.MonthlyRevenue{
			Month:          key,
			RevenueExclVat: exclVat.Round(2),
			VatAmount:      vat.Round(2),
			RevenueInclVat: inclVat.Round(2),
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, result, revenueCacheTTL); err != nil {
			s.log.Warn("failed to cache revenue report",
				slog.String("key", cacheKey), sl.Err(err))
		}
	}
	return result, nil
}

// InvalidateRevenue сбрасывает кэшированные отчёты, затронутые изменением
// счетов месяца m: однокомесячный диапазон и диапазон года по умолчанию.
// Произвольные диапазоны доживают до истечения TTL. Ошибка сброса не
// критична и только логируется.
func (s *Service) InvalidateRevenue(m time.Time) {
	if s.cache == nil {
		return
	}
	monthKey := month.Key(m)
	keys := []string{
		fmt.Sprintf("revenue:%s:%s", monthKey, monthKey),
		fmt.Sprintf("revenue:%d-01:%d-12", m.Year(), m.Year()),
	}
	for _, key := range keys {
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to invalidate revenue report cache",
				slog.String("key", key), sl.Err(err))
		}
	}
}
