package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/billing-backoffice/internal/lib/month"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// AccountingLines строит бухгалтерский экспорт за указанный месяц биллинга:
// на каждый счёт по три строки — дебет клиента (411), кредит услуги (706)
// и кредит НДС (445). Счёт без владельца пропускается с записью в лог.
func (s *Service) AccountingLines(ctx context.Context, billingMonth time.Time) ([]models.AccountingLine, error) {
	const op = "export.AccountingLines"

	start := month.Start(billingMonth)
	invoices, err := s.store.ListInvoicesByBillingRange(ctx, start, month.End(start))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lines := make([]models.AccountingLine, 0, len(invoices)*3)
	for _, inv := range invoices {
		user, err := s.store.ReadUser(ctx, inv.UserID)
		if err != nil {
			s.log.Warn("invoice excluded from accounting export: owner lookup failed",
				slog.String("invoice_reference", inv.Reference),
				slog.String("user_id", inv.UserID), sl.Err(err))
			continue
		}
		lines = append(lines, invoiceLines(inv, user)...)
	}

	s.log.Info("accounting export built",
		slog.String("billing_month", month.Key(start)),
		slog.Int("invoices", len(invoices)),
		slog.Int("lines", len(lines)))
	return lines, nil
}

// invoiceLines раскладывает один счёт в три строки проводки.
// Стороны дебета и кредита взаимоисключающие.
func invoiceLines(inv *models.Invoice, user *models.User) []models.AccountingLine {
	customerName := strings.TrimSpace(user.FirstName + " " + user.LastName)
	description := "Invoice " + inv.Reference
	debit := inv.AmountInclVat
	creditProduct := inv.AmountExclVat
	creditVat := inv.VatAmount

	return []models.AccountingLine{
		{
			Date:           inv.BillingDate,
			GeneralAccount: models.AccountClient,
			ClientAccount:  clientAccountFor(user),
			InvoiceRef:     inv.Reference,
			Description:    description,
			Debit:          &debit,
			CustomerName:   customerName,
		},
		{
			Date:           inv.BillingDate,
			GeneralAccount: models.AccountProduct,
			InvoiceRef:     inv.Reference,
			Description:    description,
			Credit:         &creditProduct,
			CustomerName:   customerName,
		},
		{
			Date:           inv.BillingDate,
			GeneralAccount: models.AccountVat,
			InvoiceRef:     inv.Reference,
			Description:    description,
			Credit:         &creditVat,
			CustomerName:   customerName,
		},
	}
}

// clientAccountFor выводит вспомогательный счёт клиента из префикса фамилии:
// 411 плюс первые три буквы фамилии в верхнем регистре. Срез по рунам,
// не по байтам: кириллическая или акцентированная фамилия не должна
// давать битый UTF-8.
func clientAccountFor(user *models.User) string {
	prefix := []rune(strings.ToUpper(user.LastName))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return models.AccountClient + string(prefix)
}
