package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus статус счёта.
type InvoiceStatus string

const (
	// InvoicePending — счёт выставлен, оплата не запускалась.
	InvoicePending InvoiceStatus = "PENDING"
	// InvoiceSent — счёт передан в банк на списание.
	InvoiceSent InvoiceStatus = "SENT"
	// InvoicePaid — счёт оплачен.
	InvoicePaid InvoiceStatus = "PAID"
	// InvoiceFailed — списание по счёту отклонено банком.
	InvoiceFailed InvoiceStatus = "FAILED"
)

// Valid проверяет, что значение статуса входит в допустимый набор.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoiceSent, InvoicePaid, InvoiceFailed:
		return true
	}
	return false
}

// Invoice представляет счёт за один календарный месяц по одной подписке.
// Инвариант: AmountInclVat == round2(AmountExclVat + VatAmount),
// VatAmount == round2(AmountExclVat * VAT).
// Счёт создаётся биллингом ровно один раз на пару (подписка, месяц),
// статус меняет только сверка платежей, удаление не предусмотрено.
type Invoice struct {
	ID             string          `json:"id"`
	Reference      string          `json:"reference"`
	SubscriptionID string          `json:"subscription_id"`
	UserID         string          `json:"user_id"`
	BillingDate    time.Time       `json:"billing_date"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	AmountExclVat  decimal.Decimal `json:"amount_excl_vat"`
	VatAmount      decimal.Decimal `json:"vat_amount"`
	AmountInclVat  decimal.Decimal `json:"amount_incl_vat"`
	Status         InvoiceStatus   `json:"status"`
}

// InvoiceReference строит детерминированный номер счёта вида INV-2026-03-C001.
func InvoiceReference(billingDate time.Time, contractCode string) string {
	return fmt.Sprintf("INV-%04d-%02d-%s", billingDate.Year(), int(billingDate.Month()), contractCode)
}

// InvoiceFilter параметры выборки счетов, nil-поле означает отсутствие фильтра.
type InvoiceFilter struct {
	UserID         *string
	SubscriptionID *string
	Status         *InvoiceStatus
}

// InvoiceDetails счёт, обогащённый подпиской и пользователем, для админской выдачи.
type InvoiceDetails struct {
	Invoice      *Invoice      `json:"invoice"`
	Subscription *Subscription `json:"subscription,omitempty"`
	User         *User         `json:"user,omitempty"`
}

// BillingRunResult результат одного запуска месячного биллинга:
// дата запуска и только созданные этим запуском счета.
type BillingRunResult struct {
	BillingDate time.Time  `json:"billing_date"`
	Invoices    []*Invoice `json:"invoices"`
}
