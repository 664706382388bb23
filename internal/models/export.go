package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DirectDebitStatusToSend единственный статус нового банковского поручения.
const DirectDebitStatusToSend = "TO_SEND"

// DirectDebitOrder банковское поручение на списание, производное от счёта.
// Не персистится: пересчитывается при каждом вызове экспорта.
type DirectDebitOrder struct {
	ID            string            `json:"id"`
	InvoiceID     string            `json:"invoice_id"`
	UserID        string            `json:"user_id"`
	ExecutionDate time.Time         `json:"execution_date"`
	Amount        decimal.Decimal   `json:"amount"` // Сумма с НДС
	Status        string            `json:"status"`
	PaymentMethod PaymentMethodType `json:"payment_method"`
}

// Коды счетов бухгалтерского экспорта.
const (
	AccountClient  = "411" // Клиенты
	AccountProduct = "706" // Выручка за услуги
	AccountVat     = "445" // НДС
)

// AccountingLine строка бухгалтерского экспорта. На каждый счёт формируются
// три строки: дебет клиента, кредит услуги, кредит НДС. Debit и Credit
// взаимоисключающие, незаполненная сторона опускается.
type AccountingLine struct {
	Date           time.Time        `json:"date"`
	GeneralAccount string           `json:"general_account"`
	ClientAccount  string           `json:"client_account,omitempty"`
	InvoiceRef     string           `json:"invoice_ref"`
	Description    string           `json:"description"`
	Debit          *decimal.Decimal `json:"debit,omitempty"`
	Credit         *decimal.Decimal `json:"credit,omitempty"`
	CustomerName   string           `json:"customer_name"`
}

// MonthlyRevenue агрегат выручки за один календарный месяц, ключ — YYYY-MM.
type MonthlyRevenue struct {
	Month          string          `json:"month"`
	RevenueExclVat decimal.Decimal `json:"revenue_excl_vat"`
	VatAmount      decimal.Decimal `json:"vat_amount"`
	RevenueInclVat decimal.Decimal `json:"revenue_incl_vat"`
}
