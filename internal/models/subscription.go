// Package models содержит доменные структуры биллинга: подписки, счета,
// пользователей и производные экспортные объекты, а также вспомогательные
// типы для приёма данных из JSON-запросов.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus статус подписки.
type SubscriptionStatus string

const (
	// SubscriptionActive — подписка действует и попадает в биллинг.
	SubscriptionActive SubscriptionStatus = "ACTIVE"
	// SubscriptionCancelled — подписка расторгнута.
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	// SubscriptionPendingCancel — подписка ожидает расторжения.
	SubscriptionPendingCancel SubscriptionStatus = "PENDING_CANCEL"
)

// Valid проверяет, что значение статуса входит в допустимый набор.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionPendingCancel:
		return true
	}
	return false
}

// Subscription представляет подписку пользователя.
// EndDate заполняется только для неактивных статусов: подписки не удаляются
// физически, расторжение — это переход статуса с сохранением истории для биллинга.
type Subscription struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	ContractCode  string             `json:"contract_code"` // Человекочитаемый код договора, уникален в рамках цикла
	StartDate     time.Time          `json:"start_date"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
	MonthlyAmount decimal.Decimal    `json:"monthly_amount"` // Ежемесячная сумма без НДС
	PromoCode     *string            `json:"promo_code,omitempty"`
	Status        SubscriptionStatus `json:"status"`
}
