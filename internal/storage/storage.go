// Package storage определяет контракт хранилища биллинга (Ledger) и общие
// ошибки слоя данных. Реализации — postgres и memory — взаимозаменяемы и
// выбираются при старте приложения через конфигурацию.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// ErrNotFound возвращается, когда запись с указанным идентификатором отсутствует.
var ErrNotFound = errors.New("not found")

// ErrInvalidStatus возвращается при попытке записать статус вне допустимого набора.
var ErrInvalidStatus = errors.New("invalid status")

// Ledger объединяет операции хранилища, которые использует биллинг.
// Сервисы объявляют собственные узкие интерфейсы; Ledger нужен приложению
// для выбора бэкенда в одной точке.
type Ledger interface {
	ListSubscriptionsByStatus(ctx context.Context, status models.SubscriptionStatus) ([]*models.Subscription, error)
	ReadSubscription(ctx context.Context, id string) (*models.Subscription, error)

	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	ReadInvoice(ctx context.Context, id string) (*models.Invoice, error)
	CountInvoicesBySubscription(ctx context.Context, subscriptionID string) (int, error)
	HasInvoiceForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error)
	ListInvoicesByBillingRange(ctx context.Context, from, to time.Time) ([]*models.Invoice, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status models.InvoiceStatus) (int, error)

	ReadUser(ctx context.Context, id string) (*models.User, error)
	ReadUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) (int, error)
}
