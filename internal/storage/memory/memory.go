// Package memory реализует хранилище биллинга в памяти процесса.
// Используется в тестах и в конфигурации storage.backend=memory.
// Каждый экземпляр изолирован: никаких общих глобальных коллекций,
// тесты конструируют своё хранилище через New.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
)

// Storage хранит все сущности в map под одним мьютексом.
type Storage struct {
	mu            sync.RWMutex
	subscriptions map[string]*models.Subscription
	invoices      map[string]*models.Invoice
	users         map[string]*models.User
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		subscriptions: make(map[string]*models.Subscription),
		invoices:      make(map[string]*models.Invoice),
		users:         make(map[string]*models.User),
	}
}

// SeedSubscription добавляет подписку. Предназначен для тестов и наполнения
// memory-бэкенда при старте.
func (s *Storage) SeedSubscription(sub *models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sub
	s.subscriptions[sub.ID] = &copied
}

// SeedUser добавляет пользователя.
func (s *Storage) SeedUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *u
	s.users[u.ID] = &copied
}

// ListSubscriptionsByStatus возвращает все подписки с указанным статусом,
// отсортированные по коду договора.
func (s *Storage) ListSubscriptionsByStatus(_ context.Context, status models.SubscriptionStatus) ([]*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Subscription
	for _, sub := range s.subscriptions {
		if sub.Status == status {
			copied := *sub
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ContractCode < result[j].ContractCode })
	return result, nil
}

// ReadSubscription возвращает подписку по ID.
func (s *Storage) ReadSubscription(_ context.Context, id string) (*models.Subscription, error) {
	const op = "storage.memory.ReadSubscription"
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	copied := *sub
	return &copied, nil
}

// CreateInvoice вставляет новый счёт.
func (s *Storage) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	const op = "storage.memory.CreateInvoice"
	if !inv.Status.Valid() {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *inv
	s.invoices[inv.ID] = &copied
	return nil
}

// ReadInvoice возвращает счёт по ID.
func (s *Storage) ReadInvoice(_ context.Context, id string) (*models.Invoice, error) {
	const op = "storage.memory.ReadInvoice"
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	copied := *inv
	return &copied, nil
}

// CountInvoicesBySubscription подсчитывает число счетов подписки за всю историю.
func (s *Storage) CountInvoicesBySubscription(_ context.Context, subscriptionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, inv := range s.invoices {
		if inv.SubscriptionID == subscriptionID {
			count++
		}
	}
	return count, nil
}

// HasInvoiceForPeriod сообщает, выставлен ли подписке счёт за месяц periodStart.
func (s *Storage) HasInvoiceForPeriod(_ context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.SubscriptionID == subscriptionID && inv.PeriodStart.Equal(periodStart) {
			return true, nil
		}
	}
	return false, nil
}

// ListInvoicesByBillingRange возвращает счета с датой биллинга в [from, to].
func (s *Storage) ListInvoicesByBillingRange(_ context.Context, from, to time.Time) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Invoice
	for _, inv := range s.invoices {
		if inv.BillingDate.Before(from) || inv.BillingDate.After(to) {
			continue
		}
		copied := *inv
		result = append(result, &copied)
	}
	sortByReference(result)
	return result, nil
}

// ListInvoices возвращает счета по необязательным фильтрам.
func (s *Storage) ListInvoices(_ context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Invoice
	for _, inv := range s.invoices {
		if filter.UserID != nil && inv.UserID != *filter.UserID {
			continue
		}
		if filter.SubscriptionID != nil && inv.SubscriptionID != *filter.SubscriptionID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		copied := *inv
		result = append(result, &copied)
	}
	sortByReference(result)
	return result, nil
}

// UpdateInvoiceStatus обновляет статус счёта, возвращает число изменённых записей.
func (s *Storage) UpdateInvoiceStatus(_ context.Context, id string, status models.InvoiceStatus) (int, error) {
	const op = "storage.memory.UpdateInvoiceStatus"
	if !status.Valid() {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return 0, nil
	}
	inv.Status = status
	return 1, nil
}

// ReadUser возвращает пользователя по ID.
func (s *Storage) ReadUser(_ context.Context, id string) (*models.User, error) {
	const op = "storage.memory.ReadUser"
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

// ReadUserByUsername возвращает пользователя по имени учётной записи.
func (s *Storage) ReadUserByUsername(_ context.Context, username string) (*models.User, error) {
	const op = "storage.memory.ReadUserByUsername"
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// UpdateUserStatus обновляет статус учётной записи.
func (s *Storage) UpdateUserStatus(_ context.Context, id string, status models.UserStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	u.Status = status
	return 1, nil
}

func sortByReference(invoices []*models.Invoice) {
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].Reference < invoices[j].Reference })
}
