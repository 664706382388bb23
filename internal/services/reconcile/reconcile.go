// Package reconcile реализует сверку платежей: применение банковских исходов
// к счетам и каскадное изменение статуса учётной записи владельца.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/billing-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
)

// LedgerStore определяет операции хранилища, нужные сверке платежей.
type LedgerStore interface {
	UpdateInvoiceStatus(ctx context.Context, id string, status models.InvoiceStatus) (int, error)
	ReadInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ReadUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) (int, error)
}

// EventPublisher публикует события биллинга в очередь уведомлений.
type EventPublisher interface {
	UserSuspended(event models.UserSuspendedEvent) error
}

// Service применяет обновления платежей к счетам и пользователям.
type Service struct {
	store  LedgerStore
	events EventPublisher
	log    *slog.Logger
}

// New создает новый экземпляр Service. events может быть nil,
// тогда уведомления о приостановке не публикуются.
func New(store LedgerStore, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		log:    log,
	}
}

// ApplyPaymentUpdates применяет пакет банковских исходов к счетам.
// Обновления независимы: ошибка одного не прерывает остальные.
// Исход PENDING — осознанный no-op, он не входит в счётчик применённых.
// Возвращает число успешно применённых обновлений.
func (s *Service) ApplyPaymentUpdates(ctx context.Context, updates []models.PaymentUpdate) (int, error) {
	applied := 0
	for _, update := range updates {
		status, ok := invoiceStatusFor(update.Outcome)
		if !ok {
			if update.Outcome == models.OutcomePending {
				s.log.Info("payment still pending, nothing to apply",
					slog.String("invoice_id", update.InvoiceID))
				continue
			}
			s.log.Error("unknown payment outcome, skipping",
				slog.String("invoice_id", update.InvoiceID),
				slog.String("outcome", string(update.Outcome)))
			continue
		}

		if err := s.applyUpdate(ctx, update.InvoiceID, status); err != nil {
			s.log.Error("failed to apply payment update",
				slog.String("invoice_id", update.InvoiceID), sl.Err(err))
			continue
		}
		applied++
	}

	s.log.Info("payment updates processed",
		slog.Int("received", len(updates)), slog.Int("applied", applied))
	return applied, nil
}

// applyUpdate переводит счёт в новый статус и каскадирует изменение статуса
// владельца: FAILED приостанавливает учётную запись, PAID возвращает
// приостановленную в OK.
func (s *Service) applyUpdate(ctx context.Context, invoiceID string, status models.InvoiceStatus) error {
	const op = "reconcile.applyUpdate"

	affected, err := s.store.UpdateInvoiceStatus(ctx, invoiceID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: invoice %s: %w", op, invoiceID, storage.ErrNotFound)
	}

	inv, err := s.store.ReadInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch status {
	case models.InvoiceFailed:
		if _, err := s.store.UpdateUserStatus(ctx, inv.UserID, models.UserSuspended); err != nil {
			return fmt.Errorf("%s: suspend user %s: %w", op, inv.UserID, err)
		}
		s.log.Info("user suspended after rejected payment",
			slog.String("user_id", inv.UserID),
			slog.String("invoice_reference", inv.Reference))
		s.publishSuspension(ctx, inv)
	case models.InvoicePaid:
		user, err := s.store.ReadUser(ctx, inv.UserID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if user.Status == models.UserSuspended {
			if _, err := s.store.UpdateUserStatus(ctx, inv.UserID, models.UserOK); err != nil {
				return fmt.Errorf("%s: restore user %s: %w", op, inv.UserID, err)
			}
			s.log.Info("user restored after successful payment",
				slog.String("user_id", inv.UserID))
		}
	}
	return nil
}

// publishSuspension отправляет событие приостановки в очередь уведомлений.
// Ошибка публикации не откатывает сверку, только логируется.
func (s *Service) publishSuspension(ctx context.Context, inv *models.Invoice) {
	if s.events == nil {
		return
	}
	user, err := s.store.ReadUser(ctx, inv.UserID)
	if err != nil {
		s.log.Warn("failed to read user for suspension notification",
			slog.String("user_id", inv.UserID), sl.Err(err))
		return
	}
	event := models.UserSuspendedEvent{
		Email:      user.Email,
		Username:   user.Username,
		InvoiceRef: inv.Reference,
	}
	if err := s.events.UserSuspended(event); err != nil {
		s.log.Warn("failed to publish suspension event",
			slog.String("user_id", inv.UserID), sl.Err(err))
	}
}

func invoiceStatusFor(outcome models.PaymentOutcome) (models.InvoiceStatus, bool) {
	switch outcome {
	case models.OutcomeExecuted:
		return models.InvoicePaid, true
	case models.OutcomeRejected:
		return models.InvoiceFailed, true
	}
	return "", false
}
