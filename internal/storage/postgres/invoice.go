package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
)

// CreateInvoice вставляет новый счёт.
func (s *Storage) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	const op = "storage.postgres.CreateInvoice"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if !inv.Status.Valid() {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidStatus)
	}

	query := `INSERT INTO invoices (id, reference, subscription_id, user_id, billing_date,
			      period_start, period_end, amount_excl_vat, vat_amount, amount_incl_vat, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.DB.ExecContext(ctx, query,
		inv.ID, inv.Reference, inv.SubscriptionID, inv.UserID, inv.BillingDate,
		inv.PeriodStart, inv.PeriodEnd, inv.AmountExclVat, inv.VatAmount, inv.AmountInclVat,
		string(inv.Status))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReadInvoice возвращает счёт по его ID.
func (s *Storage) ReadInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "storage.postgres.ReadInvoice"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, subscription_id, user_id, billing_date, period_start, period_end,
			      amount_excl_vat, vat_amount, amount_incl_vat, status
			  FROM invoices WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	item, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// CountInvoicesBySubscription подсчитывает число счетов подписки за всю историю.
// Биллинг использует его для правила приветственной скидки.
func (s *Storage) CountInvoicesBySubscription(ctx context.Context, subscriptionID string) (int, error) {
	const op = "storage.postgres.CountInvoicesBySubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE subscription_id = $1`, subscriptionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// HasInvoiceForPeriod сообщает, выставлен ли подписке счёт за месяц,
// начинающийся periodStart.
func (s *Storage) HasInvoiceForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	const op = "storage.postgres.HasInvoiceForPeriod"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM invoices WHERE subscription_id = $1 AND period_start = $2)`,
		subscriptionID, periodStart).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListInvoicesByBillingRange возвращает счета с датой биллинга в диапазоне
// [from, to] включительно, независимо от статуса.
func (s *Storage) ListInvoicesByBillingRange(ctx context.Context, from, to time.Time) ([]*models.Invoice, error) {
	const op = "storage.postgres.ListInvoicesByBillingRange"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, subscription_id, user_id, billing_date, period_start, period_end,
			      amount_excl_vat, vat_amount, amount_incl_vat, status
			  FROM invoices
			  WHERE billing_date >= $1 AND billing_date <= $2
			  ORDER BY reference`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Invoice
	for rows.Next() {
		item, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListInvoices возвращает счета по необязательным фильтрам
// пользователя, подписки и статуса.
func (s *Storage) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	const op = "storage.postgres.ListInvoices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, subscription_id, user_id, billing_date, period_start, period_end,
			      amount_excl_vat, vat_amount, amount_incl_vat, status
			  FROM invoices
			  WHERE ($1::text IS NULL OR user_id = $1)
			    AND ($2::text IS NULL OR subscription_id = $2)
			    AND ($3::text IS NULL OR status = $3)
			  ORDER BY reference`
	var status *string
	if filter.Status != nil {
		v := string(*filter.Status)
		status = &v
	}
	rows, err := s.DB.QueryContext(ctx, query, filter.UserID, filter.SubscriptionID, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Invoice
	for rows.Next() {
		item, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateInvoiceStatus обновляет статус счёта и возвращает число изменённых строк.
func (s *Storage) UpdateInvoiceStatus(ctx context.Context, id string, status models.InvoiceStatus) (int, error) {
	const op = "storage.postgres.UpdateInvoiceStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if !status.Valid() {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrInvalidStatus)
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var item models.Invoice
	var status string
	if err := row.Scan(&item.ID, &item.Reference, &item.SubscriptionID, &item.UserID,
		&item.BillingDate, &item.PeriodStart, &item.PeriodEnd,
		&item.AmountExclVat, &item.VatAmount, &item.AmountInclVat, &status); err != nil {
		return nil, err
	}
	item.Status = models.InvoiceStatus(status)
	return &item, nil
}
