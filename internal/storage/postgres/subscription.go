package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
)

// ListSubscriptionsByStatus возвращает все подписки с указанным статусом.
func (s *Storage) ListSubscriptionsByStatus(ctx context.Context, status models.SubscriptionStatus) ([]*models.Subscription, error) {
	const op = "storage.postgres.ListSubscriptionsByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, contract_code, start_date, end_date, monthly_amount, promo_code, status
			  FROM subscriptions
			  WHERE status = $1
			  ORDER BY contract_code`
	rows, err := s.DB.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		item, err := scanSubscription(rows)
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

// ReadSubscription возвращает подписку по её ID.
func (s *Storage) ReadSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.postgres.ReadSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, contract_code, start_date, end_date, monthly_amount, promo_code, status
			  FROM subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	item, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var item models.Subscription
	var endDate sql.NullTime
	var promoCode sql.NullString
	var status string
	if err := row.Scan(&item.ID, &item.UserID, &item.ContractCode, &item.StartDate,
		&endDate, &item.MonthlyAmount, &promoCode, &status); err != nil {
		return nil, err
	}
	if endDate.Valid {
		item.EndDate = &endDate.Time
	}
	if promoCode.Valid {
		item.PromoCode = &promoCode.String
	}
	item.Status = models.SubscriptionStatus(status)
	return &item, nil
}
