package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
)

const userColumns = `id, email, username, password_hash, role, first_name, last_name,
			      payment_method_type, card_last4, iban_suffix, status`

// ReadUser возвращает пользователя по его ID.
func (s *Storage) ReadUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.ReadUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	item, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// ReadUserByUsername возвращает пользователя по имени учётной записи.
func (s *Storage) ReadUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgres.ReadUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	item, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// UpdateUserStatus обновляет статус учётной записи и возвращает число изменённых строк.
func (s *Storage) UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) (int, error) {
	const op = "storage.postgres.UpdateUserStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var item models.User
	var methodType, cardLast4, ibanSuffix sql.NullString
	var status string
	if err := row.Scan(&item.ID, &item.Email, &item.Username, &item.PasswordHash, &item.Role,
		&item.FirstName, &item.LastName, &methodType, &cardLast4, &ibanSuffix, &status); err != nil {
		return nil, err
	}
	item.PaymentMethod = models.PaymentMethod{
		Type:       models.PaymentMethodType(methodType.String),
		CardLast4:  cardLast4.String,
		IbanSuffix: ibanSuffix.String,
	}
	item.Status = models.UserStatus(status)
	return &item, nil
}
