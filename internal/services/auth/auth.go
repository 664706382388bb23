// Package auth реализует аутентификацию пользователей и выпуск JWT.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	jwtlib "github.com/magabrotheeeer/billing-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/billing-backoffice/internal/lib/password"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль
// или недоступной учётной записи.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository определяет чтение пользователей для аутентификации.
type UserRepository interface {
	ReadUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service проверяет учётные данные и выпускает токены.
type Service struct {
	repo  UserRepository
	maker jwtlib.Maker
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, maker jwtlib.Maker, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		maker: maker,
		log:   log,
	}
}

// Login проверяет пароль пользователя и возвращает подписанный JWT и роль.
// Заблокированные и удалённые учётные записи не аутентифицируются;
// приостановленные — аутентифицируются, чтобы пользователь мог разобраться
// с оплатой.
func (s *Service) Login(ctx context.Context, username, pass string) (string, string, error) {
	const op = "auth.Login"

	user, err := s.repo.ReadUserByUsername(ctx, username)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if user.Status == models.UserBlocked || user.Status == models.UserDeleted {
		s.log.Warn("login attempt for unavailable account",
			slog.String("username", username), slog.String("status", string(user.Status)))
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, pass); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.maker.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("username", username))
	return token, user.Role, nil
}
