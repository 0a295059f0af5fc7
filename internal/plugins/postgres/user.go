package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/swagculi/chatapp/internal/core/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := executor(ctx, r.db)
	var u domain.User
	err := exec.QueryRowContext(ctx, `
		SELECT id, display_name, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListUsers(ctx context.Context, exceptID string) ([]domain.User, error) {
	exec := executor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, display_name, created_at
		FROM users
		WHERE id <> $1
		ORDER BY display_name ASC
	`, exceptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
