package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"weather-service/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

// CreateUser inserts a user whose password is already hashed.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, email, password) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.Password)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	user.ID = int(id)
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	user := &entity.User{}
	query := `SELECT id, username, email, password FROM users WHERE email = ? LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateUser replaces every column of the row with user.ID. Whether a row
// matched is not reported.
func (r *UserRepository) UpdateUser(ctx context.Context, user *entity.User) error {
	query := `UPDATE users SET username = ?, email = ?, password = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.Password, user.ID)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
		}
		return err
	}
	return nil
}

// DeleteUserByEmail returns the number of deleted rows.
func (r *UserRepository) DeleteUserByEmail(ctx context.Context, email string) (int64, error) {
	query := `DELETE FROM users WHERE email = ?`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
