package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/models"
)

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, last_login
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, last_login
		FROM users
		WHERE email = $1
	`
	var user models.User
	err := pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func CreateUser(ctx context.Context, pool *pgxpool.Pool, req models.RegisterRequest, hashedPassword []byte) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, created_at
	`
	var user models.User
	err := pool.QueryRow(ctx, query, req.Name, strings.ToLower(req.Email), hashedPassword).
		Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func UpdateUserLastLogin(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	_, err := pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func UpdateUserPassword(ctx context.Context, pool *pgxpool.Pool, userID int64, hashedPassword []byte) error {
	cmd, err := pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hashedPassword, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user; transactions, rules and budgets cascade.
func DeleteUser(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
